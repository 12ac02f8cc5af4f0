package service

import (
	"context"
	"fmt"

	"StudyMind/internal/models"
)

// errFoldersDisabled is surfaced when no folder store was configured.
var errFoldersDisabled = fmt.Errorf("folder management is not available")

// CreateFolder creates a named folder for the owner.
func (s *Service) CreateFolder(ctx context.Context, owner, name string) (*models.Folder, error) {
	if s.folders == nil {
		return nil, errFoldersDisabled
	}
	return s.folders.CreateFolder(ctx, owner, name)
}

// ListFolders returns the owner's folders.
func (s *Service) ListFolders(ctx context.Context, owner string) ([]*models.Folder, error) {
	if s.folders == nil {
		return nil, errFoldersDisabled
	}
	return s.folders.ListFoldersByUser(ctx, owner)
}

// FolderDeleteResult reports a folder deletion and its optional cascade into
// the corpus.
type FolderDeleteResult struct {
	Status        models.Status `json:"status"`
	Message       string        `json:"message"`
	DeletedChunks int64         `json:"deleted_chunks,omitempty"`
}

// DeleteFolder removes one folder. With cascade, the chunks of every file
// grouped under it are deleted from the corpus as well; the folder rows go
// first so a cascade failure cannot resurrect the grouping.
func (s *Service) DeleteFolder(ctx context.Context, owner string, folderID uint, cascade bool) (*FolderDeleteResult, error) {
	if s.folders == nil {
		return nil, errFoldersDisabled
	}

	var fileIDs []string
	if cascade {
		var err error
		fileIDs, err = s.folders.ListFolderFiles(ctx, owner, folderID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.folders.DeleteFolder(ctx, owner, folderID); err != nil {
		return nil, err
	}

	res := &FolderDeleteResult{
		Status:  models.StatusSuccess,
		Message: "folder deleted",
	}
	if cascade && len(fileIDs) > 0 {
		deleted, err := s.store.DeleteByFileIDs(ctx, fileIDs, owner)
		if err != nil {
			s.log.WithErr(err).WithUser(owner).Error("Folder cascade deletion failed")
			res.Status = models.StatusWarning
			res.Message = "folder deleted but some file chunks could not be removed"
			return res, nil
		}
		res.DeletedChunks = deleted
		res.Message = fmt.Sprintf("folder and %d file chunks deleted", deleted)
	}
	return res, nil
}

// AddFileToFolder groups an uploaded file under a folder.
func (s *Service) AddFileToFolder(ctx context.Context, owner string, folderID uint, fileID string) error {
	if s.folders == nil {
		return errFoldersDisabled
	}
	return s.folders.AddFileToFolder(ctx, owner, folderID, fileID)
}

// ListFolderFiles returns the file ids grouped under a folder.
func (s *Service) ListFolderFiles(ctx context.Context, owner string, folderID uint) ([]string, error) {
	if s.folders == nil {
		return nil, errFoldersDisabled
	}
	return s.folders.ListFolderFiles(ctx, owner, folderID)
}
