package dal

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"StudyMind/internal/models"
)

// ErrFolderNotFound is returned when a folder does not exist or belongs to
// another user.
var ErrFolderNotFound = errors.New("folder not found or user does not have permission")

// FolderDAL provides data access methods for study folders.
type FolderDAL struct {
	db *gorm.DB
}

// NewFolderDAL creates a new FolderDAL and migrates its tables.
func NewFolderDAL(db *gorm.DB) (*FolderDAL, error) {
	if err := db.AutoMigrate(&models.Folder{}, &models.FolderFile{}); err != nil {
		return nil, err
	}
	return &FolderDAL{db: db}, nil
}

// CreateFolder creates a folder for a specific user. The user/name pair is
// unique, so a duplicate name fails on the constraint.
func (dal *FolderDAL) CreateFolder(ctx context.Context, userID, name string) (*models.Folder, error) {
	folder := &models.Folder{UserID: userID, Name: name}
	if result := dal.db.WithContext(ctx).Create(folder); result.Error != nil {
		return nil, result.Error
	}
	return folder, nil
}

// ListFoldersByUser retrieves all folders of one user.
func (dal *FolderDAL) ListFoldersByUser(ctx context.Context, userID string) ([]*models.Folder, error) {
	var folders []*models.Folder
	result := dal.db.WithContext(ctx).Where("user_id = ?", userID).Find(&folders)
	if result.Error != nil {
		return nil, result.Error
	}
	return folders, nil
}

// DeleteFolder deletes one folder and its file memberships after verifying
// the user owns it. The files' chunks are not touched here; the caller
// decides whether to cascade into the corpus.
func (dal *FolderDAL) DeleteFolder(ctx context.Context, userID string, folderID uint) error {
	return dal.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND id = ?", userID, folderID).Delete(&models.Folder{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrFolderNotFound
		}
		return tx.Where("folder_id = ?", folderID).Delete(&models.FolderFile{}).Error
	})
}

// AddFileToFolder records a file's membership in a folder the user owns.
func (dal *FolderDAL) AddFileToFolder(ctx context.Context, userID string, folderID uint, fileID string) error {
	var count int64
	err := dal.db.WithContext(ctx).Model(&models.Folder{}).
		Where("user_id = ? AND id = ?", userID, folderID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrFolderNotFound
	}

	return dal.db.WithContext(ctx).Create(&models.FolderFile{
		FolderID: folderID,
		FileID:   fileID,
	}).Error
}

// ListFolderFiles returns the file ids grouped under a folder the user owns.
func (dal *FolderDAL) ListFolderFiles(ctx context.Context, userID string, folderID uint) ([]string, error) {
	var count int64
	err := dal.db.WithContext(ctx).Model(&models.Folder{}).
		Where("user_id = ? AND id = ?", userID, folderID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrFolderNotFound
	}

	var fileIDs []string
	err = dal.db.WithContext(ctx).Model(&models.FolderFile{}).
		Where("folder_id = ?", folderID).
		Pluck("file_id", &fileIDs).Error
	if err != nil {
		return nil, err
	}
	return fileIDs, nil
}
