package models

import "time"

// FileType classifies an uploaded source file.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
)

// Document describes one uploaded source file. Every chunk persisted for a
// document carries the document's FileID and OwnerUserID.
type Document struct {
	FileID          string    `json:"file_id"`
	Filename        string    `json:"filename"`
	FileType        FileType  `json:"file_type"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
	OwnerUserID     string    `json:"owner_user_id,omitempty"` // empty in legacy unauthenticated mode
	FolderID        string    `json:"folder_id,omitempty"`
}

// FileInfo is the aggregated view of a stored file returned by listings.
type FileInfo struct {
	FileID          string    `json:"file_id"`
	Filename        string    `json:"filename"`
	FileType        string    `json:"file_type"`
	UploadTimestamp time.Time `json:"upload_timestamp"`
	ChunkCount      int       `json:"document_count"`
}

// Folder is a user-scoped named grouping of file IDs. The UserID/Name pair
// is unique per user.
type Folder struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index:idx_user_folder,unique;not null;size:255" json:"user_id"`
	Name      string    `gorm:"index:idx_user_folder,unique;not null;size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FolderFile records a file's membership in a folder.
type FolderFile struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FolderID uint   `gorm:"index:idx_folder_file,unique;not null" json:"folder_id"`
	FileID   string `gorm:"index:idx_folder_file,unique;not null;size:255" json:"file_id"`
}
