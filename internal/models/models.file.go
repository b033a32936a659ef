package models

import "time"

// FileKind separates recorded videos from generic documents.
type FileKind string

const (
	FileKindVideo FileKind = "video"
	FileKindFile  FileKind = "file"
)

// Valid reports whether k is a known kind.
func (k FileKind) Valid() bool {
	return k == FileKindVideo || k == FileKindFile
}

// FileAsset is the metadata of a blob owned by a user. The bytes live in the
// blob store under StorageKey.
type FileAsset struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Kind        FileKind  `json:"kind" db:"kind"`
	Filename    string    `json:"filename" db:"filename"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	StorageKey  string    `json:"-" db:"storage_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// StorageUsage is the number and total size of assets of one kind.
type StorageUsage struct {
	Kind  FileKind `json:"kind" db:"kind"`
	Count int64    `json:"count" db:"file_count"`
	Bytes int64    `json:"bytes" db:"total_bytes"`
}
