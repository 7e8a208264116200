package model

import "time"

// StoredFile is one uploaded version of a file. Uploading the same name
// again adds a new version; nothing is overwritten.
type StoredFile struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Filename   string    `json:"filename"`
	Data       []byte    `json:"-"`
	Size       int       `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// FileEntry summarises the latest version of a file in an owner's history.
type FileEntry struct {
	Filename   string    `json:"filename"`
	Size       int       `json:"size"`
	Versions   int       `json:"versions"`
	UploadedAt time.Time `json:"uploaded_at"`
}
