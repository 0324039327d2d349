package domain

import (
	"io"
	"time"
)

type AttachmentId = int64

// OwnerRef identifies the model instance an attachment belongs to.
// Kind is resolved through the owner registry, Id is the record primary key.
type OwnerRef struct {
	Kind string `json:"kind"`
	Id   int64  `json:"id"`
}

// Attachment represents a stored file polymorphically associated with at
// most one owner record. An unbound attachment (Bound == false) exists only
// on disk and in the attachments table, waiting for a deferred binding
// commit or garbage collection.
type Attachment struct {
	Id               AttachmentId `json:"id"`
	Owner            OwnerRef     `json:"owner"`
	Bound            bool         `json:"bound"`
	Field            string       `json:"field"` // relation name on the owner
	DiskPath         string       `json:"disk_path"`
	OriginalFilename string       `json:"original_filename"`
	MimeType         string       `json:"mime_type"`
	SizeBytes        int64        `json:"size_bytes"`
	Protected        bool         `json:"protected"`
	ImageWidth       *int         `json:"image_width,omitempty"`
	ImageHeight      *int         `json:"image_height,omitempty"`
	SortOrder        int          `json:"sort_order"`
	Created          time.Time    `json:"created"`
}

func (a *Attachment) IsImage() bool {
	return a.MimeType == "image/jpeg" || a.MimeType == "image/png" || a.MimeType == "image/gif"
}

// FileCommonMetadata holds validated metadata shared between pending and
// persisted files.
type FileCommonMetadata struct {
	Filename    string
	MimeType    string
	SizeBytes   int64
	ImageWidth  *int
	ImageHeight *int
}

// PendingFile is a validated upload that has not been persisted yet
type PendingFile struct {
	FileCommonMetadata
	Data io.Reader
}

type Attachments = []*Attachment
