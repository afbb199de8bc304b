//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// UploadState is the processing state of a bulk upload.
type UploadState string

const (
	UploadStatePending    UploadState = "pending"
	UploadStateUploading  UploadState = "uploading"
	UploadStateProcessing UploadState = "processing"
	UploadStateCompleted  UploadState = "completed"
	UploadStateFailed     UploadState = "failed"
)

// Terminal reports whether no further transitions are expected.
func (s UploadState) Terminal() bool {
	return s == UploadStateCompleted || s == UploadStateFailed
}

// UploadStatus is one row of the bulk-upload status listing.
type UploadStatus struct {
	ID          string      `json:"id"`
	FileName    string      `json:"fileName"`
	Status      UploadState `json:"status"`
	Message     string      `json:"message,omitempty"`
	SubmittedBy string      `json:"submittedBy,omitempty"`
	SubmittedAt *time.Time  `json:"submittedAt,omitempty"`
}

// UploadProgress is the locally tracked progress of an in-flight submission.
type UploadProgress struct {
	ID       string      `json:"id"`
	FileName string      `json:"file_name"`
	UserID   string      `json:"user_id"`
	Percent  int         `json:"percent"`
	State    UploadState `json:"state"`
	Message  string      `json:"message,omitempty"`
}

// UploadPreview summarizes a spreadsheet before it is submitted.
type UploadPreview struct {
	FileName string   `json:"file_name"`
	Sheet    string   `json:"sheet,omitempty"`
	Header   []string `json:"header"`
	Rows     int      `json:"rows"`
}
