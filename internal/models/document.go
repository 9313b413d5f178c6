package models

import (
	"time"

	"github.com/google/uuid"
)

// Document statuses. A document is mutated exactly once after upload, by
// text extraction; status "ready" implies extracted_text is non-empty.
const (
	DocStatusUploading  = "uploading"
	DocStatusProcessing = "processing"
	DocStatusReady      = "ready"
	DocStatusError      = "error"
)

// Supported file types.
const (
	FileTypePDF  = "pdf"
	FileTypeDOCX = "docx"
	FileTypePPTX = "pptx"
	FileTypeTXT  = "txt"
)

type Document struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"-"`
	FileSize         int64     `json:"file_size"`
	FileType         string    `json:"file_type"`
	ExtractedText    string    `json:"-"`
	TextPreview      string    `json:"text_preview"`
	PageCount        int       `json:"page_count"`
	WordCount        int       `json:"word_count"`
	Status           string    `json:"status"`
	ProcessingError  string    `json:"processing_error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IsReady reports whether the document can back chat or test generation.
func (d *Document) IsReady() bool {
	return d.Status == DocStatusReady && d.ExtractedText != ""
}

type DocumentStats struct {
	TotalDocuments      int   `json:"total_documents"`
	ReadyDocuments      int   `json:"ready_documents"`
	ProcessingDocuments int   `json:"processing_documents"`
	ErrorDocuments      int   `json:"error_documents"`
	TotalSizeBytes      int64 `json:"total_size_bytes"`
	TotalPages          int   `json:"total_pages"`
	TotalWords          int   `json:"total_words"`
}
