package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"learnify-backend/internal/models"
	"learnify-backend/internal/repository"
)

// textPreviewChars is how much extracted text is kept on the list view.
const textPreviewChars = 500

// fileTypeAliases maps legacy office extensions to the format actually
// parsed. The stored file keeps its original name.
var fileTypeAliases = map[string]string{
	"doc": models.FileTypeDOCX,
	"ppt": models.FileTypePPTX,
}

type DocumentService struct {
	docRepo     *repository.DocumentRepo
	extract     *ExtractService
	events      *EventPublisher
	storagePath string
}

func NewDocumentService(docRepo *repository.DocumentRepo, extract *ExtractService, events *EventPublisher, storagePath string) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		extract:     extract,
		events:      events,
		storagePath: storagePath,
	}
}

// normalizeFileType resolves an upload filename to a supported file type.
func normalizeFileType(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if mapped, ok := fileTypeAliases[ext]; ok {
		ext = mapped
	}
	switch ext {
	case models.FileTypePDF, models.FileTypeDOCX, models.FileTypePPTX, models.FileTypeTXT:
		return ext, nil
	default:
		return "", fmt.Errorf("unsupported file type: .%s", ext)
	}
}

// Upload stores the file, extracts its text synchronously and persists the
// outcome. An extraction failure degrades the document to status error; the
// upload request itself still succeeds.
func (s *DocumentService) Upload(ctx context.Context, userID uuid.UUID, title, description, filename string, data []byte) (*models.Document, error) {
	fileType, err := normalizeFileType(filename)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"file": err.Error()}}
	}

	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	doc := &models.Document{
		ID:               uuid.New(),
		UserID:           userID,
		Title:            title,
		Description:      description,
		OriginalFilename: filepath.Base(filename),
		FileSize:         int64(len(data)),
		FileType:         fileType,
		Status:           models.DocStatusProcessing,
	}

	userDir := filepath.Join(s.storagePath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	doc.FilePath = filepath.Join(userDir, doc.ID.String()+"."+fileType)
	if err := os.WriteFile(doc.FilePath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store uploaded file: %w", err)
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		os.Remove(doc.FilePath)
		return nil, err
	}

	result, extractErr := s.extract.Extract(data, fileType)
	if extractErr != nil {
		log.Printf("extraction failed for document %s (%s): %v", doc.ID, filename, extractErr)
		doc.Status = models.DocStatusError
		doc.ProcessingError = extractErr.Error()
		doc.ExtractedText = ""
		doc.TextPreview = ""
	} else {
		doc.Status = models.DocStatusReady
		doc.ExtractedText = result.Text
		doc.TextPreview = preview(result.Text)
		doc.PageCount = result.PageCount
		doc.WordCount = result.WordCount
	}

	if err := s.docRepo.UpdateExtraction(ctx, doc); err != nil {
		return nil, err
	}
	s.events.DocumentUpdate(ctx, userID, doc)

	return doc, nil
}

func preview(text string) string {
	if len(text) <= textPreviewChars {
		return text
	}
	return text[:textPreviewChars]
}

func (s *DocumentService) Get(ctx context.Context, userID, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Document not found"}
		}
		return nil, err
	}
	if doc.UserID != userID {
		return nil, &NotFoundError{Message: "Document not found"}
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, userID uuid.UUID) ([]*models.Document, error) {
	return s.docRepo.ListByUser(ctx, userID)
}

func (s *DocumentService) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}

	if err := s.docRepo.Delete(ctx, documentID); err != nil {
		return err
	}

	if doc.FilePath != "" {
		if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove stored file for document %s: %v", doc.ID, err)
		}
	}
	return nil
}

func (s *DocumentService) Stats(ctx context.Context, userID uuid.UUID) (*models.DocumentStats, error) {
	return s.docRepo.Stats(ctx, userID)
}
