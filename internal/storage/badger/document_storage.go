package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// DocumentStorage implements the DocumentStorage interface for Badger
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new DocumentStorage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{
		db:     db,
		logger: logger,
	}
}

func (s *DocumentStorage) SavePage(page *models.PageDocument) error {
	if page.ID == "" {
		return fmt.Errorf("page ID is required")
	}

	now := time.Now()
	if page.CollectedAt.IsZero() {
		page.CollectedAt = now
	}
	page.UpdatedAt = now

	if err := s.db.Store().Upsert(page.ID, page); err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	return nil
}

func (s *DocumentStorage) GetPage(id string) (*models.PageDocument, error) {
	var page models.PageDocument
	if err := s.db.Store().Get(id, &page); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("page not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &page, nil
}

func (s *DocumentStorage) GetPageByFilename(filename string) (*models.PageDocument, error) {
	var pages []models.PageDocument
	err := s.db.Store().Find(&pages, badgerhold.Where("Filename").Eq(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to find page: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("page not found for filename: %s", filename)
	}
	return &pages[0], nil
}

func (s *DocumentStorage) ListPages() ([]*models.PageDocument, error) {
	var pages []models.PageDocument
	if err := s.db.Store().Find(&pages, nil); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	result := make([]*models.PageDocument, len(pages))
	for i := range pages {
		result[i] = &pages[i]
	}
	return result, nil
}

func (s *DocumentStorage) ListPagesByCategory(category string) ([]*models.PageDocument, error) {
	var pages []models.PageDocument
	err := s.db.Store().Find(&pages, badgerhold.Where("Category").Eq(category))
	if err != nil {
		return nil, fmt.Errorf("failed to list pages for category %s: %w", category, err)
	}
	result := make([]*models.PageDocument, len(pages))
	for i := range pages {
		result[i] = &pages[i]
	}
	return result, nil
}

func (s *DocumentStorage) CountPages() (int, error) {
	count, err := s.db.Store().Count(&models.PageDocument{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return int(count), nil
}
