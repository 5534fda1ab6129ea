package phases

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/colligo/internal/models"
)

// memoryStorage is an in-memory DocumentStorage for phase tests.
type memoryStorage struct {
	mu    sync.Mutex
	pages map[string]*models.PageDocument
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{pages: map[string]*models.PageDocument{}}
}

func (m *memoryStorage) SavePage(page *models.PageDocument) error {
	if page.ID == "" {
		return fmt.Errorf("page ID is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *page
	m.pages[page.ID] = &copied
	return nil
}

func (m *memoryStorage) GetPage(id string) (*models.PageDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[id]
	if !ok {
		return nil, fmt.Errorf("page not found: %s", id)
	}
	copied := *page
	return &copied, nil
}

func (m *memoryStorage) GetPageByFilename(filename string) (*models.PageDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, page := range m.pages {
		if page.Filename == filename {
			copied := *page
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("page not found for filename: %s", filename)
}

func (m *memoryStorage) ListPages() ([]*models.PageDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*models.PageDocument, 0, len(m.pages))
	for _, page := range m.pages {
		copied := *page
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Filename < result[j].Filename })
	return result, nil
}

func (m *memoryStorage) ListPagesByCategory(category string) ([]*models.PageDocument, error) {
	all, _ := m.ListPages()
	var result []*models.PageDocument
	for _, page := range all {
		if page.Category == category {
			result = append(result, page)
		}
	}
	return result, nil
}

func (m *memoryStorage) CountPages() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pages), nil
}
