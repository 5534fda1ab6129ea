package interfaces

import (
	"github.com/ternarybob/colligo/internal/models"
)

// DocumentStorage persists PageDocuments in the document store.
type DocumentStorage interface {
	SavePage(page *models.PageDocument) error
	GetPage(id string) (*models.PageDocument, error)
	GetPageByFilename(filename string) (*models.PageDocument, error)
	ListPages() ([]*models.PageDocument, error)
	ListPagesByCategory(category string) ([]*models.PageDocument, error)
	CountPages() (int, error)
}
