package corpus

import (
	"context"

	"github.com/killallgit/eafkit/internal/models"
	"github.com/killallgit/eafkit/pkg/eaf"
)

// Query selects rows of the corpus index. Empty fields match everything.
type Query struct {
	Text        string `form:"q" json:"q"`
	TierID      string `form:"tier" json:"tier,omitempty"`
	Participant string `form:"participant" json:"participant,omitempty"`
	Document    string `form:"document" json:"document,omitempty"` // document UUID
	Limit       int    `form:"limit" json:"limit,omitempty"`
}

// Repository defines the interface for corpus index data access
type Repository interface {
	// Write operations
	ReplaceDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, uuid string) error

	// Read operations
	GetDocumentByUUID(ctx context.Context, uuid string) (*models.Document, error)
	GetDocumentByPath(ctx context.Context, path string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	SearchRows(ctx context.Context, q Query) ([]models.Row, error)
}

// Service defines the interface for corpus indexing and search
type Service interface {
	IndexFile(ctx context.Context, path string) (*models.Document, error)
	IndexFiles(ctx context.Context, paths []string) ([]*models.Document, error)
	IndexDoc(ctx context.Context, doc *eaf.Doc) (*models.Document, error)

	Search(ctx context.Context, q Query) ([]models.Row, error)
	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetDocument(ctx context.Context, uuid string) (*models.Document, error)
	RemoveDocument(ctx context.Context, uuid string) error
}
