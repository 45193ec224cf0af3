package corpus

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/killallgit/eafkit/internal/models"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// RepositoryImpl implements the Repository interface
type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new corpus repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// ReplaceDocument stores doc and its rows, dropping whatever was indexed
// before under the same path. The document keeps its UUID across re-indexing.
func (r *RepositoryImpl) ReplaceDocument(ctx context.Context, doc *models.Document) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Document
		err := tx.Unscoped().Where("path = ?", doc.Path).First(&existing).Error
		switch {
		case err == nil:
			if doc.UUID == "" {
				doc.UUID = existing.UUID
			}
			if err := tx.Unscoped().Where("document_id = ?", existing.ID).Delete(&models.Row{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Delete(&existing).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Create(doc).Error
	})
	if err != nil {
		return apperrors.DatabaseError("storing document", err).WithDetail("path", doc.Path)
	}
	return nil
}

// DeleteDocument removes a document and its rows
func (r *RepositoryImpl) DeleteDocument(ctx context.Context, uuid string) error {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.Where("uuid = ?", uuid).First(&doc).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("document_id = ?", doc.ID).Delete(&models.Row{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&doc)
		deleted = result.RowsAffected
		return result.Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && deleted == 0) {
		return apperrors.NotFound("document", uuid)
	}
	if err != nil {
		return apperrors.DatabaseError("deleting document", err)
	}
	return nil
}

// GetDocumentByUUID retrieves a document by its UUID
func (r *RepositoryImpl) GetDocumentByUUID(ctx context.Context, uuid string) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("document", uuid)
		}
		return nil, apperrors.DatabaseError("getting document", err)
	}
	return &doc, nil
}

// GetDocumentByPath retrieves a document by the path it was indexed from
func (r *RepositoryImpl) GetDocumentByPath(ctx context.Context, path string) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).Where("path = ?", path).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("document", path)
		}
		return nil, apperrors.DatabaseError("getting document", err)
	}
	return &doc, nil
}

// ListDocuments returns every indexed document ordered by name
func (r *RepositoryImpl) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	if err := r.db.WithContext(ctx).Order("name ASC, path ASC").Find(&docs).Error; err != nil {
		return nil, apperrors.DatabaseError("listing documents", err)
	}
	return docs, nil
}

// SearchRows returns the rows matching q, in document then position order.
// Text matches case-insensitively anywhere in the annotation value.
func (r *RepositoryImpl) SearchRows(ctx context.Context, q Query) ([]models.Row, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Row{}).
		Preload("Document").
		Joins("JOIN documents ON documents.id = corpus_rows.document_id AND documents.deleted_at IS NULL")

	if text := strings.TrimSpace(q.Text); text != "" {
		tx = tx.Where("LOWER(corpus_rows.text) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(text))+"%")
	}
	if q.TierID != "" {
		tx = tx.Where("corpus_rows.tier_id = ?", q.TierID)
	}
	if q.Participant != "" {
		tx = tx.Where("corpus_rows.participant = ?", q.Participant)
	}
	if q.Document != "" {
		tx = tx.Where("documents.uuid = ?", q.Document)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []models.Row
	if err := tx.Order("documents.name ASC, corpus_rows.document_id ASC, corpus_rows.position ASC").Find(&rows).Error; err != nil {
		return nil, apperrors.DatabaseError("searching rows", err)
	}
	return rows, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
