package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is one indexed annotation document. Path is the cleaned absolute
// path the document was read from and identifies it across re-indexing.
type Document struct {
	gorm.Model
	UUID            string    `json:"uuid" gorm:"uniqueIndex"`
	Path            string    `json:"path" gorm:"uniqueIndex;not null"`
	Name            string    `json:"name" gorm:"index"`
	Author          string    `json:"author"`
	Date            string    `json:"date"`
	MediaURL        string    `json:"media_url"`
	TierCount       int       `json:"tier_count"`
	AnnotationCount int       `json:"annotation_count"`
	IndexedAt       time.Time `json:"indexed_at"`

	Rows []Row `json:"rows,omitempty" gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate generates a UUID before creating a new document
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.UUID == "" {
		d.UUID = uuid.New().String()
	}
	return nil
}

// TableName returns the table name for the Document model
func (Document) TableName() string {
	return "documents"
}

// All lists every model of the corpus index in migration order.
func All() []any {
	return []any{&Document{}, &Row{}}
}
