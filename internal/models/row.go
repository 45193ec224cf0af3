package models

import (
	"gorm.io/gorm"
)

// Row is one annotation of an indexed document, flattened. Times are in
// seconds and nil when the annotation has no anchored boundary.
type Row struct {
	gorm.Model
	DocumentID   uint     `json:"document_id" gorm:"not null;index"`
	Position     int      `json:"position"` // order within the document
	TierID       string   `json:"tier_id" gorm:"index"`
	Participant  string   `json:"participant" gorm:"index"`
	AnnotationID string   `json:"annotation_id"`
	FromSec      *float64 `json:"from"`
	ToSec        *float64 `json:"to"`
	DurationSec  *float64 `json:"duration"`
	Text         string   `json:"text"`

	Document *Document `json:"document,omitempty" gorm:"foreignKey:DocumentID"`
}

// TableName returns the table name for the Row model
func (Row) TableName() string {
	return "corpus_rows"
}

// TimeAligned reports whether both boundaries of the row are known.
func (r *Row) TimeAligned() bool {
	return r.FromSec != nil && r.ToSec != nil
}
