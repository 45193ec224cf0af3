package types

import (
	"time"

	"github.com/killallgit/eafkit/internal/models"
)

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`            // One of the Status constants above
	Message string `json:"message,omitempty"` // Human-readable message
}

// ErrorResponse is sent for every failed request
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`   // Error code
	Details interface{} `json:"details,omitempty"` // Additional error details
}

// Document is the API view of an indexed document
type Document struct {
	UUID            string    `json:"uuid"`
	Name            string    `json:"name"`
	Path            string    `json:"path"`
	Author          string    `json:"author,omitempty"`
	Date            string    `json:"date,omitempty"`
	MediaURL        string    `json:"media_url,omitempty"`
	TierCount       int       `json:"tier_count"`
	AnnotationCount int       `json:"annotation_count"`
	IndexedAt       time.Time `json:"indexed_at"`
}

// Row is the API view of one indexed annotation
type Row struct {
	Document     string   `json:"document,omitempty"` // document UUID
	Position     int      `json:"position"`
	TierID       string   `json:"tier"`
	Participant  string   `json:"participant"`
	AnnotationID string   `json:"annotation_id"`
	From         *float64 `json:"from"`
	To           *float64 `json:"to"`
	Duration     *float64 `json:"duration"`
	Text         string   `json:"text"`
}

// DocumentsResponse lists indexed documents
type DocumentsResponse struct {
	BaseResponse
	Documents []Document `json:"documents"`
	Count     int        `json:"count"`
}

// DocumentResponse wraps a single document
type DocumentResponse struct {
	BaseResponse
	Document Document `json:"document"`
}

// RowsResponse carries search results
type RowsResponse struct {
	BaseResponse
	Rows  []Row `json:"rows"`
	Query any   `json:"query,omitempty"`
	Count int   `json:"count"`
}

// FromDocument converts a stored document
func FromDocument(d *models.Document) Document {
	return Document{
		UUID:            d.UUID,
		Name:            d.Name,
		Path:            d.Path,
		Author:          d.Author,
		Date:            d.Date,
		MediaURL:        d.MediaURL,
		TierCount:       d.TierCount,
		AnnotationCount: d.AnnotationCount,
		IndexedAt:       d.IndexedAt,
	}
}

// FromRows converts stored rows
func FromRows(rows []models.Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		row := Row{
			Position:     r.Position,
			TierID:       r.TierID,
			Participant:  r.Participant,
			AnnotationID: r.AnnotationID,
			From:         r.FromSec,
			To:           r.ToSec,
			Duration:     r.DurationSec,
			Text:         r.Text,
		}
		if r.Document != nil {
			row.Document = r.Document.UUID
		}
		out = append(out, row)
	}
	return out
}
