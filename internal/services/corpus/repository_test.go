package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/eafkit/internal/database"
	"github.com/killallgit/eafkit/internal/models"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

const testEAF = "../../../pkg/eaf/testdata/test.eaf"

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

// copyTestDoc places the fixture document in a fresh directory under name.
func copyTestDoc(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(testEAF)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func float(v float64) *float64 { return &v }

func sampleDocument(path string, texts ...string) *models.Document {
	doc := &models.Document{Path: path, Name: filepath.Base(path)}
	for i, text := range texts {
		doc.Rows = append(doc.Rows, models.Row{
			Position:     i,
			TierID:       "words",
			Participant:  "P001",
			AnnotationID: "a" + string(rune('1'+i)),
			FromSec:      float(float64(i)),
			ToSec:        float(float64(i) + 0.5),
			Text:         text,
		})
	}
	return doc
}

func TestRepository_ReplaceDocument(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t).DB)

	first := sampleDocument("/corpus/a.eaf", "hello", "world")
	require.NoError(t, repo.ReplaceDocument(ctx, first))
	require.NotEmpty(t, first.UUID)

	second := sampleDocument("/corpus/a.eaf", "goodbye")
	require.NoError(t, repo.ReplaceDocument(ctx, second))
	assert.Equal(t, first.UUID, second.UUID, "re-indexing keeps the UUID")

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	rows, err := repo.SearchRows(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "goodbye", rows[0].Text)
}

func TestRepository_Lookup(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t).DB)

	doc := sampleDocument("/corpus/b.eaf", "x")
	require.NoError(t, repo.ReplaceDocument(ctx, doc))

	byUUID, err := repo.GetDocumentByUUID(ctx, doc.UUID)
	require.NoError(t, err)
	assert.Equal(t, "/corpus/b.eaf", byUUID.Path)

	byPath, err := repo.GetDocumentByPath(ctx, "/corpus/b.eaf")
	require.NoError(t, err)
	assert.Equal(t, doc.UUID, byPath.UUID)

	_, err = repo.GetDocumentByUUID(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
	_, err = repo.GetDocumentByPath(ctx, "/nowhere.eaf")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestRepository_DeleteDocument(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	doc := sampleDocument("/corpus/c.eaf", "one", "two")
	require.NoError(t, repo.ReplaceDocument(ctx, doc))
	require.NoError(t, repo.DeleteDocument(ctx, doc.UUID))

	var count int64
	require.NoError(t, db.DB.Unscoped().Model(&models.Row{}).Count(&count).Error)
	assert.Zero(t, count, "rows are removed with their document")

	err := repo.DeleteDocument(ctx, doc.UUID)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestRepository_SearchRows(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t).DB)

	a := sampleDocument("/corpus/a.eaf", "The Apple", "banana", "100% juice")
	b := sampleDocument("/corpus/b.eaf", "apple pie", "under_score")
	b.Rows[1].TierID = "notes"
	b.Rows[1].Participant = "P002"
	require.NoError(t, repo.ReplaceDocument(ctx, a))
	require.NoError(t, repo.ReplaceDocument(ctx, b))

	texts := func(rows []models.Row) []string {
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Text)
		}
		return out
	}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{"case insensitive text", Query{Text: "APPLE"}, []string{"The Apple", "apple pie"}},
		{"percent is literal", Query{Text: "%"}, []string{"100% juice"}},
		{"underscore is literal", Query{Text: "_"}, []string{"under_score"}},
		{"tier", Query{TierID: "notes"}, []string{"under_score"}},
		{"participant", Query{Participant: "P001"}, []string{"The Apple", "banana", "100% juice", "apple pie"}},
		{"document", Query{Document: b.UUID}, []string{"apple pie", "under_score"}},
		{"limit", Query{Limit: 2}, []string{"The Apple", "banana"}},
		{"no match", Query{Text: "cherry"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := repo.SearchRows(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, texts(rows))
		})
	}

	rows, err := repo.SearchRows(ctx, Query{Text: "pie"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Document)
	assert.Equal(t, "b.eaf", rows[0].Document.Name)
}
