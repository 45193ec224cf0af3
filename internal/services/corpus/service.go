package corpus

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/killallgit/eafkit/internal/models"
	"github.com/killallgit/eafkit/pkg/eaf"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

const (
	defaultWorkers     = 4
	defaultSearchLimit = 100
)

// ServiceImpl implements the Service interface
type ServiceImpl struct {
	repository  Repository
	workers     int
	searchLimit int
	now         func() time.Time

	// sqlite takes one writer at a time
	writeMu sync.Mutex
}

// Option configures a ServiceImpl.
type Option func(*ServiceImpl)

// WithWorkers bounds how many documents IndexFiles parses at once.
func WithWorkers(n int) Option {
	return func(s *ServiceImpl) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSearchLimit caps the rows returned by a search without its own limit.
func WithSearchLimit(n int) Option {
	return func(s *ServiceImpl) {
		if n > 0 {
			s.searchLimit = n
		}
	}
}

// NewService creates a new corpus service
func NewService(repository Repository, opts ...Option) Service {
	s := &ServiceImpl{
		repository:  repository,
		workers:     defaultWorkers,
		searchLimit: defaultSearchLimit,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IndexFile reads the document at path and indexes it
func (s *ServiceImpl) IndexFile(ctx context.Context, path string) (*models.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "resolving %s", path)
	}
	doc, err := eaf.Read(abs)
	if err != nil {
		return nil, err
	}
	return s.IndexDoc(ctx, doc)
}

// IndexFiles indexes every path with a bounded number of workers. Parsing runs
// in parallel; writes to the index are serialized. The first
// failure cancels the remaining work; documents already stored stay indexed.
func (s *ServiceImpl) IndexFiles(ctx context.Context, paths []string) ([]*models.Document, error) {
	docs := make([]*models.Document, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := s.IndexFile(ctx, path)
			if err != nil {
				logrus.WithError(err).WithField("path", path).Error("failed to index document")
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return compact(docs), err
	}
	return docs, nil
}

// IndexDoc stores the row projection of an in-memory document. The document
// must have a path; it becomes the document's identity in the index.
func (s *ServiceImpl) IndexDoc(ctx context.Context, doc *eaf.Doc) (*models.Document, error) {
	if doc == nil {
		return nil, apperrors.ValidationError("document", "is required")
	}
	if doc.Path() == "" {
		return nil, apperrors.New(apperrors.ErrCodeMissingField, "document has no path to index it under")
	}

	path, err := filepath.Abs(doc.Path())
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "resolving %s", doc.Path())
	}

	record := &models.Document{
		Path:            path,
		Name:            filepath.Base(path),
		Author:          doc.Author(),
		Date:            doc.Date(),
		MediaURL:        doc.MediaURL(),
		TierCount:       len(doc.Tiers()),
		AnnotationCount: doc.AnnotationCount(),
		IndexedAt:       s.now().UTC(),
	}
	for i, r := range doc.Rows() {
		record.Rows = append(record.Rows, newRow(i, r))
	}

	s.writeMu.Lock()
	err = s.repository.ReplaceDocument(ctx, record)
	s.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"path":        path,
		"uuid":        record.UUID,
		"tiers":       record.TierCount,
		"annotations": record.AnnotationCount,
	}).Info("indexed document")
	return record, nil
}

// Search returns matching rows. A query without a limit gets the service's
// search limit.
func (s *ServiceImpl) Search(ctx context.Context, q Query) ([]models.Row, error) {
	if q.Limit < 0 {
		return nil, apperrors.ValidationError("limit", "must not be negative")
	}
	if q.Limit == 0 {
		q.Limit = s.searchLimit
	}
	return s.repository.SearchRows(ctx, q)
}

// ListDocuments returns every indexed document
func (s *ServiceImpl) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.repository.ListDocuments(ctx)
}

// GetDocument retrieves an indexed document by UUID
func (s *ServiceImpl) GetDocument(ctx context.Context, uuid string) (*models.Document, error) {
	if uuid == "" {
		return nil, apperrors.ValidationError("uuid", "is required")
	}
	return s.repository.GetDocumentByUUID(ctx, uuid)
}

// RemoveDocument drops a document and its rows from the index
func (s *ServiceImpl) RemoveDocument(ctx context.Context, uuid string) error {
	if uuid == "" {
		return apperrors.ValidationError("uuid", "is required")
	}
	if err := s.repository.DeleteDocument(ctx, uuid); err != nil {
		return err
	}
	logrus.WithField("uuid", uuid).Info("removed document from index")
	return nil
}

func newRow(position int, r eaf.Row) models.Row {
	return models.Row{
		Position:     position,
		TierID:       r.TierID,
		Participant:  r.Participant,
		AnnotationID: r.AnnotationID,
		FromSec:      r.From,
		ToSec:        r.To,
		DurationSec:  r.Duration,
		Text:         r.Value,
	}
}

func compact(docs []*models.Document) []*models.Document {
	out := docs[:0]
	for _, d := range docs {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}
