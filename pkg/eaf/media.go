package eaf

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// Cutter extracts a time range of a media file into a new file. Nil bounds
// mean the start or end of the source.
type Cutter interface {
	Cut(ctx context.Context, source, dest string, from, to *float64) error
}

// MediaPath picks the most likely location of the source media: the relative
// URL as given, then relative to the document's directory, then MEDIA_URL
// with any file:// scheme removed.
func (d *Doc) MediaPath() string {
	rel := d.RelativeMediaURL()
	if rel != "" && isFile(rel) {
		return rel
	}
	if rel != "" && d.path != "" {
		joined := filepath.Join(filepath.Dir(d.path), rel)
		if isFile(joined) {
			return joined
		}
	}
	return strings.TrimPrefix(d.MediaURL(), "file://")
}

// Cut extracts the span of a into outfile. mediaFile overrides MediaPath.
func (d *Doc) Cut(ctx context.Context, cutter Cutter, a Annotation, outfile, mediaFile string) error {
	if cutter == nil {
		return apperrors.ValidationError("cutter", "cutter cannot be empty")
	}
	if a == nil {
		return apperrors.ValidationError("annotation", "annotation cannot be empty")
	}
	from, to, ok := Span(a)
	if !ok {
		return apperrors.InvalidMutation("annotation %s must be time-alignable", a.ID())
	}
	if mediaFile == "" {
		mediaFile = d.MediaPath()
	}
	if !isFile(mediaFile) {
		return apperrors.NotFound("media file", mediaFile)
	}
	return cutter.Cut(ctx, mediaFile, outfile, &from, &to)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
