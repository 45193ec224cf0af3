package eaf

import (
	_ "embed"
	"path/filepath"
	"strings"
	"time"
)

//go:embed blank.eaf
var blankEAF []byte

// DefaultMediaFile is used by Create when no media file is given.
const DefaultMediaFile = "audio.wav"

var mimeTypes = map[string]string{
	".wav":  "audio/x-wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
	".mp4":  "video/mp4",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
	".mov":  "video/quicktime",
}

// CreateOptions configures a new blank document.
type CreateOptions struct {
	MediaFile        string
	MediaURL         string
	RelativeMediaURL string
	Author           string
	// Now stamps the document date; time.Now when zero.
	Now time.Time
}

// Create returns a blank document with a single "default" tier of type
// "default-lt" and the four standard constraints declared.
func Create(opts CreateOptions) (*Doc, error) {
	d, err := Parse(blankEAF)
	if err != nil {
		return nil, err
	}
	media := opts.MediaFile
	if media == "" {
		media = DefaultMediaFile
	}
	if opts.MediaURL == "" {
		opts.MediaURL = media
	}
	if opts.RelativeMediaURL == "" {
		opts.RelativeMediaURL = media
	}
	d.SetMediaFile(media)
	d.SetMediaURL(opts.MediaURL)
	d.SetRelativeMediaURL(opts.RelativeMediaURL)
	if mt, ok := mimeTypes[strings.ToLower(filepath.Ext(media))]; ok {
		d.SetMimeType(mt)
	}
	if opts.Author != "" {
		d.author = opts.Author
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	d.SetDateTime(now)
	return d, nil
}
