// Package export writes the flat row projection of an annotation document
// as delimited text or JSON lines.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/killallgit/eafkit/pkg/config"
	"github.com/killallgit/eafkit/pkg/eaf"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// Format names an export layout
type Format string

const (
	FormatCSV   Format = "csv"   // comma separated
	FormatTSV   Format = "tsv"   // tab separated
	FormatJSONL Format = "jsonl" // one JSON object per row
	FormatAuto  Format = ""      // delimiter from configuration
)

// Columns is the header of the delimited layout
var Columns = []string{"tier", "participant", "from", "to", "duration", "value"}

// Exporter writes rows to w
type Exporter interface {
	Export(w io.Writer, rows []eaf.Row) error
}

// DelimitedExporter writes one record per row: tier, participant, from, to,
// duration and value. Times use Precision decimals and are empty when unknown.
type DelimitedExporter struct {
	Delimiter rune
	Precision int
	Header    bool
}

// Export implements Exporter
func (e *DelimitedExporter) Export(w io.Writer, rows []eaf.Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = e.Delimiter

	if e.Header {
		if err := cw.Write(Columns); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeIO, "writing header")
		}
	}
	for _, r := range rows {
		record := []string{
			r.TierID,
			r.Participant,
			e.seconds(r.From),
			e.seconds(r.To),
			e.seconds(r.Duration),
			r.Value,
		}
		if err := cw.Write(record); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrCodeIO, "writing row %s", r.AnnotationID)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeIO, "flushing rows")
	}
	return nil
}

func (e *DelimitedExporter) seconds(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', e.Precision, 64)
}

type jsonRow struct {
	Tier         string   `json:"tier"`
	Participant  string   `json:"participant"`
	AnnotationID string   `json:"annotation_id"`
	From         *float64 `json:"from"`
	To           *float64 `json:"to"`
	Duration     *float64 `json:"duration"`
	Value        string   `json:"value"`
}

// JSONLExporter writes one JSON object per row
type JSONLExporter struct{}

// Export implements Exporter
func (JSONLExporter) Export(w io.Writer, rows []eaf.Row) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	for _, r := range rows {
		entry := jsonRow{
			Tier:         r.TierID,
			Participant:  r.Participant,
			AnnotationID: r.AnnotationID,
			From:         r.From,
			To:           r.To,
			Duration:     r.Duration,
			Value:        r.Value,
		}
		if err := encoder.Encode(entry); err != nil {
			return apperrors.Wrapf(err, apperrors.ErrCodeIO, "encoding row %s", r.AnnotationID)
		}
	}
	return nil
}

// New builds the exporter for format. Delimited formats take precision and
// header from cfg; FormatAuto also takes its delimiter from cfg.
func New(format Format, cfg config.ExportConfig) (Exporter, error) {
	switch format {
	case FormatJSONL:
		return JSONLExporter{}, nil
	case FormatCSV:
		return &DelimitedExporter{Delimiter: ',', Precision: cfg.Precision, Header: cfg.Header}, nil
	case FormatTSV:
		return &DelimitedExporter{Delimiter: '\t', Precision: cfg.Precision, Header: cfg.Header}, nil
	case FormatAuto:
		d, err := ParseDelimiter(cfg.Delimiter)
		if err != nil {
			return nil, err
		}
		return &DelimitedExporter{Delimiter: d, Precision: cfg.Precision, Header: cfg.Header}, nil
	default:
		return nil, apperrors.ValidationError("format", "unsupported export format "+strconv.Quote(string(format)))
	}
}

// ParseDelimiter accepts a single character, or the escapes `\t` and "tab".
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab", "\t":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, apperrors.ValidationError("delimiter", "must be a single character")
	}
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, apperrors.ValidationError("delimiter", "cannot be a quote or line break")
	}
	return r, nil
}

// WriteFile exports rows to path, replacing any existing file
func WriteFile(path string, exp Exporter, rows []eaf.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeIO, "creating %s", path)
	}
	if err := exp.Export(file, rows); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeIO, "closing %s", path)
	}
	return nil
}
