package transcript

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TranscriptFormat represents the format of a transcript
type TranscriptFormat string

const (
	FormatVTT  TranscriptFormat = "vtt"
	FormatSRT  TranscriptFormat = "srt"
	FormatJSON TranscriptFormat = "json"
	FormatText TranscriptFormat = "text"
)

// ParseFormat maps a user supplied name to a format.
func ParseFormat(name string) (TranscriptFormat, error) {
	switch f := TranscriptFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatVTT, FormatSRT, FormatJSON, FormatText:
		return f, nil
	case "webvtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", name)
	}
}

// Segment represents a transcript segment with timing information
type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
	// Speaker comes from a WebVTT <v> tag or a JSON "speaker" field.
	Speaker string
}

// StartMsec returns the segment start in milliseconds.
func (s Segment) StartMsec() int64 { return s.Start.Milliseconds() }

// EndMsec returns the segment end in milliseconds.
func (s Segment) EndMsec() int64 { return s.End.Milliseconds() }

// Transcript represents a parsed transcript
type Transcript struct {
	Format   TranscriptFormat
	Segments []Segment
	FullText string
	Duration time.Duration
}

// Parser handles parsing different transcript formats
type Parser struct{}

// NewParser creates a new transcript parser
func NewParser() *Parser {
	return &Parser{}
}

var (
	cueTiming = regexp.MustCompile(`^(\d{2,}:\d{2}:\d{2}[.,]\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2}[.,]\d{3})`)
	voiceTag  = regexp.MustCompile(`<v(?:\.[^\s>]+)*\s+([^>]+)>`)
	anyTag    = regexp.MustCompile(`</?[^>]+>`)
)

// Parse parses transcript content based on its format
func (p *Parser) Parse(content string, format TranscriptFormat) (*Transcript, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var (
		segments []Segment
		err      error
	)
	switch format {
	case FormatVTT, FormatSRT:
		segments, err = parseCues(content)
	case FormatJSON:
		segments, err = parseJSON(content)
	case FormatText:
		return &Transcript{Format: FormatText, FullText: strings.TrimSpace(content)}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, err
	}
	return newTranscript(format, segments), nil
}

func newTranscript(format TranscriptFormat, segments []Segment) *Transcript {
	t := &Transcript{Format: format, Segments: segments}
	texts := make([]string, 0, len(segments))
	for _, s := range segments {
		texts = append(texts, s.Text)
		if s.End > t.Duration {
			t.Duration = s.End
		}
	}
	t.FullText = strings.Join(texts, " ")
	return t
}

// parseCues reads WebVTT and SRT cue blocks. Both use a timing line followed
// by text lines; blocks are separated by blank lines.
func parseCues(content string) ([]Segment, error) {
	var (
		segments []Segment
		current  *Segment
		lines    []string
		inNote   bool
	)
	flush := func() {
		if current != nil && len(lines) > 0 {
			current.Text, current.Speaker = cleanCueText(strings.Join(lines, " "))
			segments = append(segments, *current)
		}
		current, lines = nil, nil
	}

	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
			inNote = false
		case inNote:
		case current == nil && (strings.HasPrefix(line, "WEBVTT") || strings.HasPrefix(line, "NOTE") ||
			strings.HasPrefix(line, "STYLE") || strings.HasPrefix(line, "REGION")):
			inNote = true
		case cueTiming.MatchString(line):
			flush()
			m := cueTiming.FindStringSubmatch(line)
			start, err := TSToMsec(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			end, err := TSToMsec(m[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			current = &Segment{
				Start: time.Duration(start) * time.Millisecond,
				End:   time.Duration(end) * time.Millisecond,
			}
		case current == nil:
			// cue identifier or SRT sequence number
		default:
			lines = append(lines, line)
		}
	}
	flush()
	return segments, nil
}

// cleanCueText strips markup and returns the first voice tag's speaker.
func cleanCueText(text string) (string, string) {
	var speaker string
	if m := voiceTag.FindStringSubmatch(text); m != nil {
		speaker = strings.TrimSpace(m[1])
	}
	text = anyTag.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " "), speaker
}

type jsonSegment struct {
	Start     float64 `json:"startTime"`
	StartTime float64 `json:"start_time"`
	StartAlt  float64 `json:"start"`
	End       float64 `json:"endTime"`
	EndTime   float64 `json:"end_time"`
	EndAlt    float64 `json:"end"`
	Text      string  `json:"text"`
	Body      string  `json:"body"`
	Speaker   string  `json:"speaker"`
}

func firstNonZero(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

// parseJSON accepts either a bare array of segments or {"segments": [...]}.
func parseJSON(content string) ([]Segment, error) {
	var raw []jsonSegment
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		var obj struct {
			Segments []jsonSegment `json:"segments"`
		}
		if err := json.Unmarshal([]byte(content), &obj); err != nil {
			return nil, fmt.Errorf("failed to parse JSON transcript: %w", err)
		}
		raw = obj.Segments
	}

	segments := make([]Segment, 0, len(raw))
	for _, s := range raw {
		text := s.Text
		if text == "" {
			text = s.Body
		}
		start := firstNonZero(s.Start, s.StartTime, s.StartAlt)
		end := firstNonZero(s.End, s.EndTime, s.EndAlt)
		segments = append(segments, Segment{
			Start:   time.Duration(start * float64(time.Second)).Round(time.Millisecond),
			End:     time.Duration(end * float64(time.Second)).Round(time.Millisecond),
			Text:    strings.TrimSpace(text),
			Speaker: strings.TrimSpace(s.Speaker),
		})
	}
	return segments, nil
}

// ToPlainText converts a transcript to plain text format
func (t *Transcript) ToPlainText() string {
	if t.FullText != "" {
		return t.FullText
	}
	texts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		texts = append(texts, s.Text)
	}
	return strings.Join(texts, " ")
}
