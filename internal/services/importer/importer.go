// Package importer turns parsed WebVTT, SRT and JSON transcripts into
// time-aligned annotations on a document tier.
package importer

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/killallgit/eafkit/pkg/eaf"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
	"github.com/killallgit/eafkit/pkg/transcript"
)

// DefaultLinguisticType is used when a missing tier has to be created.
const DefaultLinguisticType = "default-lt"

// Options controls an import.
type Options struct {
	// Format overrides format detection when set.
	Format transcript.TranscriptFormat
	// CreateTier creates the target tier when the document lacks it.
	CreateTier bool
	// LinguisticType of a created tier, DefaultLinguisticType when empty.
	// It is created without a stereotype if the document lacks it.
	LinguisticType string
	// Participant of a created tier.
	Participant string
	// SpeakerPrefix prepends "speaker: " to values that carry a speaker.
	SpeakerPrefix bool
}

// Result reports what an import changed.
type Result struct {
	Tier    string
	Format  transcript.TranscriptFormat
	Created []eaf.Annotation
	Skipped int // segments without text
}

// Importer loads transcripts and writes them into documents
type Importer struct {
	fetcher *transcript.Fetcher
	parser  *transcript.Parser
}

// New creates an importer. A nil fetcher gets the default fetch options.
func New(fetcher *transcript.Fetcher) *Importer {
	if fetcher == nil {
		fetcher = transcript.NewFetcher(transcript.DefaultFetchOptions())
	}
	return &Importer{fetcher: fetcher, parser: transcript.NewParser()}
}

// ImportSource fetches source (a path or http(s) URL), parses it and imports
// its segments into tierID.
func (i *Importer) ImportSource(ctx context.Context, doc *eaf.Doc, tierID, source string, opts Options) (*Result, error) {
	fetched, err := i.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "loading transcript %s", source)
	}
	format := fetched.Format
	if opts.Format != "" {
		format = opts.Format
	}
	tr, err := i.parser.Parse(fetched.Content, format)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeMalformedDocument, "parsing %s transcript %s", format, source)
	}
	return i.Import(doc, tierID, tr, opts)
}

// Import creates one annotation per transcript segment on tierID. The tier
// must accept free time spans, i.e. have no stereotype. Every segment is
// checked before the document is touched, so a rejected import leaves the
// document unchanged.
func (i *Importer) Import(doc *eaf.Doc, tierID string, tr *transcript.Transcript, opts Options) (*Result, error) {
	if doc == nil {
		return nil, apperrors.ValidationError("document", "is required")
	}
	if tr == nil {
		return nil, apperrors.ValidationError("transcript", "is required")
	}

	if strings.TrimSpace(tierID) == "" {
		return nil, apperrors.ValidationError("tier_id", "tier ID cannot be blank")
	}

	tier := doc.Tier(tierID)
	typeID := opts.LinguisticType
	if typeID == "" {
		typeID = DefaultLinguisticType
	}

	var cv *eaf.ControlledVocab
	switch {
	case tier != nil:
		if st := tier.Stereotype(); st != eaf.StereotypeNone {
			return nil, apperrors.InvalidMutation("tier %s (%s) does not accept transcript segments", tierID, st)
		}
		cv = tier.Vocab()
	case !opts.CreateTier:
		return nil, apperrors.NotFound("tier", tierID)
	default:
		if lt := doc.LinguisticType(typeID); lt != nil {
			if st := lt.Stereotype(); st != eaf.StereotypeNone {
				return nil, apperrors.InvalidMutation("linguistic type %s (%s) does not accept transcript segments", typeID, st)
			}
			cv = lt.Vocab()
		}
	}

	type pending struct {
		value    string
		from, to int64
	}
	var (
		work    []pending
		skipped int
	)
	for n, seg := range tr.Segments {
		value := strings.TrimSpace(seg.Text)
		if value == "" {
			skipped++
			continue
		}
		if opts.SpeakerPrefix && seg.Speaker != "" {
			value = seg.Speaker + ": " + value
		}
		from, to := seg.StartMsec(), seg.EndMsec()
		if from < 0 || from >= to {
			return nil, apperrors.InvalidMutation("segment %d has an invalid span %d-%d", n+1, from, to)
		}
		if cv != nil && !cv.HasValue(value) {
			return nil, apperrors.InvalidMutation("segment %d value %q is not in controlled vocabulary %s", n+1, value, cv.ID())
		}
		work = append(work, pending{value, from, to})
	}

	if tier == nil {
		created, err := createTier(doc, tierID, typeID, opts.Participant)
		if err != nil {
			return nil, err
		}
		tier = created
	}

	result := &Result{Tier: tier.ID(), Format: tr.Format, Skipped: skipped}
	for _, p := range work {
		anns, err := tier.NewAnnotation(p.value, eaf.WithSpan(p.from, p.to))
		if err != nil {
			return result, err
		}
		result.Created = append(result.Created, anns...)
	}

	logrus.WithFields(logrus.Fields{
		"tier":    result.Tier,
		"format":  result.Format,
		"created": len(result.Created),
		"skipped": result.Skipped,
	}).Info("imported transcript")
	return result, nil
}

func createTier(doc *eaf.Doc, tierID, typeID, participant string) (*eaf.Tier, error) {
	if doc.LinguisticType(typeID) == nil {
		if _, err := doc.NewLinguisticType(typeID, eaf.StereotypeNone, ""); err != nil {
			return nil, err
		}
	}
	var tierOpts []eaf.TierOption
	if participant != "" {
		tierOpts = append(tierOpts, eaf.WithParticipant(participant))
	}
	return doc.NewTier(tierID, typeID, tierOpts...)
}
