package eaf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// babyDoc builds a document with one tier per stereotype under a single
// utterance tier.
func babyDoc(t *testing.T) *Doc {
	t.Helper()
	d, err := Create(CreateOptions{MediaFile: "test.wav"})
	require.NoError(t, err)

	types := []struct {
		id string
		st Stereotype
	}{
		{"Utterance", StereotypeNone},
		{"Words", StereotypeTimeSubdivision},
		{"Tokens", StereotypeSymbolicSubdivision},
		{"Translate", StereotypeSymbolicAssociation},
		{"Phoneme", StereotypeIncludedIn},
	}
	for _, tt := range types {
		_, err := d.NewLinguisticType(tt.id, tt.st, "")
		require.NoError(t, err)
	}

	_, err = d.NewTier("Baby (Utterance)", "Utterance")
	require.NoError(t, err)
	for _, tier := range []struct{ id, typ string }{
		{"Baby (Words)", "Words"},
		{"Baby (Translate)", "Translate"},
		{"Baby (Phoneme)", "Phoneme"},
		{"Baby (Tokens)", "Tokens"},
	} {
		_, err := d.NewTier(tier.id, tier.typ, WithParent("Baby (Utterance)"))
		require.NoError(t, err)
	}
	return d
}

type annRow struct {
	ID       string
	Value    string
	From, To float64
	Ref      string
}

func annRows(tier *Tier) []annRow {
	rows := []annRow{}
	for _, a := range tier.Annotations() {
		from, _ := a.From().Sec()
		to, _ := a.To().Sec()
		r := annRow{ID: a.ID(), Value: a.Value(), From: from, To: to}
		if ra, ok := a.(*RefAnnotation); ok && ra.Ref() != nil {
			r.Ref = ra.Ref().ID()
		}
		rows = append(rows, r)
	}
	return rows
}

func TestNewAnnotationAllStereotypes(t *testing.T) {
	d := babyDoc(t)

	created, err := d.Tier("Baby (Utterance)").NewAnnotation("ano ringo tabetai", WithSpan(1123, 2456))
	require.NoError(t, err)
	require.Len(t, created, 1)
	utt := created[0]

	words, err := d.Tier("Baby (Words)").NewAnnotation("ano",
		WithValues("ringo", "tabetai"), WithTimePoints(2000, 1500), WithReferent(utt.ID()))
	require.NoError(t, err)
	assert.Len(t, words, 3)

	_, err = d.Tier("Baby (Translate)").NewAnnotation("(I) want to eat that apple", WithReferent(utt.ID()))
	require.NoError(t, err)

	_, err = d.Tier("Baby (Phoneme)").NewAnnotation("t", WithSpan(2100, 2200), WithReferent(utt.ID()))
	require.NoError(t, err)

	tokens, err := d.Tier("Baby (Tokens)").NewAnnotation("ano", WithValues("ringo", "tabetai"), WithReferent(utt.ID()))
	require.NoError(t, err)
	assert.Len(t, tokens, 3)

	slots, anns := d.TimeOrder().Len(), d.AnnotationCount()
	_, err = d.Tier("Baby (Phoneme)").NewAnnotation("t", WithSpan(1600, 2700), WithReferent(utt.ID()))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidMutation))
	assert.Equal(t, slots, d.TimeOrder().Len(), "rejected creation must not allocate slots")
	assert.Equal(t, anns, d.AnnotationCount())

	// Everything must survive a save and reload.
	data, err := d.Serialize(SerializeOptions{})
	require.NoError(t, err)
	d, err = Parse(data)
	require.NoError(t, err)

	assert.Empty(t, annRows(d.Tier("default")))
	assert.Equal(t, []annRow{{"a1", "ano ringo tabetai", 1.123, 2.456, ""}}, annRows(d.Tier("Baby (Utterance)")))
	assert.Equal(t, []annRow{
		{"a2", "ano", 1.123, 1.5, ""},
		{"a3", "ringo", 1.5, 2.0, ""},
		{"a4", "tabetai", 2.0, 2.456, ""},
	}, annRows(d.Tier("Baby (Words)")))
	assert.Equal(t, []annRow{{"a5", "(I) want to eat that apple", 1.123, 2.456, "a1"}}, annRows(d.Tier("Baby (Translate)")))
	assert.Equal(t, []annRow{{"a6", "t", 2.1, 2.2, ""}}, annRows(d.Tier("Baby (Phoneme)")))
	assert.Equal(t, []annRow{
		{"a7", "ano", 1.123, 2.456, "a1"},
		{"a8", "ringo", 1.123, 2.456, "a1"},
		{"a9", "tabetai", 1.123, 2.456, "a1"},
	}, annRows(d.Tier("Baby (Tokens)")))

	tokenTier := d.Tier("Baby (Tokens)")
	assert.Equal(t, "", tokenTier.At(0).(*RefAnnotation).PreviousID())
	assert.Equal(t, "a7", tokenTier.At(1).(*RefAnnotation).PreviousID())
	assert.Equal(t, "a8", tokenTier.At(2).(*RefAnnotation).PreviousID())

	// Time subdivision shares the referent's outer slots.
	wordTier := d.Tier("Baby (Words)")
	assert.Equal(t, d.Annotation("a1").From().ID(), wordTier.At(0).From().ID())
	assert.Equal(t, d.Annotation("a1").To().ID(), wordTier.At(2).To().ID())
}

func TestNewAnnotationRejections(t *testing.T) {
	d := babyDoc(t)
	created, err := d.Tier("Baby (Utterance)").NewAnnotation("utt", WithSpan(1000, 3000))
	require.NoError(t, err)
	utt := created[0].ID()

	tests := []struct {
		name string
		tier string
		opts []AnnotationOption
		code apperrors.ErrorCode
	}{
		{"root tier without span", "Baby (Utterance)", nil, apperrors.ErrCodeInvalidMutation},
		{"root tier reversed span", "Baby (Utterance)", []AnnotationOption{WithSpan(3000, 1000)}, apperrors.ErrCodeInvalidMutation},
		{"root tier empty span", "Baby (Utterance)", []AnnotationOption{WithSpan(1000, 1000)}, apperrors.ErrCodeInvalidMutation},
		{"unknown referent", "Baby (Translate)", []AnnotationOption{WithReferent("a404")}, apperrors.ErrCodeNotFound},
		{"association without referent", "Baby (Translate)", nil, apperrors.ErrCodeInvalidMutation},
		{"association with span", "Baby (Translate)", []AnnotationOption{WithReferent(utt), WithSpan(1000, 2000)}, apperrors.ErrCodeInvalidMutation},
		{"association with many values", "Baby (Translate)", []AnnotationOption{WithReferent(utt), WithValues("y")}, apperrors.ErrCodeInvalidMutation},
		{"included without referent", "Baby (Phoneme)", []AnnotationOption{WithSpan(1000, 2000)}, apperrors.ErrCodeInvalidMutation},
		{"included starts early", "Baby (Phoneme)", []AnnotationOption{WithReferent(utt), WithSpan(999, 2000)}, apperrors.ErrCodeInvalidMutation},
		{"subdivision with span", "Baby (Tokens)", []AnnotationOption{WithReferent(utt), WithSpan(1000, 2000)}, apperrors.ErrCodeInvalidMutation},
		{"time subdivision missing points", "Baby (Words)", []AnnotationOption{WithReferent(utt), WithValues("y", "z")}, apperrors.ErrCodeInvalidMutation},
		{"time subdivision point on boundary", "Baby (Words)", []AnnotationOption{WithReferent(utt), WithValues("y"), WithTimePoints(1000)}, apperrors.ErrCodeInvalidMutation},
		{"time subdivision point outside", "Baby (Words)", []AnnotationOption{WithReferent(utt), WithValues("y"), WithTimePoints(3500)}, apperrors.ErrCodeInvalidMutation},
		{"time subdivision duplicate points", "Baby (Words)", []AnnotationOption{WithReferent(utt), WithValues("y", "z"), WithTimePoints(2000, 2000)}, apperrors.ErrCodeInvalidMutation},
	}

	t.Run("referent off the parent tier", func(t *testing.T) {
		token, err := d.Tier("Baby (Tokens)").NewAnnotation("tok", WithReferent(utt))
		require.NoError(t, err)
		tok := token[0].ID()

		for _, tc := range []struct {
			tier string
			opts []AnnotationOption
		}{
			{"Baby (Words)", []AnnotationOption{WithReferent(tok)}},
			{"Baby (Phoneme)", []AnnotationOption{WithReferent(tok), WithSpan(1100, 1200)}},
			{"Baby (Translate)", []AnnotationOption{WithReferent(tok)}},
			{"Baby (Tokens)", []AnnotationOption{WithReferent(tok)}},
		} {
			slots, anns := d.TimeOrder().Len(), d.AnnotationCount()
			_, err := d.Tier(tc.tier).NewAnnotation("x", tc.opts...)
			require.Error(t, err, tc.tier)
			assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidMutation), "%s: got %v", tc.tier, err)
			assert.Equal(t, slots, d.TimeOrder().Len())
			assert.Equal(t, anns, d.AnnotationCount())
		}
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots, anns := d.TimeOrder().Len(), d.AnnotationCount()

			_, err := d.Tier(tt.tier).NewAnnotation("x", tt.opts...)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.code), "got %v", err)
			assert.Equal(t, apperrors.ClassInvalidMutation, apperrors.ClassOf(err))
			assert.Equal(t, slots, d.TimeOrder().Len())
			assert.Equal(t, anns, d.AnnotationCount())
		})
	}
}

func TestNewAnnotationUnsupportedStereotype(t *testing.T) {
	data := testDocWith(t, `CONSTRAINTS="Symbolic_Subdivision" GRAPHIC_REFERENCES="false" LINGUISTIC_TYPE_ID="Chunk"`,
		`CONSTRAINTS="Time_Warp" GRAPHIC_REFERENCES="false" LINGUISTIC_TYPE_ID="Chunk"`)
	d, err := Parse(data)
	require.NoError(t, err)

	_, err = d.Tier("Person1 (Chunk)").NewAnnotation("x", WithReferent("a2"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotImplemented))
}

func TestNewAnnotationVocabCheck(t *testing.T) {
	const enID = "cveid_20c62fa0-8144-44cb-b0d1-ebe9bec51cc5"
	d := readTestDoc(t)

	created, err := d.Tier("Person1 (Utterance)").NewAnnotation("test", WithSpan(1000, 2000))
	require.NoError(t, err)
	u := created[0]
	assert.Equal(t, "a19", u.ID())

	lang := d.Tier("Person1 (Language)")
	_, err = lang.NewAnnotation("test", WithReferent(u.ID()))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidMutation))

	_, err = lang.NewAnnotation("en", WithReferent(u.ID()))
	require.NoError(t, err)

	data, err := d.Serialize(SerializeOptions{})
	require.NoError(t, err)
	d, err = Parse(data)
	require.NoError(t, err)

	lang = d.Tier("Person1 (Language)")
	last := lang.At(lang.Len() - 1).(*RefAnnotation)
	assert.Equal(t, enID, last.CVERef())
	assert.Equal(t, "test", last.Ref().Value())
}

func TestSymbolicSubdivisionChain(t *testing.T) {
	t.Run("appends after existing siblings", func(t *testing.T) {
		d := readTestDoc(t)
		created, err := d.Tier("Person1 (Chunk)").NewAnnotation("まじで", WithReferent("a2"))
		require.NoError(t, err)
		require.Len(t, created, 1)
		assert.Equal(t, "a13", created[0].(*RefAnnotation).PreviousID())
	})

	t.Run("first child of a new referent has no predecessor", func(t *testing.T) {
		d := readTestDoc(t)
		created, err := d.Tier("Person1 (Chunk)").NewAnnotation("", WithValues("What", "does"), WithReferent("a3"))
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, "", created[0].(*RefAnnotation).PreviousID())
		assert.Equal(t, created[0].ID(), created[1].(*RefAnnotation).PreviousID())
	})

	t.Run("broken chain is reported", func(t *testing.T) {
		d, err := Parse(testDocWith(t, `PREVIOUS_ANNOTATION="a12"`, `PREVIOUS_ANNOTATION="a99"`))
		require.NoError(t, err)

		anns := d.AnnotationCount()
		_, err = d.Tier("Person1 (Chunk)").NewAnnotation("x", WithReferent("a2"))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeCorruptedDocument))
		assert.Equal(t, anns, d.AnnotationCount())
	})
}

func TestSetValue(t *testing.T) {
	d := readTestDoc(t)

	marker := d.Tier("marker").At(0)
	require.NoError(t, SetValue(marker, ":convo:start"))
	assert.Equal(t, ":convo:start", marker.Value())

	lang := d.Tier("Person1 (Language)").At(0)
	err := SetValue(lang, "fr")
	require.Error(t, err)
	assert.Equal(t, "en", lang.Value())

	require.NoError(t, SetValue(lang, "jp"))
	assert.Equal(t, "cveid_2fef57d6-45fc-4763-95d8-2dca63b043d7", lang.CVERef())
}
