package eaf

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

func TestEditTiers(t *testing.T) {
	d := readTestDoc(t)

	require.NoError(t, d.Tier("Person1 (Utterance)").SetID("Person1-Utterance"))
	for _, tier := range d.Tiers() {
		if tier.Participant() == "P001" {
			tier.SetParticipant("P999")
		}
	}
	d.Tier("marker").SetParticipant("leta")
	for _, a := range d.Tier("marker").Annotations() {
		require.NoError(t, SetValue(a, strings.Replace(a.Value(), "convo ", ":convo:", 1)))
	}

	data, err := d.Serialize(SerializeOptions{})
	require.NoError(t, err)
	d2, err := Parse(data)
	require.NoError(t, err)

	type tierRow struct{ ID, Participant, Parent string }
	var got []tierRow
	for _, tier := range d2.Tiers() {
		got = append(got, tierRow{tier.ID(), tier.Participant(), tier.ParentRef()})
	}
	assert.Equal(t, []tierRow{
		{"Person1-Utterance", "P999", ""},
		{"marker", "leta", ""},
		{"Person1 (Chunk)", "P999", "Person1-Utterance"},
		{"Person1 (ChunkLanguage)", "P999", "Person1 (Chunk)"},
		{"Person1 (Language)", "P999", "Person1-Utterance"},
	}, got)

	var markers []string
	for _, a := range d2.Tier("marker").Annotations() {
		markers = append(markers, a.Value())
	}
	assert.Equal(t, []string{":convo:start", ":convo:body", ":convo:end"}, markers)
	assert.Equal(t, d.Rows(), d2.Rows())
}

func TestRenameTier(t *testing.T) {
	d := readTestDoc(t)

	t.Run("unknown tier", func(t *testing.T) {
		err := d.RenameTier("ghost", "x")
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
	})

	t.Run("taken ID", func(t *testing.T) {
		err := d.RenameTier("marker", "Person1 (Chunk)")
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeAlreadyExists))
		assert.NotNil(t, d.Tier("marker"))
	})

	t.Run("blank ID", func(t *testing.T) {
		err := d.RenameTier("marker", " ")
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
	})

	t.Run("keeps position and children", func(t *testing.T) {
		require.NoError(t, d.RenameTier("Person1 (Chunk)", "chunks"))
		assert.Nil(t, d.Tier("Person1 (Chunk)"))
		assert.Equal(t, "chunks", d.Tiers()[2].ID())
		assert.Equal(t, "chunks", d.Tier("Person1 (ChunkLanguage)").Parent().ID())
		assert.Equal(t, "chunks", d.Annotation("a12").Tier().ID())
	})
}

func TestParticipantsAndRoots(t *testing.T) {
	d := readTestDoc(t)

	pmap := make(map[string][]string)
	for p, tiers := range d.ParticipantMap() {
		pmap[p] = tierIDs(tiers)
	}
	assert.Equal(t, map[string][]string{
		"P001": {"Person1 (Utterance)", "Person1 (Chunk)", "Person1 (ChunkLanguage)", "Person1 (Language)"},
		"":     {"marker"},
	}, pmap)
	assert.Equal(t, []string{"", "P001"}, d.Participants())
	assert.Equal(t, []string{"Person1 (Utterance)", "marker"}, tierIDs(d.Roots()))
}

func TestRows(t *testing.T) {
	d := readTestDoc(t)
	rows := d.Rows()
	require.Len(t, rows, 18)

	first := rows[0]
	assert.Equal(t, "Person1 (Utterance)", first.TierID)
	assert.Equal(t, "P001", first.Participant)
	assert.Equal(t, "a1", first.AnnotationID)
	assert.Equal(t, 1.04, *first.From)
	assert.Equal(t, 2.33, *first.To)
	assert.InDelta(t, 1.29, *first.Duration, 1e-9)
	assert.Equal(t, "How do you read this?", first.Value)

	last := rows[17]
	assert.Equal(t, "Person1 (Language)", last.TierID)
	assert.Equal(t, "en", last.Value)
	assert.Equal(t, 5.51, *last.From)

	assert.Len(t, d.Tier("marker").Rows(), 3)
}

func TestTierFilter(t *testing.T) {
	d := readTestDoc(t)
	tier := d.Tier("Person1 (Utterance)")

	from, to := int64(5000), int64(10000)
	var got []string
	for _, a := range tier.Filter(&from, &to) {
		got = append(got, a.ID())
	}
	assert.Equal(t, []string{"a3", "a4", "a5"}, got)
	assert.Len(t, tier.Filter(nil, nil), 8)
	assert.Len(t, tier.Filter(nil, &from), 2)
}

func TestCreate(t *testing.T) {
	now := time.Date(2021, 3, 4, 5, 6, 7, 0, time.FixedZone("ICT", 7*3600))

	tests := []struct {
		name      string
		opts      CreateOptions
		mediaFile string
		mediaURL  string
		relURL    string
	}{
		{"defaults from media file", CreateOptions{MediaFile: "test.wav", Author: "Le Tuan Anh"}, "test.wav", "test.wav", "test.wav"},
		{"explicit relative url", CreateOptions{MediaFile: "test.wav", RelativeMediaURL: "./test.wav"}, "test.wav", "test.wav", "./test.wav"},
		{"explicit media url", CreateOptions{MediaFile: "test.wav", MediaURL: "/home/tuananh/test.wav"}, "test.wav", "/home/tuananh/test.wav", "test.wav"},
		{"no media", CreateOptions{}, DefaultMediaFile, DefaultMediaFile, DefaultMediaFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Now = now
			d, err := Create(tt.opts)
			require.NoError(t, err)
			d, err = Parse([]byte(d.String()))
			require.NoError(t, err)

			assert.Equal(t, tt.mediaFile, d.MediaFile())
			assert.Equal(t, tt.mediaURL, d.MediaURL())
			assert.Equal(t, tt.relURL, d.RelativeMediaURL())
			assert.Equal(t, "audio/x-wav", d.MimeType())
			assert.Equal(t, tt.opts.Author, d.Author())
			assert.Equal(t, "2021-03-04T05:06:07.000000+07:00", d.Date())
			assert.Equal(t, []string{"default"}, tierIDs(d.Tiers()))
			assert.Equal(t, "default-lt", d.Tier("default").LinguisticTypeRef())
		})
	}
}

func TestCreateStructure(t *testing.T) {
	d, err := Create(CreateOptions{})
	require.NoError(t, err)

	cv, err := d.NewVocab("Fruits", "jpn")
	require.NoError(t, err)
	_, err = cv.NewEntry("ringo", WithEntryDescription("apple"))
	require.NoError(t, err)
	_, err = cv.NewEntry("ichigo", WithEntryDescription("strawberry"))
	require.NoError(t, err)

	_, err = d.NewLinguisticType("default-lt2", StereotypeNone, "")
	require.NoError(t, err)
	_, err = d.NewLinguisticType("default-ts", StereotypeTimeSubdivision, cv.ID())
	require.NoError(t, err)
	_, err = d.NewLinguisticType("default-ss", StereotypeSymbolicSubdivision, "")
	require.NoError(t, err)
	_, err = d.NewLinguisticType("default-sa", StereotypeSymbolicAssociation, "")
	require.NoError(t, err)
	_, err = d.NewLinguisticType("default-ii", StereotypeIncludedIn, "")
	require.NoError(t, err)

	_, err = d.NewTier("tier-lt2", "default-lt2")
	require.NoError(t, err)
	for _, id := range []string{"ts", "ss", "sa", "ii"} {
		_, err = d.NewTier("tier-"+id, "default-"+id, WithParent("tier-lt2"))
		require.NoError(t, err)
	}

	d, err = Parse([]byte(d.String()))
	require.NoError(t, err)

	stereotypes := map[Stereotype]bool{}
	for _, c := range d.Constraints() {
		stereotypes[c.Stereotype] = true
	}
	assert.Equal(t, map[Stereotype]bool{
		StereotypeTimeSubdivision: true, StereotypeSymbolicSubdivision: true,
		StereotypeSymbolicAssociation: true, StereotypeIncludedIn: true,
	}, stereotypes)

	type typeRow struct {
		ID         string
		Stereotype Stereotype
		Vocab      string
		Aligned    bool
	}
	var types []typeRow
	for _, lt := range d.LinguisticTypes() {
		types = append(types, typeRow{lt.ID(), lt.Stereotype(), lt.VocabRef(), lt.TimeAlignable()})
	}
	assert.Equal(t, []typeRow{
		{"default-lt", StereotypeNone, "", true},
		{"default-lt2", StereotypeNone, "", true},
		{"default-ts", StereotypeTimeSubdivision, "Fruits", true},
		{"default-ss", StereotypeSymbolicSubdivision, "", false},
		{"default-sa", StereotypeSymbolicAssociation, "", false},
		{"default-ii", StereotypeIncludedIn, "", true},
	}, types)

	type tierRow struct{ ID, Type, Parent string }
	var tiers []tierRow
	for _, tier := range d.Tiers() {
		tiers = append(tiers, tierRow{tier.ID(), tier.LinguisticTypeRef(), tier.ParentRef()})
	}
	assert.Equal(t, []tierRow{
		{"default", "default-lt", ""},
		{"tier-lt2", "default-lt2", ""},
		{"tier-ts", "default-ts", "tier-lt2"},
		{"tier-ss", "default-ss", "tier-lt2"},
		{"tier-sa", "default-sa", "tier-lt2"},
		{"tier-ii", "default-ii", "tier-lt2"},
	}, tiers)

	var entries [][3]string
	for _, e := range d.LinguisticType("default-ts").Vocab().Entries() {
		entries = append(entries, [3]string{e.Value(), e.Description(), e.LangRef()})
	}
	assert.Equal(t, [][3]string{{"ringo", "apple", "jpn"}, {"ichigo", "strawberry", "jpn"}}, entries)
}

func TestNewTierRules(t *testing.T) {
	d := readTestDoc(t)

	tests := []struct {
		name string
		id   string
		typ  string
		opts []TierOption
		code apperrors.ErrorCode
	}{
		{"blank id", "", "Utterance", nil, apperrors.ErrCodeValidation},
		{"duplicate id", "marker", "Utterance", nil, apperrors.ErrCodeAlreadyExists},
		{"unknown type", "x", "Nope", nil, apperrors.ErrCodeNotFound},
		{"unknown parent", "x", "Language", []TierOption{WithParent("ghost")}, apperrors.ErrCodeNotFound},
		{"constrained without parent", "x", "Language", nil, apperrors.ErrCodeInvalidMutation},
		{"unconstrained with parent", "x", "Utterance", []TierOption{WithParent("marker")}, apperrors.ErrCodeInvalidMutation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.NewTier(tt.id, tt.typ, tt.opts...)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.code), "got %v", err)
			assert.Len(t, d.Tiers(), 5)
		})
	}

	tier, err := d.NewTier("Person2 (Utterance)", "Utterance", WithParticipant("P002"), WithAnnotator("leta"), WithDefaultLocale("ja"))
	require.NoError(t, err)
	assert.Equal(t, "P002", tier.Participant())
	assert.Equal(t, "leta", tier.Annotator())
	assert.Equal(t, "ja", tier.DefaultLocale())
}

func TestNewLinguisticTypeRules(t *testing.T) {
	d := readTestDoc(t)

	_, err := d.NewLinguisticType("Utterance", StereotypeNone, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeAlreadyExists))

	_, err = d.NewLinguisticType("warp", Stereotype("Time_Warp"), "")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotImplemented))

	_, err = d.NewLinguisticType("x", StereotypeNone, "NoVocab")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
}

func TestMetadataRoundTrip(t *testing.T) {
	d, err := Create(CreateOptions{
		MediaFile:        "test.wav",
		MediaURL:         "file:///home/tuananh/Documents/ELAN/test.eaf",
		RelativeMediaURL: "./test.wav",
		Author:           "Le Tuan Anh",
	})
	require.NoError(t, err)

	d.SetMediaFile("new_test.wav")
	d.SetMediaURL("file:///home/tuananh/Documents/ELAN/new_test.eaf")
	d.SetRelativeMediaURL("./new_test.wav")
	d.SetDate("2021-10-29T11:39:43+08:00")
	d.SetProperty("URN", "urn:test")

	d2, err := Parse([]byte(d.String()))
	require.NoError(t, err)
	assert.Equal(t, "2021-10-29T11:39:43+08:00", d2.Date())
	assert.Equal(t, "Le Tuan Anh", d2.Author())
	assert.Equal(t, "new_test.wav", d2.MediaFile())
	assert.Equal(t, "file:///home/tuananh/Documents/ELAN/new_test.eaf", d2.MediaURL())
	assert.Equal(t, "./new_test.wav", d2.RelativeMediaURL())
	urn, _ := d2.Property("URN")
	assert.Equal(t, "urn:test", urn)
}

func TestMediaPath(t *testing.T) {
	t.Run("falls back to media url", func(t *testing.T) {
		d := readTestDoc(t)
		assert.Equal(t, "/home/tuananh/Documents/ELAN/test.wav", d.MediaPath())

		d.SetMediaURL("file:///home/user/Documents/ELAN/test2.wav")
		d.SetRelativeMediaURL("./test2.wav")
		assert.Equal(t, "/home/user/Documents/ELAN/test2.wav", d.MediaPath())
	})

	t.Run("resolves next to the document", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "test.wav"), []byte("RIFF"), 0o644))

		d := readTestDoc(t)
		require.NoError(t, d.Save(filepath.Join(dir, "test.eaf"), SerializeOptions{}))
		assert.Equal(t, filepath.Join(dir, "test.wav"), d.MediaPath())
	})
}

type recordingCutter struct {
	source, dest string
	from, to     float64
}

func (c *recordingCutter) Cut(_ context.Context, source, dest string, from, to *float64) error {
	c.source, c.dest = source, dest
	c.from, c.to = *from, *to
	return nil
}

func TestCut(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "test.wav")
	require.NoError(t, os.WriteFile(media, []byte("RIFF"), 0o644))

	d := readTestDoc(t)
	cutter := &recordingCutter{}

	t.Run("time-aligned annotation", func(t *testing.T) {
		out := filepath.Join(dir, "a1.wav")
		require.NoError(t, d.Cut(context.Background(), cutter, d.Annotation("a1"), out, media))
		assert.Equal(t, media, cutter.source)
		assert.Equal(t, out, cutter.dest)
		assert.Equal(t, 1.04, cutter.from)
		assert.Equal(t, 2.33, cutter.to)
	})

	t.Run("ref annotation uses its referent's span", func(t *testing.T) {
		require.NoError(t, d.Cut(context.Background(), cutter, d.Annotation("a17"), "out.wav", media))
		assert.Equal(t, 3.2, cutter.from)
		assert.Equal(t, 5.05, cutter.to)
	})

	t.Run("nil annotation", func(t *testing.T) {
		err := d.Cut(context.Background(), cutter, nil, "out.wav", media)
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
	})

	t.Run("nil cutter", func(t *testing.T) {
		var err error
		assert.NotPanics(t, func() {
			err = d.Cut(context.Background(), nil, d.Annotation("a1"), "out.wav", media)
		})
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation), "got %v", err)
	})

	t.Run("missing media", func(t *testing.T) {
		err := d.Cut(context.Background(), cutter, d.Annotation("a1"), "out.wav", "")
		assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))
	})
}

func TestClone(t *testing.T) {
	d := readTestDoc(t)
	c, err := d.Clone()
	require.NoError(t, err)

	require.NoError(t, c.RenameTier("marker", "markers"))
	assert.NotNil(t, d.Tier("marker"))
	assert.Equal(t, d.Path(), c.Path())
	assert.Equal(t, len(d.Rows()), len(c.Rows()))
}
