// Package eaf reads, edits and writes ELAN annotation documents (EAF) and
// external controlled vocabulary files (ECV).
//
// A Doc owns every entity it contains. Entities refer to each other by ID and
// are looked up through the Doc, so renaming a tier or adding annotations
// never leaves stale pointers behind. Documents are not safe for concurrent
// mutation.
package eaf

import (
	"sort"
	"strings"
	"time"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// Doc is an in-memory annotation document.
type Doc struct {
	path string

	author  string
	date    string
	format  string
	version string
	extra   []Attr

	header Header

	timeOrder   *TimeOrder
	tiers       *registry[*Tier]
	annotations *registry[Annotation]
	types       *registry[*LinguisticType]
	vocabs      *registry[*ControlledVocab]

	constraints  []*Constraint
	languages    []*Language
	locales      []*Locale
	licenses     []*License
	externalRefs []*ExternalRef
	raw          []rawNode
}

func newDoc() *Doc {
	return &Doc{
		timeOrder:   newTimeOrder(),
		tiers:       newRegistry[*Tier](),
		annotations: newRegistry[Annotation](),
		types:       newRegistry[*LinguisticType](),
		vocabs:      newRegistry[*ControlledVocab](),
	}
}

// Path is the file the document was read from, or "".
func (d *Doc) Path() string { return d.path }

func (d *Doc) SetPath(p string) { d.path = p }

func (d *Doc) Author() string { return d.author }

func (d *Doc) SetAuthor(a string) { d.author = a }

func (d *Doc) Date() string { return d.date }

func (d *Doc) SetDate(s string) { d.date = s }

// SetDateTime stores t in ISO 8601 with its UTC offset.
func (d *Doc) SetDateTime(t time.Time) {
	d.date = t.Format("2006-01-02T15:04:05.000000-07:00")
}

func (d *Doc) Format() string { return d.format }

func (d *Doc) Version() string { return d.version }

func (d *Doc) MediaFile() string { return d.header.MediaFile }

func (d *Doc) SetMediaFile(f string) { d.header.MediaFile = f }

func (d *Doc) TimeUnits() string { return d.header.TimeUnits }

func (d *Doc) SetTimeUnits(u string) { d.header.TimeUnits = u }

// Header exposes the document header for read access.
func (d *Doc) Header() *Header { return &d.header }

func (d *Doc) media() *MediaDescriptor {
	if len(d.header.Media) == 0 {
		return nil
	}
	return d.header.Media[0]
}

func (d *Doc) mediaForWrite() *MediaDescriptor {
	if len(d.header.Media) == 0 {
		d.header.Media = append(d.header.Media, &MediaDescriptor{})
	}
	return d.header.Media[0]
}

// MediaURL is the MEDIA_URL of the first media descriptor.
func (d *Doc) MediaURL() string {
	if m := d.media(); m != nil {
		return m.URL
	}
	return ""
}

func (d *Doc) SetMediaURL(u string) { d.mediaForWrite().URL = u }

func (d *Doc) MimeType() string {
	if m := d.media(); m != nil {
		return m.MimeType
	}
	return ""
}

func (d *Doc) SetMimeType(m string) { d.mediaForWrite().MimeType = m }

func (d *Doc) RelativeMediaURL() string {
	if m := d.media(); m != nil {
		return m.RelativeURL
	}
	return ""
}

func (d *Doc) SetRelativeMediaURL(u string) { d.mediaForWrite().RelativeURL = u }

// Property returns the value of the named header property.
func (d *Doc) Property(name string) (string, bool) {
	for _, p := range d.header.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// SetProperty updates the named header property, adding it when missing.
func (d *Doc) SetProperty(name, value string) {
	for _, p := range d.header.Properties {
		if p.Name == name {
			p.Value = value
			return
		}
	}
	d.header.Properties = append(d.header.Properties, &Property{Name: name, Value: value})
}

func (d *Doc) TimeOrder() *TimeOrder { return d.timeOrder }

// NewTimeSlot creates an anchored slot with a fresh ID.
func (d *Doc) NewTimeSlot(msec int64) *TimeSlot { return d.timeOrder.New(msec) }

// Tiers returns every tier in document order.
func (d *Doc) Tiers() []*Tier { return d.tiers.values() }

// Tier looks a tier up by ID.
func (d *Doc) Tier(id string) *Tier {
	t, _ := d.tiers.get(id)
	return t
}

func (d *Doc) HasTier(id string) bool { return d.tiers.has(id) }

// Roots returns the tiers without a parent.
func (d *Doc) Roots() []*Tier {
	var out []*Tier
	for _, t := range d.tiers.values() {
		if t.parentRef == "" {
			out = append(out, t)
		}
	}
	return out
}

// ParticipantMap groups tiers by participant.
func (d *Doc) ParticipantMap() map[string][]*Tier {
	out := make(map[string][]*Tier)
	for _, t := range d.tiers.values() {
		out[t.participant] = append(out[t.participant], t)
	}
	return out
}

// Participants returns the distinct participants in sorted order.
func (d *Doc) Participants() []string {
	m := d.ParticipantMap()
	out := make([]string, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Annotation looks an annotation up by ID across all tiers.
func (d *Doc) Annotation(id string) Annotation {
	a, _ := d.annotations.get(id)
	return a
}

func (d *Doc) AnnotationCount() int { return d.annotations.len() }

// NewAnnotationID returns the next free "a" ID without reserving it.
func (d *Doc) NewAnnotationID() string { return d.annotations.probe("a", nil) }

func (d *Doc) LinguisticTypes() []*LinguisticType { return d.types.values() }

func (d *Doc) LinguisticType(id string) *LinguisticType {
	lt, _ := d.types.get(id)
	return lt
}

func (d *Doc) Vocabs() []*ControlledVocab { return d.vocabs.values() }

func (d *Doc) Vocab(id string) *ControlledVocab {
	v, _ := d.vocabs.get(id)
	return v
}

func (d *Doc) Constraints() []*Constraint { return append([]*Constraint(nil), d.constraints...) }

func (d *Doc) Languages() []*Language { return append([]*Language(nil), d.languages...) }

func (d *Doc) Licenses() []*License { return append([]*License(nil), d.licenses...) }

func (d *Doc) ExternalRefs() []*ExternalRef { return append([]*ExternalRef(nil), d.externalRefs...) }

func (d *Doc) Locales() []*Locale { return append([]*Locale(nil), d.locales...) }

// Locale returns the last declared locale, or nil.
func (d *Doc) Locale() *Locale {
	if len(d.locales) == 0 {
		return nil
	}
	return d.locales[len(d.locales)-1]
}

func (d *Doc) hasConstraint(s Stereotype) bool {
	for _, c := range d.constraints {
		if c.Stereotype == s {
			return true
		}
	}
	return false
}

// RenameTier changes a tier ID and repoints every child tier at the new ID.
func (d *Doc) RenameTier(oldID, newID string) error {
	if strings.TrimSpace(newID) == "" {
		return apperrors.ValidationError("tier_id", "tier ID cannot be blank")
	}
	t := d.Tier(oldID)
	if t == nil {
		return apperrors.NotFound("tier", oldID)
	}
	if oldID == newID {
		return nil
	}
	if d.tiers.has(newID) {
		return apperrors.AlreadyExists("tier", newID)
	}
	d.tiers.rekey(oldID, newID)
	for _, c := range d.tiers.values() {
		if c.parentRef == oldID {
			c.parentRef = newID
		}
	}
	t.id = newID
	return nil
}

// TierOption customises NewTier.
type TierOption func(*Tier)

// WithParent sets the PARENT_REF of a new tier.
func WithParent(id string) TierOption {
	return func(t *Tier) { t.parentRef = id }
}

func WithParticipant(p string) TierOption {
	return func(t *Tier) { t.participant = p }
}

func WithAnnotator(a string) TierOption {
	return func(t *Tier) { t.annotator = a }
}

func WithDefaultLocale(l string) TierOption {
	return func(t *Tier) { t.defaultLocale = l }
}

// NewTier adds an empty tier of the given linguistic type. Tiers of a
// constrained type need a parent and unconstrained ones must not have one.
func (d *Doc) NewTier(id, typeID string, opts ...TierOption) (*Tier, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationError("tier_id", "tier ID cannot be blank")
	}
	if d.tiers.has(id) {
		return nil, apperrors.AlreadyExists("tier", id)
	}
	lt := d.LinguisticType(typeID)
	if lt == nil {
		return nil, apperrors.NotFound("linguistic type", typeID)
	}
	t := &Tier{doc: d, id: id, typeRef: typeID}
	for _, opt := range opts {
		opt(t)
	}
	if t.parentRef != "" && !d.tiers.has(t.parentRef) {
		return nil, apperrors.NotFound("tier", t.parentRef)
	}
	if lt.stereotype.Constrained() && t.parentRef == "" {
		return nil, apperrors.InvalidMutation("tiers of type %s (%s) require a parent tier", typeID, lt.stereotype)
	}
	if !lt.stereotype.Constrained() && t.parentRef != "" {
		return nil, apperrors.InvalidMutation("tiers without constraints must be root level")
	}
	d.tiers.add(id, t)
	return t, nil
}

// NewLinguisticType adds a tier class. Symbolic stereotypes are never time
// alignable. A CONSTRAINT declaration is added when the document lacks one
// for the stereotype.
func (d *Doc) NewLinguisticType(id string, stereotype Stereotype, vocabID string) (*LinguisticType, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationError("linguistic_type_id", "linguistic type ID cannot be blank")
	}
	if !stereotype.Known() {
		return nil, apperrors.NotImplemented("%s is not a supported tier stereotype", stereotype)
	}
	if d.types.has(id) {
		return nil, apperrors.AlreadyExists("linguistic type", id)
	}
	if vocabID != "" && !d.vocabs.has(vocabID) {
		return nil, apperrors.NotFound("controlled vocabulary", vocabID)
	}
	lt := &LinguisticType{
		doc:           d,
		id:            id,
		stereotype:    stereotype,
		timeAlignable: !stereotype.Symbolic(),
		vocabRef:      vocabID,
		extra:         []Attr{{Name: "GRAPHIC_REFERENCES", Value: "false"}},
	}
	d.types.add(id, lt)
	if stereotype.Constrained() && !d.hasConstraint(stereotype) {
		d.constraints = append(d.constraints, &Constraint{
			Stereotype:  stereotype,
			Description: defaultConstraintDescriptions[stereotype],
		})
	}
	return lt, nil
}

// NewVocab adds an empty controlled vocabulary. lang defaults to "eng".
func (d *Doc) NewVocab(id, lang string) (*ControlledVocab, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationError("cv_id", "controlled vocabulary ID cannot be blank")
	}
	if d.vocabs.has(id) {
		return nil, apperrors.AlreadyExists("controlled vocabulary", id)
	}
	if lang == "" {
		lang = "eng"
	}
	v := newVocab(id)
	v.doc = d
	v.descriptions = []VocabDescription{{LangRef: lang}}
	d.vocabs.add(id, v)
	return v, nil
}

// NewAnnotation creates annotations on the named tier. See Tier.NewAnnotation.
func (d *Doc) NewAnnotation(tierID, value string, opts ...AnnotationOption) ([]Annotation, error) {
	t := d.Tier(tierID)
	if t == nil {
		return nil, apperrors.NotFound("tier", tierID)
	}
	return t.NewAnnotation(value, opts...)
}

// Clone returns an independent deep copy by serializing and re-parsing.
func (d *Doc) Clone() (*Doc, error) {
	data, err := d.Serialize(SerializeOptions{})
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c.path = d.path
	return c, nil
}
