package eaf

import (
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// Tier is an ordered list of annotations of one linguistic type.
type Tier struct {
	doc           *Doc
	id            string
	typeRef       string
	participant   string
	parentRef     string
	annotator     string
	defaultLocale string
	annotations   []Annotation
	extra         []Attr
}

func (t *Tier) ID() string { return t.id }

// SetID renames the tier, updating every child's parent reference.
func (t *Tier) SetID(id string) error {
	return t.doc.RenameTier(t.id, id)
}

func (t *Tier) Participant() string { return t.participant }

func (t *Tier) SetParticipant(p string) { t.participant = p }

func (t *Tier) Annotator() string { return t.annotator }

func (t *Tier) SetAnnotator(a string) { t.annotator = a }

func (t *Tier) DefaultLocale() string { return t.defaultLocale }

func (t *Tier) LinguisticTypeRef() string { return t.typeRef }

func (t *Tier) ParentRef() string { return t.parentRef }

// LinguisticType returns the tier's type. It is never nil on a parsed document.
func (t *Tier) LinguisticType() *LinguisticType {
	return t.doc.LinguisticType(t.typeRef)
}

// Stereotype is a shortcut for the stereotype of the tier's type.
func (t *Tier) Stereotype() Stereotype {
	if lt := t.LinguisticType(); lt != nil {
		return lt.stereotype
	}
	return StereotypeNone
}

// TimeAlignable is a shortcut for the type's TIME_ALIGNABLE flag.
func (t *Tier) TimeAlignable() bool {
	if lt := t.LinguisticType(); lt != nil {
		return lt.timeAlignable
	}
	return false
}

// Vocab returns the vocabulary bound through the tier's type, or nil.
func (t *Tier) Vocab() *ControlledVocab {
	if lt := t.LinguisticType(); lt != nil {
		return lt.Vocab()
	}
	return nil
}

// Parent returns the parent tier, or nil for a root tier.
func (t *Tier) Parent() *Tier {
	if t.parentRef == "" {
		return nil
	}
	return t.doc.Tier(t.parentRef)
}

// Children returns the tiers whose parent is t, in document order.
func (t *Tier) Children() []*Tier {
	var out []*Tier
	for _, c := range t.doc.tiers.values() {
		if c.parentRef == t.id {
			out = append(out, c)
		}
	}
	return out
}

// Annotations returns a copy of the tier's annotations in order.
func (t *Tier) Annotations() []Annotation {
	out := make([]Annotation, len(t.annotations))
	copy(out, t.annotations)
	return out
}

func (t *Tier) Len() int { return len(t.annotations) }

// At returns the i-th annotation.
func (t *Tier) At(i int) Annotation { return t.annotations[i] }

// Filter returns the annotations that start inside [from, to], both given in
// milliseconds. A nil bound is open. Annotations without time boundaries are
// always kept.
func (t *Tier) Filter(from, to *int64) []Annotation {
	var out []Annotation
	for _, a := range t.annotations {
		start := a.From()
		if start != nil && from != nil && start.LessMsec(*from) {
			continue
		}
		if start != nil && to != nil && start.GreaterMsec(*to) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// checkValue validates value against the tier's vocabulary and returns the
// matching entry ID ("" when the tier has no vocabulary).
func (t *Tier) checkValue(value string) (string, error) {
	cv := t.Vocab()
	if cv == nil {
		return "", nil
	}
	entry := cv.ByValue(value)
	if entry == nil {
		return "", apperrors.InvalidMutation("value %q is not in controlled vocabulary %s", value, cv.id).
			WithDetail("tier", t.id).
			WithDetail("vocab", cv.id)
	}
	return entry.id, nil
}

func (t *Tier) String() string { return t.id }
