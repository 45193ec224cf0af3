package eaf

import (
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// VocabDescription is one DESCRIPTION child of a vocabulary.
type VocabDescription struct {
	LangRef string
	Text    string
}

// CVEValue is one language rendering of an entry.
type CVEValue struct {
	Value       string
	LangRef     string
	Description string

	extra []Attr
}

// CVEntry is a controlled vocabulary entry. Its first value is the primary
// one used for lookups and validation.
type CVEntry struct {
	vocab  *ControlledVocab
	id     string
	values []CVEValue
	extra  []Attr
}

func (e *CVEntry) ID() string { return e.id }

// Value is the primary value.
func (e *CVEntry) Value() string {
	if len(e.values) == 0 {
		return ""
	}
	return e.values[0].Value
}

func (e *CVEntry) Description() string {
	if len(e.values) == 0 {
		return ""
	}
	return e.values[0].Description
}

func (e *CVEntry) LangRef() string {
	if len(e.values) == 0 {
		return ""
	}
	return e.values[0].LangRef
}

// Values returns every language rendering of the entry.
func (e *CVEntry) Values() []CVEValue {
	out := make([]CVEValue, len(e.values))
	copy(out, e.values)
	return out
}

// SetValue changes the primary value, keeping values unique in the
// vocabulary. Annotations carrying the entry take the new value.
func (e *CVEntry) SetValue(value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.ValidationError("value", "controlled vocabulary value cannot be blank")
	}
	if value == e.Value() {
		return nil
	}
	if e.vocab != nil {
		if _, ok := e.vocab.byValue[value]; ok {
			return apperrors.AlreadyExists("controlled vocabulary value", value)
		}
		for _, b := range e.vocab.usages(e) {
			b.value = value
			b.cveRef = e.id
		}
		delete(e.vocab.byValue, e.Value())
		e.vocab.byValue[value] = e
	}
	if len(e.values) == 0 {
		e.values = append(e.values, CVEValue{})
	}
	e.values[0].Value = value
	return nil
}

func (e *CVEntry) SetDescription(description string) {
	if len(e.values) == 0 {
		e.values = append(e.values, CVEValue{})
	}
	e.values[0].Description = description
}

func (e *CVEntry) String() string { return e.Value() }

// ControlledVocab is a closed list of allowed annotation values.
type ControlledVocab struct {
	doc          *Doc
	id           string
	descriptions []VocabDescription
	entries      []*CVEntry
	byID         map[string]*CVEntry
	byValue      map[string]*CVEntry
	extra        []Attr
	raw          []rawNode
}

func newVocab(id string) *ControlledVocab {
	return &ControlledVocab{
		id:      id,
		byID:    make(map[string]*CVEntry),
		byValue: make(map[string]*CVEntry),
	}
}

func (v *ControlledVocab) ID() string { return v.id }

// Description is the text of the last DESCRIPTION child.
func (v *ControlledVocab) Description() string {
	if len(v.descriptions) == 0 {
		return ""
	}
	return v.descriptions[len(v.descriptions)-1].Text
}

// LangRef is the language of the last DESCRIPTION child.
func (v *ControlledVocab) LangRef() string {
	if len(v.descriptions) == 0 {
		return ""
	}
	return v.descriptions[len(v.descriptions)-1].LangRef
}

func (v *ControlledVocab) Descriptions() []VocabDescription {
	out := make([]VocabDescription, len(v.descriptions))
	copy(out, v.descriptions)
	return out
}

// Entries returns the entries in order.
func (v *ControlledVocab) Entries() []*CVEntry {
	out := make([]*CVEntry, len(v.entries))
	copy(out, v.entries)
	return out
}

func (v *ControlledVocab) Len() int { return len(v.entries) }

// ByID returns the entry with the given CVE_ID, or nil.
func (v *ControlledVocab) ByID(id string) *CVEntry { return v.byID[id] }

// ByValue returns the entry with the given primary value, or nil.
func (v *ControlledVocab) ByValue(value string) *CVEntry { return v.byValue[value] }

func (v *ControlledVocab) HasID(id string) bool {
	_, ok := v.byID[id]
	return ok
}

func (v *ControlledVocab) HasValue(value string) bool {
	_, ok := v.byValue[value]
	return ok
}

// Tiers returns the tiers whose type is bound to this vocabulary.
func (v *ControlledVocab) Tiers() []*Tier {
	if v.doc == nil {
		return nil
	}
	var out []*Tier
	for _, t := range v.doc.tiers.values() {
		if lt := t.LinguisticType(); lt != nil && lt.vocabRef == v.id {
			out = append(out, t)
		}
	}
	return out
}

// EntryOption customises NewEntry.
type EntryOption func(*entryOptions)

type entryOptions struct {
	id          string
	description string
	langRef     string
	after       *CVEntry
	before      *CVEntry
}

// WithEntryID sets the CVE_ID instead of generating one.
func WithEntryID(id string) EntryOption {
	return func(o *entryOptions) { o.id = id }
}

func WithEntryDescription(d string) EntryOption {
	return func(o *entryOptions) { o.description = d }
}

func WithEntryLangRef(lang string) EntryOption {
	return func(o *entryOptions) { o.langRef = lang }
}

// After inserts the new entry right after prev.
func After(prev *CVEntry) EntryOption {
	return func(o *entryOptions) { o.after = prev }
}

// Before inserts the new entry right before next. After wins when both are set.
func Before(next *CVEntry) EntryOption {
	return func(o *entryOptions) { o.before = next }
}

// NewEntry adds a value to the vocabulary.
func (v *ControlledVocab) NewEntry(value string, opts ...EntryOption) (*CVEntry, error) {
	var o entryOptions
	for _, opt := range opts {
		opt(&o)
	}

	if strings.TrimSpace(value) == "" {
		return nil, apperrors.ValidationError("value", "controlled vocabulary value cannot be blank")
	}
	if v.HasValue(value) {
		return nil, apperrors.AlreadyExists("controlled vocabulary value", value)
	}
	if o.id != "" && v.HasID(o.id) {
		return nil, apperrors.AlreadyExists("controlled vocabulary entry", o.id)
	}
	pos := len(v.entries)
	switch {
	case o.after != nil:
		i := v.indexOf(o.after)
		if i < 0 {
			return nil, apperrors.NotFound("controlled vocabulary entry", o.after.id)
		}
		pos = i + 1
	case o.before != nil:
		i := v.indexOf(o.before)
		if i < 0 {
			return nil, apperrors.NotFound("controlled vocabulary entry", o.before.id)
		}
		pos = i
	}

	if o.id == "" {
		o.id = "cveid_" + uuid.New().String()
	}
	if o.langRef == "" {
		o.langRef = v.LangRef()
	}
	if o.langRef == "" {
		o.langRef = "und"
	}

	entry := &CVEntry{
		vocab:  v,
		id:     o.id,
		values: []CVEValue{{Value: value, LangRef: o.langRef, Description: o.description}},
	}
	v.insert(pos, entry)
	return entry, nil
}

// Remove deletes an entry from the vocabulary. An entry still used by an
// annotation on a bound tier cannot be removed.
func (v *ControlledVocab) Remove(entry *CVEntry) error {
	if entry == nil {
		return apperrors.ValidationError("entry", "is required")
	}
	i := v.indexOf(entry)
	if i < 0 {
		return apperrors.NotFound("controlled vocabulary entry", entry.id)
	}
	if used := v.usages(entry); len(used) > 0 {
		return apperrors.InvalidMutation("controlled vocabulary entry %q is used by %d annotation(s), first %s",
			entry.Value(), len(used), used[0].id)
	}
	v.entries = append(v.entries[:i], v.entries[i+1:]...)
	delete(v.byID, entry.id)
	delete(v.byValue, entry.Value())
	entry.vocab = nil
	return nil
}

// usages returns the annotations on bound tiers that carry entry, matched by
// CVE_REF or, when an annotation has none, by value.
func (v *ControlledVocab) usages(entry *CVEntry) []*annotationBase {
	var out []*annotationBase
	for _, t := range v.Tiers() {
		for _, a := range t.annotations {
			b := a.base()
			if b.cveRef == entry.id || (b.cveRef == "" && b.value == entry.Value()) {
				out = append(out, b)
			}
		}
	}
	return out
}

func (v *ControlledVocab) indexOf(entry *CVEntry) int {
	if entry == nil {
		return -1
	}
	for i, e := range v.entries {
		if e == entry {
			return i
		}
	}
	return -1
}

func (v *ControlledVocab) insert(pos int, entry *CVEntry) {
	v.entries = append(v.entries, nil)
	copy(v.entries[pos+1:], v.entries[pos:])
	v.entries[pos] = entry
	v.byID[entry.id] = entry
	if val := entry.Value(); val != "" {
		v.byValue[val] = entry
	}
}

func (v *ControlledVocab) String() string { return v.id }
