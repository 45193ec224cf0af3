package eaf

// Stereotype is the constraint a linguistic type places on its tiers.
type Stereotype string

const (
	StereotypeNone                Stereotype = ""
	StereotypeTimeSubdivision     Stereotype = "Time_Subdivision"
	StereotypeSymbolicSubdivision Stereotype = "Symbolic_Subdivision"
	StereotypeIncludedIn          Stereotype = "Included_In"
	StereotypeSymbolicAssociation Stereotype = "Symbolic_Association"
)

// Stereotypes lists the constrained stereotypes in the order ELAN declares them.
var Stereotypes = []Stereotype{
	StereotypeTimeSubdivision,
	StereotypeSymbolicSubdivision,
	StereotypeSymbolicAssociation,
	StereotypeIncludedIn,
}

// Known reports whether the engine understands the stereotype.
func (s Stereotype) Known() bool {
	if s == StereotypeNone {
		return true
	}
	for _, k := range Stereotypes {
		if s == k {
			return true
		}
	}
	return false
}

// Constrained reports whether tiers of this stereotype need a parent.
func (s Stereotype) Constrained() bool {
	return s != StereotypeNone
}

// Symbolic reports whether annotations of this stereotype carry no time of their own.
func (s Stereotype) Symbolic() bool {
	return s == StereotypeSymbolicSubdivision || s == StereotypeSymbolicAssociation
}

func (s Stereotype) String() string {
	if s == StereotypeNone {
		return "None"
	}
	return string(s)
}

// LinguisticType is a tier class.
type LinguisticType struct {
	doc           *Doc
	id            string
	stereotype    Stereotype
	timeAlignable bool
	vocabRef      string
	extra         []Attr
}

func (lt *LinguisticType) ID() string { return lt.id }

func (lt *LinguisticType) Stereotype() Stereotype { return lt.stereotype }

func (lt *LinguisticType) TimeAlignable() bool { return lt.timeAlignable }

// VocabRef is the ID of the bound controlled vocabulary, or "".
func (lt *LinguisticType) VocabRef() string { return lt.vocabRef }

// Vocab returns the bound controlled vocabulary, or nil.
func (lt *LinguisticType) Vocab() *ControlledVocab {
	if lt.vocabRef == "" || lt.doc == nil {
		return nil
	}
	return lt.doc.Vocab(lt.vocabRef)
}

// Tiers returns every tier of this type in document order.
func (lt *LinguisticType) Tiers() []*Tier {
	if lt.doc == nil {
		return nil
	}
	var out []*Tier
	for _, t := range lt.doc.tiers.values() {
		if t.typeRef == lt.id {
			out = append(out, t)
		}
	}
	return out
}
