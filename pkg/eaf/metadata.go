package eaf

// Attr is an XML attribute the engine does not interpret but must keep.
type Attr struct {
	Name  string
	Value string
}

// rawNode is an unrecognised element kept verbatim for re-emission.
type rawNode string

// Header carries the HEADER element.
type Header struct {
	MediaFile  string
	TimeUnits  string
	Media      []*MediaDescriptor
	Properties []*Property

	extra []Attr
	raw   []rawNode
}

// MediaDescriptor points at one media file linked to the document.
type MediaDescriptor struct {
	URL         string
	MimeType    string
	RelativeURL string

	extra []Attr
}

// Property is a free-form NAME=value pair from the header.
type Property struct {
	Name  string
	Value string
}

// Language is a LANGUAGE declaration.
type Language struct {
	ID    string
	Def   string
	Label string

	extra []Attr
}

// License is a LICENSE element.
type License struct {
	URL  string
	Text string
}

// ExternalRef is an EXTERNAL_REF element, typically pointing at an ECV file.
type ExternalRef struct {
	ID    string
	Type  string
	Value string
}

// Locale is a LOCALE element.
type Locale struct {
	LanguageCode string
	CountryCode  string

	extra []Attr
}

// Constraint declares that the document supports a stereotype.
type Constraint struct {
	Stereotype  Stereotype
	Description string
}

var defaultConstraintDescriptions = map[Stereotype]string{
	StereotypeTimeSubdivision:     "Time subdivision of parent annotation's time interval, no time gaps allowed within this interval",
	StereotypeSymbolicSubdivision: "Symbolic subdivision of a parent annotation. Annotations refering to the same parent are ordered",
	StereotypeSymbolicAssociation: "1-1 association with a parent annotation",
	StereotypeIncludedIn:          "Time alignable annotations within the parent annotation's time interval, gaps are allowed",
}
