package eaf

// Annotation is either a *TimeAnnotation or a *RefAnnotation.
type Annotation interface {
	ID() string
	Value() string
	CVERef() string
	Tier() *Tier
	// From and To are the time boundaries. A ref annotation borrows them from
	// its referent.
	From() *TimeSlot
	To() *TimeSlot

	base() *annotationBase
}

type annotationBase struct {
	id     string
	value  string
	cveRef string
	tier   *Tier
	extra  []Attr
}

func (a *annotationBase) ID() string     { return a.id }
func (a *annotationBase) Value() string  { return a.value }
func (a *annotationBase) CVERef() string { return a.cveRef }
func (a *annotationBase) Tier() *Tier    { return a.tier }

func (a *annotationBase) base() *annotationBase { return a }

// SetValue replaces the annotation text. When the tier is bound to a
// controlled vocabulary the value must be one of its entries, and the entry
// reference is updated to match.
func SetValue(a Annotation, value string) error {
	cveRef, err := a.Tier().checkValue(value)
	if err != nil {
		return err
	}
	b := a.base()
	b.value = value
	b.cveRef = cveRef
	return nil
}

// TimeAnnotation is aligned to two time slots.
type TimeAnnotation struct {
	annotationBase
	from *TimeSlot
	to   *TimeSlot
}

func (a *TimeAnnotation) From() *TimeSlot { return a.from }
func (a *TimeAnnotation) To() *TimeSlot   { return a.to }

// RefAnnotation points at another annotation and, inside a symbolic
// subdivision, at its predecessor.
type RefAnnotation struct {
	annotationBase
	refID      string
	previousID string
	ref        Annotation
}

// RefID is the ID of the referent annotation.
func (a *RefAnnotation) RefID() string { return a.refID }

// PreviousID is the ID of the preceding sibling in a symbolic subdivision, or "".
func (a *RefAnnotation) PreviousID() string { return a.previousID }

// Ref returns the resolved referent.
func (a *RefAnnotation) Ref() Annotation { return a.ref }

func (a *RefAnnotation) From() *TimeSlot {
	if a.ref == nil {
		return nil
	}
	return a.ref.From()
}

func (a *RefAnnotation) To() *TimeSlot {
	if a.ref == nil {
		return nil
	}
	return a.ref.To()
}

// Span returns the boundaries of a in seconds. ok is false when either
// boundary is missing or unanchored.
func Span(a Annotation) (from, to float64, ok bool) {
	from, okFrom := a.From().Sec()
	to, okTo := a.To().Sec()
	return from, to, okFrom && okTo
}

// Duration returns to-from in milliseconds, reading an unanchored boundary as
// zero. ok is false when a boundary is missing altogether.
func Duration(a Annotation) (int64, bool) {
	from, to := a.From(), a.To()
	if from == nil || to == nil {
		return 0, false
	}
	return to.msecOrZero() - from.msecOrZero(), true
}

// Overlap returns min(a.to, b.to) - max(a.from, b.from) in milliseconds.
// A negative result is the gap between disjoint annotations.
func Overlap(a, b Annotation) (int64, bool) {
	if a.From() == nil || a.To() == nil || b.From() == nil || b.To() == nil {
		return 0, false
	}
	end := a.To()
	if b.To().Less(end) {
		end = b.To()
	}
	start := a.From()
	if b.From().Greater(start) {
		start = b.From()
	}
	return end.msecOrZero() - start.msecOrZero(), true
}

// TimeAligned reports whether both boundaries of a are anchored.
func TimeAligned(a Annotation) bool {
	return a.From().Anchored() && a.To().Anchored()
}
