package eaf

import (
	"sort"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// AnnotationOption customises Tier.NewAnnotation.
type AnnotationOption func(*annotationRequest)

type annotationRequest struct {
	from, to   *int64
	refID      string
	values     []string
	timePoints []int64
}

// WithSpan sets explicit boundaries in milliseconds.
func WithSpan(from, to int64) AnnotationOption {
	return func(r *annotationRequest) {
		r.from, r.to = &from, &to
	}
}

// WithReferent names the parent annotation of the new one.
func WithReferent(id string) AnnotationOption {
	return func(r *annotationRequest) { r.refID = id }
}

// WithValues appends values for subdividing tiers, one annotation each.
func WithValues(values ...string) AnnotationOption {
	return func(r *annotationRequest) { r.values = append(r.values, values...) }
}

// WithTimePoints sets the interior boundaries, in milliseconds, that split a
// referent on a time subdivision tier.
func WithTimePoints(ms ...int64) AnnotationOption {
	return func(r *annotationRequest) { r.timePoints = append(r.timePoints, ms...) }
}

// NewAnnotation creates one or more annotations according to the tier's
// stereotype:
//
//   - no stereotype and Included_In take a single value and WithSpan;
//     Included_In also needs a referent that covers the span.
//   - Symbolic_Association takes a single value and a referent.
//   - Symbolic_Subdivision appends one annotation per value after the
//     referent's existing children.
//   - Time_Subdivision splits the referent at N-1 time points for N values.
//
// For subdividing tiers the values are value followed by WithValues, unless
// value is empty and WithValues is non-empty. Either every annotation is
// created or the document is left unchanged.
func (t *Tier) NewAnnotation(value string, opts ...AnnotationOption) ([]Annotation, error) {
	var req annotationRequest
	for _, opt := range opts {
		opt(&req)
	}

	lt := t.LinguisticType()
	if lt == nil {
		return nil, apperrors.NotFound("linguistic type", t.typeRef)
	}

	var ref Annotation
	if req.refID != "" {
		if ref = t.doc.Annotation(req.refID); ref == nil {
			return nil, apperrors.NotFound("annotation", req.refID)
		}
	}

	if ref != nil && lt.stereotype.Constrained() && ref.Tier() != t.Parent() {
		return nil, apperrors.InvalidMutation("referent %s is not on tier %s, the parent of %s", ref.ID(), t.parentRef, t.id).
			WithDetail("referent", ref.ID())
	}

	switch lt.stereotype {
	case StereotypeNone, StereotypeIncludedIn:
		return t.newAlignedAnnotation(lt.stereotype, value, ref, req)
	case StereotypeSymbolicAssociation:
		return t.newAssociation(value, ref, req)
	case StereotypeSymbolicSubdivision:
		return t.newSymbolicSubdivision(value, ref, req)
	case StereotypeTimeSubdivision:
		return t.newTimeSubdivision(value, ref, req)
	default:
		return nil, apperrors.NotImplemented("creating annotations on %s tiers is not supported", lt.stereotype).
			WithDetail("tier", t.id)
	}
}

func (t *Tier) newAlignedAnnotation(st Stereotype, value string, ref Annotation, req annotationRequest) ([]Annotation, error) {
	if req.from == nil || req.to == nil {
		return nil, apperrors.InvalidMutation("annotations on tier %s need both from and to", t.id)
	}
	if len(req.values) > 0 || len(req.timePoints) > 0 {
		return nil, apperrors.InvalidMutation("tier %s takes a single value without time points", t.id)
	}
	from, to := *req.from, *req.to
	if from < 0 || from >= to {
		return nil, apperrors.InvalidMutation("invalid span %d-%d: from must be non-negative and before to", from, to)
	}
	if st == StereotypeIncludedIn {
		if ref == nil {
			return nil, apperrors.InvalidMutation("tier %s (%s) requires a referent annotation", t.id, st)
		}
		if ref.From().GreaterMsec(from) || ref.To().LessMsec(to) {
			return nil, apperrors.InvalidMutation("span %d-%d is not inside referent %s", from, to, ref.ID()).
				WithDetail("referent", ref.ID())
		}
	}
	cveRef, err := t.checkValue(value)
	if err != nil {
		return nil, err
	}

	a := &TimeAnnotation{
		annotationBase: annotationBase{id: t.doc.annotations.probe("a", nil), value: value, cveRef: cveRef, tier: t},
		from:           t.doc.timeOrder.New(from),
		to:             t.doc.timeOrder.New(to),
	}
	t.register(a)
	return []Annotation{a}, nil
}

func (t *Tier) newAssociation(value string, ref Annotation, req annotationRequest) ([]Annotation, error) {
	if err := t.rejectSpan(req); err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, apperrors.InvalidMutation("tier %s (%s) requires a referent annotation", t.id, StereotypeSymbolicAssociation)
	}
	if len(req.values) > 0 {
		return nil, apperrors.InvalidMutation("tier %s takes exactly one value per referent", t.id)
	}
	cveRef, err := t.checkValue(value)
	if err != nil {
		return nil, err
	}
	a := &RefAnnotation{
		annotationBase: annotationBase{id: t.doc.annotations.probe("a", nil), value: value, cveRef: cveRef, tier: t},
		refID:          ref.ID(),
		ref:            ref,
	}
	t.register(a)
	return []Annotation{a}, nil
}

func (t *Tier) newSymbolicSubdivision(value string, ref Annotation, req annotationRequest) ([]Annotation, error) {
	if err := t.rejectSpan(req); err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, apperrors.InvalidMutation("tier %s (%s) requires a referent annotation", t.id, StereotypeSymbolicSubdivision)
	}
	values := collectValues(value, req.values)
	cveRefs, err := t.checkValues(values)
	if err != nil {
		return nil, err
	}

	// Walk the existing chain under ref; each link must point at an earlier sibling.
	last := ""
	seen := make(map[string]bool)
	for _, a := range t.annotations {
		ra, ok := a.(*RefAnnotation)
		if !ok || ra.refID != ref.ID() {
			continue
		}
		if ra.previousID != "" && !seen[ra.previousID] {
			return nil, apperrors.Corrupted("tier %s is corrupted: annotation %s follows unknown sibling %s", t.id, ra.id, ra.previousID).
				WithDetail("tier", t.id)
		}
		seen[ra.id] = true
		last = ra.id
	}

	ids := t.doc.allocateAnnotationIDs(len(values))
	created := make([]Annotation, 0, len(values))
	for i, v := range values {
		a := &RefAnnotation{
			annotationBase: annotationBase{id: ids[i], value: v, cveRef: cveRefs[i], tier: t},
			refID:          ref.ID(),
			previousID:     last,
			ref:            ref,
		}
		t.register(a)
		created = append(created, a)
		last = a.id
	}
	return created, nil
}

func (t *Tier) newTimeSubdivision(value string, ref Annotation, req annotationRequest) ([]Annotation, error) {
	if err := t.rejectSpan(req); err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, apperrors.InvalidMutation("tier %s (%s) requires a referent annotation", t.id, StereotypeTimeSubdivision)
	}
	values := collectValues(value, req.values)
	if len(req.timePoints) != len(values)-1 {
		return nil, apperrors.InvalidMutation("%d values need exactly %d time points, got %d",
			len(values), len(values)-1, len(req.timePoints))
	}
	if !TimeAligned(ref) {
		return nil, apperrors.InvalidMutation("referent %s is not time-aligned", ref.ID())
	}
	points := append([]int64(nil), req.timePoints...)
	sort.Slice(points, func(i, j int) bool { return points[i] < points[j] })
	for i, p := range points {
		if !ref.From().LessMsec(p) || !ref.To().GreaterMsec(p) {
			return nil, apperrors.InvalidMutation("time point %d is not strictly inside referent %s", p, ref.ID()).
				WithDetail("referent", ref.ID())
		}
		if i > 0 && points[i-1] == p {
			return nil, apperrors.InvalidMutation("duplicate time point %d", p)
		}
	}
	cveRefs, err := t.checkValues(values)
	if err != nil {
		return nil, err
	}

	bounds := make([]*TimeSlot, 0, len(values)+1)
	bounds = append(bounds, ref.From())
	for _, p := range points {
		bounds = append(bounds, t.doc.timeOrder.New(p))
	}
	bounds = append(bounds, ref.To())

	ids := t.doc.allocateAnnotationIDs(len(values))
	created := make([]Annotation, 0, len(values))
	for i, v := range values {
		a := &TimeAnnotation{
			annotationBase: annotationBase{id: ids[i], value: v, cveRef: cveRefs[i], tier: t},
			from:           bounds[i],
			to:             bounds[i+1],
		}
		t.register(a)
		created = append(created, a)
	}
	return created, nil
}

func (t *Tier) rejectSpan(req annotationRequest) error {
	if req.from != nil || req.to != nil {
		return apperrors.InvalidMutation("tier %s (%s) is not time-alignable; from and to must not be given", t.id, t.Stereotype())
	}
	return nil
}

func (t *Tier) checkValues(values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, apperrors.InvalidMutation("at least one value is required")
	}
	out := make([]string, len(values))
	for i, v := range values {
		cveRef, err := t.checkValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = cveRef
	}
	return out, nil
}

func (t *Tier) register(a Annotation) {
	t.doc.annotations.add(a.ID(), a)
	t.annotations = append(t.annotations, a)
}

func collectValues(value string, more []string) []string {
	if value == "" && len(more) > 0 {
		return append([]string(nil), more...)
	}
	return append([]string{value}, more...)
}

// allocateAnnotationIDs reserves n fresh "a" IDs.
func (d *Doc) allocateAnnotationIDs(n int) []string {
	reserved := make(map[string]bool, n)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := d.annotations.probe("a", reserved)
		reserved[id] = true
		ids = append(ids, id)
	}
	return ids
}
