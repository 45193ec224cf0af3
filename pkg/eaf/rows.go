package eaf

// Row is a flat view of one annotation. Times are in seconds and nil when the
// boundary is missing or unanchored.
type Row struct {
	TierID       string
	Participant  string
	AnnotationID string
	From         *float64
	To           *float64
	Duration     *float64
	Value        string
}

// Rows flattens every annotation, tier by tier, in document order.
func (d *Doc) Rows() []Row {
	var rows []Row
	for _, t := range d.tiers.values() {
		for _, a := range t.annotations {
			rows = append(rows, newRow(t, a))
		}
	}
	return rows
}

// Rows flattens the annotations of a single tier.
func (t *Tier) Rows() []Row {
	rows := make([]Row, 0, len(t.annotations))
	for _, a := range t.annotations {
		rows = append(rows, newRow(t, a))
	}
	return rows
}

func newRow(t *Tier, a Annotation) Row {
	r := Row{TierID: t.id, Participant: t.participant, AnnotationID: a.ID(), Value: a.Value()}
	if sec, ok := a.From().Sec(); ok {
		r.From = &sec
	}
	if sec, ok := a.To().Sec(); ok {
		r.To = &sec
	}
	if ms, ok := Duration(a); ok {
		sec := float64(ms) / 1000
		r.Duration = &sec
	}
	return r
}
