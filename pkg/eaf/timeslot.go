package eaf

import (
	"fmt"
	"math"
	"sort"
)

// TimeSlot is a named point on the media timeline. A slot without a value is
// unanchored: it only has a position relative to its neighbours.
type TimeSlot struct {
	id    string
	value *int64
	extra []Attr
}

// NewTimeSlot returns a detached slot anchored at msec.
func NewTimeSlot(id string, msec int64) *TimeSlot {
	return &TimeSlot{id: id, value: &msec}
}

// NewUnanchoredSlot returns a detached slot with no time value.
func NewUnanchoredSlot(id string) *TimeSlot {
	return &TimeSlot{id: id}
}

func (t *TimeSlot) ID() string { return t.id }

// Anchored reports whether the slot carries a time value.
func (t *TimeSlot) Anchored() bool {
	return t != nil && t.value != nil
}

// Msec returns the slot value in milliseconds.
func (t *TimeSlot) Msec() (int64, bool) {
	if !t.Anchored() {
		return 0, false
	}
	return *t.value, true
}

// Sec returns the slot value in seconds.
func (t *TimeSlot) Sec() (float64, bool) {
	ms, ok := t.Msec()
	if !ok {
		return 0, false
	}
	return float64(ms) / 1000, true
}

// TS formats the slot value as HH:MM:SS.mmm, or "" when unanchored.
func (t *TimeSlot) TS() string {
	ms, ok := t.Msec()
	if !ok {
		return ""
	}
	return FormatMsec(ms)
}

// Less orders slots by value. An unanchored slot sorts before any anchored
// one, and two unanchored slots are unordered.
func (t *TimeSlot) Less(o *TimeSlot) bool {
	if !o.Anchored() {
		return false
	}
	if !t.Anchored() {
		return true
	}
	return *t.value < *o.value
}

// Greater is the strict counterpart of Less.
func (t *TimeSlot) Greater(o *TimeSlot) bool {
	if !t.Anchored() {
		return false
	}
	if !o.Anchored() {
		return true
	}
	return *t.value > *o.value
}

// LessMsec compares the slot against a raw millisecond value. An unanchored
// slot is less than anything.
func (t *TimeSlot) LessMsec(ms int64) bool {
	if !t.Anchored() {
		return true
	}
	return *t.value < ms
}

// GreaterMsec compares the slot against a raw millisecond value. An
// unanchored slot is never greater.
func (t *TimeSlot) GreaterMsec(ms int64) bool {
	if !t.Anchored() {
		return false
	}
	return *t.value > ms
}

// msecOrZero treats an unanchored slot as time zero for arithmetic.
func (t *TimeSlot) msecOrZero() int64 {
	if ms, ok := t.Msec(); ok {
		return ms
	}
	return 0
}

func (t *TimeSlot) String() string {
	if ms, ok := t.Msec(); ok {
		return fmt.Sprintf("%s(%d)", t.id, ms)
	}
	return t.id
}

// FormatMsec renders milliseconds as HH:MM:SS.mmm.
func FormatMsec(ms int64) string {
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	h := ms / 3600000
	m := (ms / 60000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%s%02d:%02d:%02d.%03d", sign, h, m, s, ms%1000)
}

// SecToMsec rounds seconds to the nearest millisecond.
func SecToMsec(sec float64) int64 {
	return int64(math.Round(sec * 1000))
}

// TimeOrder owns every time slot of a document.
type TimeOrder struct {
	slots *registry[*TimeSlot]
}

func newTimeOrder() *TimeOrder {
	return &TimeOrder{slots: newRegistry[*TimeSlot]()}
}

// Get looks up a slot by ID.
func (o *TimeOrder) Get(id string) *TimeSlot {
	ts, _ := o.slots.get(id)
	return ts
}

func (o *TimeOrder) Len() int { return o.slots.len() }

// Slots returns the slots in document order.
func (o *TimeOrder) Slots() []*TimeSlot {
	return o.slots.values()
}

// Sorted returns the slots ordered by value with unanchored slots first.
// Ties keep document order.
func (o *TimeOrder) Sorted() []*TimeSlot {
	out := o.slots.values()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (o *TimeOrder) add(ts *TimeSlot) bool {
	return o.slots.add(ts.id, ts)
}

// New creates and registers an anchored slot with a fresh "ts" ID.
func (o *TimeOrder) New(msec int64) *TimeSlot {
	ts := NewTimeSlot(o.slots.probe("ts", nil), msec)
	o.add(ts)
	return ts
}

// allocate reserves n fresh slot IDs without registering them.
func (o *TimeOrder) allocate(n int) []string {
	reserved := make(map[string]bool, n)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := o.slots.probe("ts", reserved)
		reserved[id] = true
		ids = append(ids, id)
	}
	return ids
}
