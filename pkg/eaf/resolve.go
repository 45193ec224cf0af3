package eaf

import (
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// linkStructure checks that every tier names an existing linguistic type and
// parent, and that every type names an existing vocabulary.
func (d *Doc) linkStructure() error {
	for _, lt := range d.types.values() {
		if lt.vocabRef != "" && !d.vocabs.has(lt.vocabRef) {
			return apperrors.Malformed("linguistic type %s refers to unknown controlled vocabulary %s", lt.id, lt.vocabRef)
		}
	}
	for _, t := range d.tiers.values() {
		if !d.types.has(t.typeRef) {
			return apperrors.Malformed("tier %s refers to unknown linguistic type %q", t.id, t.typeRef)
		}
		if t.parentRef != "" && !d.tiers.has(t.parentRef) {
			return apperrors.Malformed("tier %s refers to unknown parent tier %s", t.id, t.parentRef)
		}
	}
	return nil
}

// resolveReferences binds every ref annotation to its referent. It runs
// after all tiers are loaded so a reference may point forward in the file.
func (d *Doc) resolveReferences() error {
	for _, t := range d.tiers.values() {
		for _, a := range t.annotations {
			ra, ok := a.(*RefAnnotation)
			if !ok {
				continue
			}
			ref := d.Annotation(ra.refID)
			if ref == nil {
				return apperrors.Corrupted("annotation %s on tier %s refers to unknown annotation %s", ra.id, t.id, ra.refID).
					WithDetail("annotation", ra.id).
					WithDetail("ref", ra.refID)
			}
			ra.ref = ref
		}
	}
	return d.checkRefCycles()
}

// checkRefCycles rejects reference chains that never reach a time annotation.
func (d *Doc) checkRefCycles() error {
	done := make(map[string]bool)
	for _, a := range d.annotations.values() {
		seen := make(map[string]bool)
		for cur := a; cur != nil; {
			ra, ok := cur.(*RefAnnotation)
			if !ok || done[ra.id] {
				break
			}
			if seen[ra.id] {
				return apperrors.Corrupted("annotation %s is part of a reference cycle", ra.id)
			}
			seen[ra.id] = true
			cur = ra.ref
		}
		for id := range seen {
			done[id] = true
		}
	}
	return nil
}
