package eaf

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// lastUsedAnnotationProperty is the header property ELAN reads to continue
// annotation numbering.
const lastUsedAnnotationProperty = "lastUsedAnnotationId"

// SerializeOptions controls the XML layout.
type SerializeOptions struct {
	// Compact disables indentation.
	Compact bool
	// Indent is the per-level indent, two spaces when empty.
	Indent string
}

// element is the write-side XML tree.
type element struct {
	name     string
	attrs    []Attr
	text     string
	hasText  bool
	children []*element
	raw      rawNode
}

func newElement(name string) *element { return &element{name: name} }

// attr appends an attribute unconditionally.
func (e *element) attr(name, value string) *element {
	e.attrs = append(e.attrs, Attr{Name: name, Value: value})
	return e
}

// optAttr appends an attribute only when value is set.
func (e *element) optAttr(name, value string) *element {
	if value != "" {
		e.attrs = append(e.attrs, Attr{Name: name, Value: value})
	}
	return e
}

func (e *element) extra(attrs []Attr) *element {
	e.attrs = append(e.attrs, attrs...)
	return e
}

func (e *element) setText(s string) *element {
	e.text, e.hasText = s, true
	return e
}

func (e *element) add(children ...*element) *element {
	e.children = append(e.children, children...)
	return e
}

func (e *element) addRaw(raw []rawNode) *element {
	for _, r := range raw {
		e.children = append(e.children, &element{raw: r})
	}
	return e
}

// Serialize renders the document as EAF XML.
func (d *Doc) Serialize(opts SerializeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode renders the document to w.
func (d *Doc) Encode(w io.Writer, opts SerializeOptions) error {
	return render(w, d.project(), opts)
}

// Save writes the document to path and records path as its location.
func (d *Doc) Save(path string, opts SerializeOptions) error {
	data, err := d.Serialize(opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeIO, "writing %s", path)
	}
	d.path = path
	return nil
}

// String renders the document with default options.
func (d *Doc) String() string {
	data, err := d.Serialize(SerializeOptions{})
	if err != nil {
		return ""
	}
	return string(data)
}

// project builds the XML tree from the live model.
func (d *Doc) project() *element {
	root := newElement("ANNOTATION_DOCUMENT").
		attr("AUTHOR", d.author).
		attr("DATE", d.date).
		attr("FORMAT", d.format).
		attr("VERSION", d.version).
		extra(d.extra)

	for _, l := range d.licenses {
		el := newElement("LICENSE").optAttr("LICENSE_URL", l.URL)
		if l.Text != "" {
			el.setText(l.Text)
		}
		root.add(el)
	}

	header := newElement("HEADER").
		attr("MEDIA_FILE", d.header.MediaFile).
		optAttr("TIME_UNITS", d.header.TimeUnits).
		extra(d.header.extra)
	for _, m := range d.header.Media {
		header.add(newElement("MEDIA_DESCRIPTOR").
			attr("MEDIA_URL", m.URL).
			optAttr("MIME_TYPE", m.MimeType).
			optAttr("RELATIVE_MEDIA_URL", m.RelativeURL).
			extra(m.extra))
	}
	header.addRaw(d.header.raw)
	for _, p := range d.header.Properties {
		value := p.Value
		if p.Name == lastUsedAnnotationProperty {
			n, _ := strconv.Atoi(strings.TrimSpace(value))
			value = strconv.Itoa(max(n, d.lastUsedAnnotationID()))
		}
		header.add(newElement("PROPERTY").attr("NAME", p.Name).setText(value))
	}
	root.add(header)

	timeOrder := newElement("TIME_ORDER")
	for _, ts := range d.timeOrder.Slots() {
		el := newElement("TIME_SLOT").attr("TIME_SLOT_ID", ts.id)
		if ms, ok := ts.Msec(); ok {
			el.attr("TIME_VALUE", formatInt(ms))
		}
		timeOrder.add(el.extra(ts.extra))
	}
	root.add(timeOrder)

	for _, t := range d.tiers.values() {
		root.add(projectTier(t))
	}

	for _, lt := range d.types.values() {
		el := newElement("LINGUISTIC_TYPE").
			attr("LINGUISTIC_TYPE_ID", lt.id).
			attr("TIME_ALIGNABLE", formatBool(lt.timeAlignable)).
			optAttr("CONSTRAINTS", string(lt.stereotype)).
			optAttr("CONTROLLED_VOCABULARY_REF", lt.vocabRef).
			extra(lt.extra)
		root.add(el)
	}

	for _, l := range d.locales {
		root.add(newElement("LOCALE").
			attr("LANGUAGE_CODE", l.LanguageCode).
			optAttr("COUNTRY_CODE", l.CountryCode).
			extra(l.extra))
	}
	for _, l := range d.languages {
		root.add(projectLanguage(l))
	}
	for _, c := range d.constraints {
		root.add(newElement("CONSTRAINT").
			attr("STEREOTYPE", string(c.Stereotype)).
			optAttr("DESCRIPTION", c.Description))
	}
	for _, cv := range d.vocabs.values() {
		root.add(projectVocab(cv))
	}
	root.addRaw(d.raw)
	for _, r := range d.externalRefs {
		root.add(newElement("EXTERNAL_REF").
			attr("EXT_REF_ID", r.ID).
			attr("TYPE", r.Type).
			attr("VALUE", r.Value))
	}
	return root
}

// lastUsedAnnotationID is the highest n among "a<n>" annotation IDs.
func (d *Doc) lastUsedAnnotationID() int {
	last := 0
	for _, id := range d.annotations.keys {
		num, ok := strings.CutPrefix(id, "a")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(num); err == nil && n > last {
			last = n
		}
	}
	return last
}

func projectTier(t *Tier) *element {
	el := newElement("TIER").
		attr("TIER_ID", t.id).
		attr("LINGUISTIC_TYPE_REF", t.typeRef).
		optAttr("PARTICIPANT", t.participant).
		optAttr("PARENT_REF", t.parentRef).
		optAttr("ANNOTATOR", t.annotator).
		optAttr("DEFAULT_LOCALE", t.defaultLocale).
		extra(t.extra)

	for _, a := range t.annotations {
		var inner *element
		switch a := a.(type) {
		case *TimeAnnotation:
			inner = newElement("ALIGNABLE_ANNOTATION").
				attr("ANNOTATION_ID", a.id).
				attr("TIME_SLOT_REF1", a.from.id).
				attr("TIME_SLOT_REF2", a.to.id).
				optAttr("CVE_REF", a.cveRef).
				extra(a.extra)
		case *RefAnnotation:
			inner = newElement("REF_ANNOTATION").
				attr("ANNOTATION_ID", a.id).
				attr("ANNOTATION_REF", a.refID).
				optAttr("PREVIOUS_ANNOTATION", a.previousID).
				optAttr("CVE_REF", a.cveRef).
				extra(a.extra)
		}
		inner.add(newElement("ANNOTATION_VALUE").setText(a.Value()))
		el.add(newElement("ANNOTATION").add(inner))
	}
	return el
}

func projectVocab(cv *ControlledVocab) *element {
	el := newElement("CONTROLLED_VOCABULARY").attr("CV_ID", cv.id).extra(cv.extra)
	for _, desc := range cv.descriptions {
		d := newElement("DESCRIPTION").optAttr("LANG_REF", desc.LangRef)
		if desc.Text != "" {
			d.setText(desc.Text)
		}
		el.add(d)
	}
	for _, e := range cv.entries {
		entry := newElement("CV_ENTRY_ML").attr("CVE_ID", e.id).extra(e.extra)
		for _, v := range e.values {
			entry.add(newElement("CVE_VALUE").
				optAttr("DESCRIPTION", v.Description).
				attr("LANG_REF", v.LangRef).
				extra(v.extra).
				setText(v.Value))
		}
		el.add(entry)
	}
	return el.addRaw(cv.raw)
}

func projectLanguage(l *Language) *element {
	return newElement("LANGUAGE").
		attr("LANG_ID", l.ID).
		optAttr("LANG_DEF", l.Def).
		optAttr("LANG_LABEL", l.Label).
		extra(l.extra)
}

// render writes root with an XML declaration.
func render(w io.Writer, root *element, opts SerializeOptions) error {
	indent := opts.Indent
	if indent == "" {
		indent = "  "
	}
	if opts.Compact {
		indent = ""
	}
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	if err := writeElement(&buf, root, 0, indent, !opts.Compact); err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeIO, "writing document")
	}
	return nil
}

func writeElement(w *bytes.Buffer, e *element, depth int, indent string, pretty bool) error {
	if pretty {
		w.WriteString(strings.Repeat(indent, depth))
	}
	if e.name == "" {
		w.WriteString(string(e.raw))
		if pretty {
			w.WriteString("\n")
		}
		return nil
	}

	w.WriteString("<")
	w.WriteString(e.name)
	for _, a := range e.attrs {
		w.WriteString(" ")
		w.WriteString(a.Name)
		w.WriteString(`="`)
		if err := xml.EscapeText(w, []byte(a.Value)); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "escaping attribute")
		}
		w.WriteString(`"`)
	}

	switch {
	case len(e.children) > 0:
		w.WriteString(">")
		if pretty {
			w.WriteString("\n")
		}
		for _, c := range e.children {
			if err := writeElement(w, c, depth+1, indent, pretty); err != nil {
				return err
			}
		}
		if pretty {
			w.WriteString(strings.Repeat(indent, depth))
		}
	case e.hasText:
		w.WriteString(">")
		if err := xml.EscapeText(w, []byte(e.text)); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "escaping text")
		}
	default:
		w.WriteString("/>")
		if pretty {
			w.WriteString("\n")
		}
		return nil
	}

	w.WriteString("</")
	w.WriteString(e.name)
	w.WriteString(">")
	if pretty {
		w.WriteString("\n")
	}
	return nil
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
