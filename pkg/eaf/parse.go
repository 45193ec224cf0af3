package eaf

import (
	"bytes"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/sirupsen/logrus"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

const (
	xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"
	xmlNamespace = "http://www.w3.org/XML/1998/namespace"
)

var (
	docRootExpr   = xpath.MustCompile("/ANNOTATION_DOCUMENT")
	timeSlotsExpr = xpath.MustCompile("TIME_ORDER/TIME_SLOT")
)

// Read parses the EAF file at path.
func Read(path string) (*Doc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "reading %s", path)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, err
	}
	d.path = path
	return d, nil
}

// Parse builds a Doc from EAF bytes.
func Parse(data []byte) (*Doc, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader builds a Doc from an EAF stream. Structural problems are
// reported as malformed documents, dangling references as corrupted ones.
func ParseReader(r io.Reader) (*Doc, error) {
	top, err := xmlquery.Parse(r)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeMalformedDocument, "parsing XML")
	}
	root := xmlquery.QuerySelector(top, docRootExpr)
	if root == nil {
		return nil, apperrors.Malformed("missing ANNOTATION_DOCUMENT root element")
	}

	d := newDoc()
	if err := parseDocument(d, root); err != nil {
		return nil, err
	}
	if err := d.linkStructure(); err != nil {
		return nil, err
	}
	if err := d.resolveReferences(); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"tiers":       d.tiers.len(),
		"annotations": d.annotations.len(),
		"time_slots":  d.timeOrder.Len(),
	}).Debug("parsed annotation document")
	return d, nil
}

func parseDocument(d *Doc, root *xmlquery.Node) error {
	known, extra := readAttrs(root, "AUTHOR", "DATE", "FORMAT", "VERSION")
	d.author, d.date = known["AUTHOR"], known["DATE"]
	d.format, d.version = known["FORMAT"], known["VERSION"]
	d.extra = extra

	// Slots first so annotations can bind to them regardless of element order.
	for _, n := range xmlquery.QuerySelectorAll(root, timeSlotsExpr) {
		ts, err := parseTimeSlot(n)
		if err != nil {
			return err
		}
		if !d.timeOrder.add(ts) {
			return apperrors.Malformed("duplicate time slot ID %s", ts.id)
		}
	}

	for _, n := range childElements(root) {
		var err error
		switch n.Data {
		case "HEADER":
			d.header = parseHeader(n)
		case "TIME_ORDER":
		case "TIER":
			err = parseTier(d, n)
		case "LINGUISTIC_TYPE":
			err = parseLinguisticType(d, n)
		case "CONSTRAINT":
			known, _ := readAttrs(n, "STEREOTYPE", "DESCRIPTION")
			d.constraints = append(d.constraints, &Constraint{
				Stereotype:  Stereotype(known["STEREOTYPE"]),
				Description: known["DESCRIPTION"],
			})
		case "CONTROLLED_VOCABULARY":
			var cv *ControlledVocab
			if cv, err = parseVocab(n); err == nil {
				cv.doc = d
				if !d.vocabs.add(cv.id, cv) {
					err = apperrors.Malformed("duplicate controlled vocabulary ID %s", cv.id)
				}
			}
		case "LANGUAGE":
			d.languages = append(d.languages, parseLanguage(n))
		case "LOCALE":
			known, extra := readAttrs(n, "LANGUAGE_CODE", "COUNTRY_CODE")
			d.locales = append(d.locales, &Locale{
				LanguageCode: known["LANGUAGE_CODE"],
				CountryCode:  known["COUNTRY_CODE"],
				extra:        extra,
			})
		case "LICENSE":
			known, _ := readAttrs(n, "LICENSE_URL")
			d.licenses = append(d.licenses, &License{URL: known["LICENSE_URL"], Text: n.InnerText()})
		case "EXTERNAL_REF":
			known, _ := readAttrs(n, "EXT_REF_ID", "TYPE", "VALUE")
			d.externalRefs = append(d.externalRefs, &ExternalRef{
				ID:    known["EXT_REF_ID"],
				Type:  known["TYPE"],
				Value: known["VALUE"],
			})
		default:
			logrus.WithField("element", n.Data).Warn("keeping unknown document element verbatim")
			d.raw = append(d.raw, rawNode(n.OutputXML(true)))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parseHeader(n *xmlquery.Node) Header {
	known, extra := readAttrs(n, "MEDIA_FILE", "TIME_UNITS")
	h := Header{MediaFile: known["MEDIA_FILE"], TimeUnits: known["TIME_UNITS"], extra: extra}
	for _, c := range childElements(n) {
		switch c.Data {
		case "MEDIA_DESCRIPTOR":
			known, extra := readAttrs(c, "MEDIA_URL", "MIME_TYPE", "RELATIVE_MEDIA_URL")
			h.Media = append(h.Media, &MediaDescriptor{
				URL:         known["MEDIA_URL"],
				MimeType:    known["MIME_TYPE"],
				RelativeURL: known["RELATIVE_MEDIA_URL"],
				extra:       extra,
			})
		case "PROPERTY":
			h.Properties = append(h.Properties, &Property{Name: c.SelectAttr("NAME"), Value: c.InnerText()})
		default:
			h.raw = append(h.raw, rawNode(c.OutputXML(true)))
		}
	}
	return h
}

func parseTimeSlot(n *xmlquery.Node) (*TimeSlot, error) {
	known, extra := readAttrs(n, "TIME_SLOT_ID", "TIME_VALUE")
	id := known["TIME_SLOT_ID"]
	if id == "" {
		return nil, apperrors.Malformed("TIME_SLOT without TIME_SLOT_ID")
	}
	ts := &TimeSlot{id: id, extra: extra}
	if raw, ok := known["TIME_VALUE"]; ok && strings.TrimSpace(raw) != "" {
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeMalformedDocument, "time slot %s has invalid TIME_VALUE %q", id, raw)
		}
		ts.value = &v
	}
	return ts, nil
}

func parseTier(d *Doc, n *xmlquery.Node) error {
	known, extra := readAttrs(n, "TIER_ID", "LINGUISTIC_TYPE_REF", "PARTICIPANT", "PARENT_REF", "ANNOTATOR", "DEFAULT_LOCALE")
	t := &Tier{
		doc:           d,
		id:            known["TIER_ID"],
		typeRef:       known["LINGUISTIC_TYPE_REF"],
		participant:   known["PARTICIPANT"],
		parentRef:     known["PARENT_REF"],
		annotator:     known["ANNOTATOR"],
		defaultLocale: known["DEFAULT_LOCALE"],
		extra:         extra,
	}
	if t.id == "" {
		return apperrors.Malformed("TIER without TIER_ID")
	}
	if !d.tiers.add(t.id, t) {
		return apperrors.Malformed("duplicate tier ID %s", t.id)
	}
	for _, c := range childElements(n) {
		if c.Data != "ANNOTATION" {
			continue
		}
		a, err := parseAnnotation(d, t, c)
		if err != nil {
			return err
		}
		if !d.annotations.add(a.ID(), a) {
			return apperrors.Malformed("duplicate annotation ID %s", a.ID())
		}
		t.annotations = append(t.annotations, a)
	}
	return nil
}

func parseAnnotation(d *Doc, t *Tier, n *xmlquery.Node) (Annotation, error) {
	children := childElements(n)
	if len(children) == 0 {
		return nil, apperrors.Malformed("empty ANNOTATION on tier %s", t.id)
	}
	inner := children[0]

	var valueNode *xmlquery.Node
	for _, c := range childElements(inner) {
		if c.Data == "ANNOTATION_VALUE" {
			valueNode = c
			break
		}
	}
	if valueNode == nil {
		return nil, apperrors.Malformed("%s on tier %s has no ANNOTATION_VALUE", inner.Data, t.id)
	}

	switch inner.Data {
	case "ALIGNABLE_ANNOTATION":
		known, extra := readAttrs(inner, "ANNOTATION_ID", "TIME_SLOT_REF1", "TIME_SLOT_REF2", "CVE_REF")
		base := annotationBase{id: known["ANNOTATION_ID"], value: valueNode.InnerText(), cveRef: known["CVE_REF"], tier: t, extra: extra}
		if base.id == "" {
			return nil, apperrors.Malformed("ALIGNABLE_ANNOTATION without ANNOTATION_ID on tier %s", t.id)
		}
		from := d.timeOrder.Get(known["TIME_SLOT_REF1"])
		to := d.timeOrder.Get(known["TIME_SLOT_REF2"])
		if from == nil || to == nil {
			return nil, apperrors.Corrupted("annotation %s refers to unknown time slots %q and %q",
				base.id, known["TIME_SLOT_REF1"], known["TIME_SLOT_REF2"])
		}
		return &TimeAnnotation{annotationBase: base, from: from, to: to}, nil
	case "REF_ANNOTATION":
		known, extra := readAttrs(inner, "ANNOTATION_ID", "ANNOTATION_REF", "PREVIOUS_ANNOTATION", "CVE_REF")
		base := annotationBase{id: known["ANNOTATION_ID"], value: valueNode.InnerText(), cveRef: known["CVE_REF"], tier: t, extra: extra}
		if base.id == "" {
			return nil, apperrors.Malformed("REF_ANNOTATION without ANNOTATION_ID on tier %s", t.id)
		}
		if known["ANNOTATION_REF"] == "" {
			return nil, apperrors.Malformed("REF_ANNOTATION %s has no ANNOTATION_REF", base.id)
		}
		return &RefAnnotation{annotationBase: base, refID: known["ANNOTATION_REF"], previousID: known["PREVIOUS_ANNOTATION"]}, nil
	default:
		return nil, apperrors.Malformed("unknown annotation kind %s on tier %s", inner.Data, t.id)
	}
}

func parseLinguisticType(d *Doc, n *xmlquery.Node) error {
	known, extra := readAttrs(n, "LINGUISTIC_TYPE_ID", "CONSTRAINTS", "TIME_ALIGNABLE", "CONTROLLED_VOCABULARY_REF")
	lt := &LinguisticType{
		doc:           d,
		id:            known["LINGUISTIC_TYPE_ID"],
		stereotype:    Stereotype(known["CONSTRAINTS"]),
		timeAlignable: known["TIME_ALIGNABLE"] != "false",
		vocabRef:      known["CONTROLLED_VOCABULARY_REF"],
		extra:         extra,
	}
	if lt.id == "" {
		return apperrors.Malformed("LINGUISTIC_TYPE without LINGUISTIC_TYPE_ID")
	}
	if !d.types.add(lt.id, lt) {
		return apperrors.Malformed("duplicate linguistic type ID %s", lt.id)
	}
	return nil
}

func parseVocab(n *xmlquery.Node) (*ControlledVocab, error) {
	known, extra := readAttrs(n, "CV_ID")
	cv := newVocab(known["CV_ID"])
	cv.extra = extra
	if cv.id == "" {
		return nil, apperrors.Malformed("CONTROLLED_VOCABULARY without CV_ID")
	}
	for _, c := range childElements(n) {
		switch c.Data {
		case "DESCRIPTION":
			cv.descriptions = append(cv.descriptions, VocabDescription{LangRef: c.SelectAttr("LANG_REF"), Text: c.InnerText()})
		case "CV_ENTRY_ML":
			known, extra := readAttrs(c, "CVE_ID")
			entry := &CVEntry{vocab: cv, id: known["CVE_ID"], extra: extra}
			if entry.id == "" {
				return nil, apperrors.Malformed("CV_ENTRY_ML without CVE_ID in vocabulary %s", cv.id)
			}
			if cv.HasID(entry.id) {
				return nil, apperrors.Malformed("duplicate CVE_ID %s in vocabulary %s", entry.id, cv.id)
			}
			for _, v := range childElements(c) {
				if v.Data != "CVE_VALUE" {
					continue
				}
				known, extra := readAttrs(v, "LANG_REF", "DESCRIPTION")
				entry.values = append(entry.values, CVEValue{
					Value:       v.InnerText(),
					LangRef:     known["LANG_REF"],
					Description: known["DESCRIPTION"],
					extra:       extra,
				})
			}
			cv.insert(len(cv.entries), entry)
		default:
			cv.raw = append(cv.raw, rawNode(c.OutputXML(true)))
		}
	}
	return cv, nil
}

func parseLanguage(n *xmlquery.Node) *Language {
	known, extra := readAttrs(n, "LANG_ID", "LANG_DEF", "LANG_LABEL")
	return &Language{ID: known["LANG_ID"], Def: known["LANG_DEF"], Label: known["LANG_LABEL"], extra: extra}
}

func childElements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// readAttrs splits the attributes of n into the named ones and the rest,
// keeping the rest in document order.
func readAttrs(n *xmlquery.Node, names ...string) (map[string]string, []Attr) {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
	}
	known := make(map[string]string, len(names))
	var extra []Attr
	for _, a := range n.Attr {
		name := attrName(a)
		if want[name] {
			known[name] = a.Value
			continue
		}
		extra = append(extra, Attr{Name: name, Value: a.Value})
	}
	return known, extra
}

func attrName(a xmlquery.Attr) string {
	switch a.Name.Space {
	case "":
		return a.Name.Local
	case xsiNamespace:
		return "xsi:" + a.Name.Local
	case xmlNamespace:
		return "xml:" + a.Name.Local
	}
	if strings.Contains(a.Name.Space, "/") {
		return a.Name.Local
	}
	return a.Name.Space + ":" + a.Name.Local
}
