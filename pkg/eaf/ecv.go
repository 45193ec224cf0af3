package eaf

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

var ecvRootExpr = xpath.MustCompile("/CV_RESOURCE")

// ExternalVocabResource is an ECV file: a set of controlled vocabularies
// shared between documents.
type ExternalVocabResource struct {
	path      string
	author    string
	date      string
	version   string
	extra     []Attr
	languages []*Language
	vocabs    *registry[*ControlledVocab]
	raw       []rawNode
}

// ReadECV parses the ECV file at path.
func ReadECV(path string) (*ExternalVocabResource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "reading %s", path)
	}
	r, err := ParseECV(data)
	if err != nil {
		return nil, err
	}
	r.path = path
	return r, nil
}

// ParseECV builds an ExternalVocabResource from ECV bytes.
func ParseECV(data []byte) (*ExternalVocabResource, error) {
	return ParseECVReader(bytes.NewReader(data))
}

func ParseECVReader(r io.Reader) (*ExternalVocabResource, error) {
	top, err := xmlquery.Parse(r)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeMalformedDocument, "parsing XML")
	}
	root := xmlquery.QuerySelector(top, ecvRootExpr)
	if root == nil {
		return nil, apperrors.Malformed("missing CV_RESOURCE root element")
	}

	known, extra := readAttrs(root, "AUTHOR", "DATE", "VERSION")
	res := &ExternalVocabResource{
		author:  known["AUTHOR"],
		date:    known["DATE"],
		version: known["VERSION"],
		extra:   extra,
		vocabs:  newRegistry[*ControlledVocab](),
	}
	for _, n := range childElements(root) {
		switch n.Data {
		case "LANGUAGE":
			res.languages = append(res.languages, parseLanguage(n))
		case "CONTROLLED_VOCABULARY":
			cv, err := parseVocab(n)
			if err != nil {
				return nil, err
			}
			if !res.vocabs.add(cv.id, cv) {
				return nil, apperrors.Malformed("duplicate controlled vocabulary ID %s", cv.id)
			}
		default:
			res.raw = append(res.raw, rawNode(n.OutputXML(true)))
		}
	}
	return res, nil
}

func (r *ExternalVocabResource) Path() string { return r.path }

func (r *ExternalVocabResource) Author() string { return r.author }

func (r *ExternalVocabResource) SetAuthor(a string) { r.author = a }

func (r *ExternalVocabResource) Date() string { return r.date }

func (r *ExternalVocabResource) SetDate(d string) { r.date = d }

func (r *ExternalVocabResource) Version() string { return r.version }

// SchemaLocation is the xsi:noNamespaceSchemaLocation of the root element.
func (r *ExternalVocabResource) SchemaLocation() string {
	for _, a := range r.extra {
		if strings.HasSuffix(a.Name, ":noNamespaceSchemaLocation") {
			return a.Value
		}
	}
	return ""
}

func (r *ExternalVocabResource) Languages() []*Language {
	return append([]*Language(nil), r.languages...)
}

func (r *ExternalVocabResource) Vocabs() []*ControlledVocab { return r.vocabs.values() }

func (r *ExternalVocabResource) Vocab(id string) *ControlledVocab {
	v, _ := r.vocabs.get(id)
	return v
}

// NewVocab adds an empty vocabulary to the resource.
func (r *ExternalVocabResource) NewVocab(id, lang string) (*ControlledVocab, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationError("cv_id", "controlled vocabulary ID cannot be blank")
	}
	if r.vocabs.has(id) {
		return nil, apperrors.AlreadyExists("controlled vocabulary", id)
	}
	if lang == "" {
		lang = "eng"
	}
	v := newVocab(id)
	v.descriptions = []VocabDescription{{LangRef: lang}}
	r.vocabs.add(id, v)
	return v, nil
}

// Serialize renders the resource as ECV XML.
func (r *ExternalVocabResource) Serialize(opts SerializeOptions) ([]byte, error) {
	root := newElement("CV_RESOURCE").
		attr("AUTHOR", r.author).
		attr("DATE", r.date).
		attr("VERSION", r.version).
		extra(r.extra)
	for _, l := range r.languages {
		root.add(projectLanguage(l))
	}
	for _, cv := range r.vocabs.values() {
		root.add(projectVocab(cv))
	}
	root.addRaw(r.raw)

	var buf bytes.Buffer
	if err := render(&buf, root, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the resource to path.
func (r *ExternalVocabResource) Save(path string, opts SerializeOptions) error {
	data, err := r.Serialize(opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeIO, "writing %s", path)
	}
	r.path = path
	return nil
}
