// Package htmlform exposes the controls of a rendered survey page as a
// survey.FieldSet, reading and writing their state in the markup itself.
package htmlform

import (
	"fmt"
	"html"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/geoquality/surveyform/internal/survey"
)

// ParseError represents a failure to read page markup
type ParseError struct {
	Source  string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("form parse error for %s: %s: %v", e.Source, e.Message, e.Cause)
	}
	return fmt.Sprintf("form parse error for %s: %s", e.Source, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

const (
	keywordContainer = "#keyword-tags"
	keywordBadge     = ".badge"
	scoreClass       = "score-field"
	scoreGroupAttr   = "data-scoregroup"
)

// outputIDs are display-only elements that receive derived text.
var outputIDs = []string{"auto-score-suggestion"}

// Page is a parsed survey page. Control state lives in the document, so
// Render reflects every Set.
type Page struct {
	id       survey.PageID
	doc      *goquery.Document
	controls map[string]*goquery.Selection
	order    []string
}

// Parse reads page markup. id names the page for classification.
func Parse(r io.Reader, id survey.PageID) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{Source: string(id), Message: "failed to parse HTML", Cause: err}
	}

	p := &Page{id: id, doc: doc, controls: make(map[string]*goquery.Selection)}
	doc.Find("input[id], select[id], textarea[id]").Each(func(_ int, s *goquery.Selection) {
		if isButton(s) {
			return
		}
		p.add(s)
	})
	for _, oid := range outputIDs {
		if s := doc.Find("#" + oid); s.Length() > 0 {
			p.add(s.First())
		}
	}
	if doc.Find(keywordContainer).Length() > 0 {
		p.order = append(p.order, survey.KeywordsKey)
	}
	return p, nil
}

// ParseFile reads a page from disk; the page id is taken from the file name.
func ParseFile(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Source: path, Message: "failed to open page", Cause: err}
	}
	defer f.Close()
	return Parse(f, survey.PageFromPath(path))
}

func (p *Page) add(s *goquery.Selection) {
	id, _ := s.Attr("id")
	if id == "" || id == survey.KeywordsKey {
		return
	}
	if _, dup := p.controls[id]; dup {
		return
	}
	p.controls[id] = s
	p.order = append(p.order, id)
}

func isButton(s *goquery.Selection) bool {
	if goquery.NodeName(s) != "input" {
		return false
	}
	switch inputType(s) {
	case "button", "submit", "reset", "image":
		return true
	}
	return false
}

func inputType(s *goquery.Selection) string {
	t, _ := s.Attr("type")
	return strings.ToLower(strings.TrimSpace(t))
}

// ID returns the page id.
func (p *Page) ID() survey.PageID { return p.id }

// Field returns the current state of the control with id.
func (p *Page) Field(id string) (survey.Field, bool) {
	if id == survey.KeywordsKey {
		if p.doc.Find(keywordContainer).Length() == 0 {
			return survey.Field{}, false
		}
		return survey.Field{ID: id, Kind: survey.FieldList, Items: p.keywords()}, true
	}
	s, ok := p.controls[id]
	if !ok {
		return survey.Field{}, false
	}
	return readControl(id, s), true
}

// Fields lists every control in document order, keyword tags last.
func (p *Page) Fields() []survey.Field {
	out := make([]survey.Field, 0, len(p.order))
	for _, id := range p.order {
		if f, ok := p.Field(id); ok {
			out = append(out, f)
		}
	}
	return out
}

// Set writes v into the control with id.
func (p *Page) Set(id string, v survey.FieldValue) bool {
	if id == survey.KeywordsKey {
		return p.setKeywords(v.Items())
	}
	s, ok := p.controls[id]
	if !ok {
		return false
	}
	writeControl(s, v)
	return true
}

// Render writes the page markup including all control state.
func (p *Page) Render(w io.Writer) error {
	out, err := goquery.OuterHtml(p.doc.Selection)
	if err != nil {
		return fmt.Errorf("failed to render page %s: %w", p.id, err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func readControl(id string, s *goquery.Selection) survey.Field {
	f := survey.Field{ID: id}
	if s.HasClass(scoreClass) {
		f.ScoreGroup, _ = s.Attr(scoreGroupAttr)
	}

	switch goquery.NodeName(s) {
	case "select":
		f.Value = selectedOption(s)
	case "textarea":
		f.Value = s.Text()
	case "input":
		f.Value, _ = s.Attr("value")
		switch inputType(s) {
		case "checkbox":
			f.Kind = survey.FieldCheckbox
			_, f.Checked = s.Attr("checked")
		case "radio":
			f.Kind = survey.FieldRadio
			_, f.Checked = s.Attr("checked")
		}
	default:
		f.Value = strings.TrimSpace(s.Text())
	}
	return f
}

func writeControl(s *goquery.Selection, v survey.FieldValue) {
	switch goquery.NodeName(s) {
	case "select":
		selectOption(s, v.String())
	case "textarea":
		s.SetText(v.String())
	case "input":
		switch inputType(s) {
		case "checkbox", "radio":
			if v.Flag() {
				s.SetAttr("checked", "checked")
			} else {
				s.RemoveAttr("checked")
			}
		default:
			s.SetAttr("value", v.String())
		}
	default:
		s.SetText(v.String())
	}
}

func optionValue(o *goquery.Selection) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(o.Text())
}

// selectedOption mirrors a browser: the marked option, else the first one.
func selectedOption(s *goquery.Selection) string {
	opt := s.Find("option[selected]").First()
	if opt.Length() == 0 {
		opt = s.Find("option").First()
	}
	if opt.Length() == 0 {
		return ""
	}
	return optionValue(opt)
}

func selectOption(s *goquery.Selection, value string) {
	s.Find("option").Each(func(_ int, o *goquery.Selection) {
		if optionValue(o) == value {
			o.SetAttr("selected", "selected")
		} else {
			o.RemoveAttr("selected")
		}
	})
}

func (p *Page) keywords() []string {
	items := []string{}
	p.doc.Find(keywordContainer).Find(keywordBadge).Each(func(_ int, b *goquery.Selection) {
		if t := strings.TrimSpace(b.Text()); t != "" {
			items = append(items, t)
		}
	})
	return items
}

func (p *Page) setKeywords(items []string) bool {
	c := p.doc.Find(keywordContainer)
	if c.Length() == 0 {
		return false
	}
	var b strings.Builder
	for _, kw := range items {
		fmt.Fprintf(&b, `<span class="badge bg-secondary me-1" title="Click to remove">%s</span>`, html.EscapeString(kw))
	}
	c.SetHtml(b.String())
	return true
}
