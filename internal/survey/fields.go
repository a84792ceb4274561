package survey

// FieldKind is the control type behind a field.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldCheckbox
	FieldRadio
	FieldList
)

// IsBoolean reports whether the control holds a checked state rather than text.
func (k FieldKind) IsBoolean() bool {
	return k == FieldCheckbox || k == FieldRadio
}

// Field is a snapshot of one rendered form control.
type Field struct {
	ID         string
	Kind       FieldKind
	Value      string
	Checked    bool
	Items      []string
	ScoreGroup string
}

// CurrentValue is the value a mutation of this field persists.
func (f Field) CurrentValue() FieldValue {
	switch {
	case f.Kind.IsBoolean():
		return Bool(f.Checked)
	case f.Kind == FieldList:
		return List(f.Items)
	default:
		return Text(f.Value)
	}
}

// FieldSet is the current page's addressable form controls.
type FieldSet interface {
	// Field returns the control with id.
	Field(id string) (Field, bool)
	// Fields lists every control in document order.
	Fields() []Field
	// Set writes v into the control with id and reports whether it exists.
	Set(id string, v FieldValue) bool
}

// apply writes v into f according to the control kind.
func (f *Field) apply(v FieldValue) {
	switch {
	case f.Kind.IsBoolean():
		f.Checked = v.Flag()
	case f.Kind == FieldList:
		f.Items = v.Items()
	default:
		f.Value = v.String()
	}
}

// MemoryPage is a FieldSet held in memory.
type MemoryPage struct {
	order []string
	byID  map[string]*Field
}

// NewMemoryPage builds a page from fields; later duplicates of an id are ignored.
func NewMemoryPage(fields ...Field) *MemoryPage {
	p := &MemoryPage{byID: make(map[string]*Field, len(fields))}
	for _, f := range fields {
		p.Add(f)
	}
	return p
}

// Add appends a control unless one with the same id exists.
func (p *MemoryPage) Add(f Field) {
	if f.ID == "" {
		return
	}
	if _, exists := p.byID[f.ID]; exists {
		return
	}
	cp := f
	p.order = append(p.order, f.ID)
	p.byID[f.ID] = &cp
}

func (p *MemoryPage) Field(id string) (Field, bool) {
	f, ok := p.byID[id]
	if !ok {
		return Field{}, false
	}
	return *f, true
}

func (p *MemoryPage) Fields() []Field {
	out := make([]Field, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.byID[id])
	}
	return out
}

func (p *MemoryPage) Set(id string, v FieldValue) bool {
	f, ok := p.byID[id]
	if !ok {
		return false
	}
	f.apply(v)
	return true
}
