package survey

import (
	"context"
	"errors"
	"fmt"
)

// Synchronizer keeps one rendered page and the snapshot in step. It is built
// once per page load for a known page id.
type Synchronizer struct {
	store  *Store
	ledger *Ledger
	page   PageID
	fields FieldSet
	after  func(context.Context, FieldSet)
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

// WithAfterMutation registers a recompute hook run after every persisted mutation.
func WithAfterMutation(fn func(context.Context, FieldSet)) SyncOption {
	return func(s *Synchronizer) { s.after = fn }
}

// NewSynchronizer binds store and ledger to the fields rendered on page.
func NewSynchronizer(store *Store, ledger *Ledger, page PageID, fields FieldSet, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{store: store, ledger: ledger, page: page, fields: fields}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Page returns the page this synchronizer was built for.
func (s *Synchronizer) Page() PageID { return s.page }

// Fields returns the page's field set.
func (s *Synchronizer) Fields() FieldSet { return s.fields }

// Classify maps fieldID on this page to its snapshot coordinate.
func (s *Synchronizer) Classify(fieldID string) Coordinate {
	return Classify(fieldID, s.page)
}

// OnFieldMutated persists the current value of fieldID and, for score fields,
// records the score. Ids not on the page are ignored.
func (s *Synchronizer) OnFieldMutated(ctx context.Context, fieldID string) error {
	f, ok := s.fields.Field(fieldID)
	if !ok {
		return nil
	}

	coord := s.Classify(fieldID)
	err := s.store.SaveSection(ctx, coord.Section, coord.Subsection, Subsection{fieldID: f.CurrentValue()})
	switch {
	case errors.Is(err, ErrUnknownSection):
		s.store.Logger().Debug("field on unknown page not persisted", "page", s.page, "field", fieldID)
	case err != nil:
		return fmt.Errorf("failed to save field %s: %w", fieldID, err)
	}

	if f.ScoreGroup != "" {
		if err := s.ledger.RecordScore(ctx, fieldID, f.Value, f.ScoreGroup, coord.Section); err != nil {
			return fmt.Errorf("failed to record score %s: %w", fieldID, err)
		}
	}

	if s.after != nil {
		s.after(ctx, s.fields)
	}
	return nil
}

// SetAndSave writes v into the page control and persists it, as if the user had edited it.
func (s *Synchronizer) SetAndSave(ctx context.Context, fieldID string, v FieldValue) error {
	if !s.fields.Set(fieldID, v) {
		return nil
	}
	return s.OnFieldMutated(ctx, fieldID)
}

// RestoreIntoPage writes every saved value of the page's section into matching
// controls and returns how many controls were written.
func (s *Synchronizer) RestoreIntoPage(ctx context.Context) int {
	section, ok := s.page.Section()
	if !ok {
		return 0
	}

	sec := s.store.Section(ctx, section)
	restored := 0
	// general holds the bulk unload capture; specific subsections are applied after it
	names := []string{SubGeneral}
	for _, name := range sec.SubsectionNames() {
		if name != SubGeneral {
			names = append(names, name)
		}
	}
	for _, name := range names {
		for fieldID, v := range sec.Subsections[name] {
			if s.fields.Set(fieldID, v) {
				restored++
			}
		}
	}
	for fieldID, v := range sec.Values {
		// an empty section-level list must not clear keywords restored from descriptives
		if v.IsEmpty() {
			continue
		}
		if s.fields.Set(fieldID, v) {
			restored++
		}
	}

	if s.after != nil {
		s.after(ctx, s.fields)
	}
	return restored
}

// BeforeUnload captures every control on the page into the section's general
// subsection as a final safety net.
func (s *Synchronizer) BeforeUnload(ctx context.Context) error {
	section, ok := s.page.Section()
	if !ok {
		return nil
	}

	patch := make(Subsection)
	for _, f := range s.fields.Fields() {
		switch {
		case f.Kind.IsBoolean():
			patch[f.ID] = Bool(f.Checked)
		case f.Kind == FieldList:
			patch[f.ID] = List(f.Items)
		case f.Value != "":
			patch[f.ID] = Text(f.Value)
		}
	}
	if len(patch) == 0 {
		return nil
	}
	return s.store.SaveSection(ctx, section, SubGeneral, patch)
}
