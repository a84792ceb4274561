// Package survey holds the persisted state of a multi-page dataset quality survey:
// the snapshot store, the score ledger and the page synchronizer that keeps
// rendered form fields and the snapshot in step.
package survey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geoquality/surveyform/internal/kvstore"
)

// SnapshotKey is the store key holding the serialized snapshot.
const SnapshotKey = "surveyData"

// ErrUnknownSection is returned when a write targets a section outside the five persisted ones.
var ErrUnknownSection = errors.New("unknown survey section")

// LegacyKeys maps field ids to the flat store keys older readers look up directly.
var LegacyKeys = map[string]string{
	"dataType":              "dataType",
	"pixelSize":             "pixelSize",
	"gridSize":              "gridSize",
	"aggregationLevel":      "aggregationLevel",
	"evaluationType":        "evaluationType",
	"dataprocessinglevel":   "dataProcessingLevel",
	"optimumDataCollection": "optimumDataCollection",
}

// Store owns the canonical snapshot. Every mutation is a read-modify-write of the
// whole snapshot under one lock, so callers sharing a Store never observe a partial write.
type Store struct {
	kv     kvstore.Store
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for self-healing warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore wraps kv. Call Initialize once per page load.
func NewStore(kv kvstore.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time { return s.now() }

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger { return s.logger }

// Initialize persists the default snapshot when none exists. It never overwrites.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok, err := s.kv.Get(ctx, SnapshotKey)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if ok {
		return nil
	}
	return s.write(ctx, NewSnapshot(s.now()))
}

// Snapshot returns the persisted state, or the default shape when the entry is
// missing, unreadable or malformed.
func (s *Store) Snapshot(ctx context.Context) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Section returns a copy of the named section; absent sections read as empty.
func (s *Store) Section(ctx context.Context, id SectionID) *Section {
	return s.Snapshot(ctx).Section(id)
}

// Subsection returns a copy of one subsection; absent subsections read as empty.
func (s *Store) Subsection(ctx context.Context, id SectionID, subsection string) Subsection {
	return s.Snapshot(ctx).Subsection(id, subsection)
}

// SaveSection shallow-merges patch into the subsection, or into the section
// itself when subsection is empty. Sibling keys are never removed.
func (s *Store) SaveSection(ctx context.Context, id SectionID, subsection string, patch Subsection) error {
	if !id.IsKnown() {
		return fmt.Errorf("%w: %s", ErrUnknownSection, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.update(ctx, func(snap *Snapshot) error {
		snap.Sections[id].merge(subsection, patch)
		return nil
	})
	if err != nil {
		return err
	}
	return s.mirrorLegacy(ctx, patch)
}

// Update runs fn against the current snapshot and persists the result with a fresh
// lastModified. If fn fails nothing is written.
func (s *Store) Update(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, fn)
}

// update requires s.mu.
func (s *Store) update(ctx context.Context, fn func(*Snapshot) error) error {
	snap := s.load(ctx)
	if err := fn(snap); err != nil {
		return err
	}
	snap.Timestamps.LastModified = s.now()
	return s.write(ctx, snap)
}

// State returns the snapshot and the flat mirror keys read under one lock, so the
// two always reflect the same completed write.
func (s *Store) State(ctx context.Context) (*Snapshot, map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx), s.legacy(ctx)
}

// Legacy returns the flat mirror keys currently present in the store.
func (s *Store) Legacy(ctx context.Context) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.legacy(ctx)
}

func (s *Store) legacy(ctx context.Context) map[string]string {
	out := make(map[string]string, len(LegacyKeys))
	for _, key := range LegacyKeys {
		v, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			s.logger.Warn("failed to read legacy key", "key", key, "error", err)
			continue
		}
		if ok {
			out[key] = v
		}
	}
	return out
}

// SetLegacy writes one flat key directly; an empty value removes it.
func (s *Store) SetLegacy(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLegacy(ctx, key, value)
}

func (s *Store) setLegacy(ctx context.Context, key, value string) error {
	if value == "" {
		return s.kv.Remove(ctx, key)
	}
	return s.kv.Set(ctx, key, value)
}

// mirrorLegacy requires s.mu.
func (s *Store) mirrorLegacy(ctx context.Context, patch Subsection) error {
	for fieldID, v := range patch {
		key, ok := LegacyKeys[fieldID]
		if !ok {
			continue
		}
		if err := s.setLegacy(ctx, key, v.String()); err != nil {
			return fmt.Errorf("failed to mirror %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) load(ctx context.Context) *Snapshot {
	raw, ok, err := s.kv.Get(ctx, SnapshotKey)
	if err != nil {
		s.logger.Warn("failed to read snapshot, using empty state", "error", err)
		return NewSnapshot(s.now())
	}
	if !ok {
		return NewSnapshot(s.now())
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn("discarding malformed snapshot", "error", err)
		return NewSnapshot(s.now())
	}
	snap.normalize(s.now())
	return &snap
}

func (s *Store) write(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.kv.Set(ctx, SnapshotKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	return nil
}
