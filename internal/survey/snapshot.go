package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SectionID names one of the five survey parts.
type SectionID string

const (
	Section1 SectionID = "section1"
	Section2 SectionID = "section2"
	Section3 SectionID = "section3"
	Section4 SectionID = "section4"
	Section5 SectionID = "section5"

	// SectionUnknown is what fields on an unrecognised page classify into.
	// It is never persisted.
	SectionUnknown SectionID = "unknown"
)

// Sections lists the persisted sections in survey order.
var Sections = []SectionID{Section1, Section2, Section3, Section4, Section5}

// IsKnown reports whether id is one of the five persisted sections.
func (id SectionID) IsKnown() bool {
	for _, s := range Sections {
		if s == id {
			return true
		}
	}
	return false
}

// Subsection names used by the form.
const (
	SubBasic             = "basic"
	SubUseCase           = "useCase"
	SubSpatial           = "spatial"
	SubAOI               = "aoi"
	SubDescriptives      = "descriptives"
	SubMetadata          = "metadata"
	SubSpatialResolution = "spatialResolution"
	SubSpatialCoverage   = "spatialCoverage"
	SubTimeliness        = "timeliness"
	SubConformance       = "conformance"
	SubContext           = "context"
	SubGeneral           = "general"
)

// KeywordsKey holds keyword tags, both as a section2 value and inside descriptives.
const KeywordsKey = "keywords"

// Section is one survey part: named subsections plus any values written at the
// section level itself (section2's keyword list, for instance).
type Section struct {
	Subsections map[string]Subsection
	Values      Subsection
}

// NewSection returns a section holding the given empty subsections.
func NewSection(subsections ...string) *Section {
	s := &Section{Subsections: make(map[string]Subsection), Values: make(Subsection)}
	for _, name := range subsections {
		s.Subsections[name] = make(Subsection)
	}
	return s
}

// Subsection returns the named subsection, or an empty one when absent.
func (s *Section) Subsection(name string) Subsection {
	if s == nil {
		return Subsection{}
	}
	if sub, ok := s.Subsections[name]; ok && sub != nil {
		return sub
	}
	return Subsection{}
}

// SubsectionNames returns the subsection names in sorted order.
func (s *Section) SubsectionNames() []string {
	names := make([]string, 0, len(s.Subsections))
	for name := range s.Subsections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// merge applies a shallow patch. An empty subsection name targets the section itself.
func (s *Section) merge(subsection string, patch Subsection) {
	if subsection == "" {
		for k, v := range patch {
			// a section-level value replaces a subsection of the same name
			delete(s.Subsections, k)
			s.Values[k] = v
		}
		return
	}

	target, ok := s.Subsections[subsection]
	if !ok || target == nil {
		target = make(Subsection, len(patch))
		s.Subsections[subsection] = target
	}
	// a subsection replaces any section-level value of the same name
	delete(s.Values, subsection)
	for k, v := range patch {
		target[k] = v
	}
}

func (s *Section) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Subsections)+len(s.Values))
	for k, v := range s.Values {
		out[k] = v
	}
	for name, sub := range s.Subsections {
		if sub == nil {
			sub = Subsection{}
		}
		out[name] = sub
	}
	return json.Marshal(out)
}

// UnmarshalJSON treats object members as subsections and everything else as section values.
func (s *Section) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Subsections = make(map[string]Subsection)
	s.Values = make(Subsection)
	for k, msg := range raw {
		trimmed := bytes.TrimSpace(msg)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			var sub Subsection
			if err := json.Unmarshal(trimmed, &sub); err != nil {
				return fmt.Errorf("subsection %s: %w", k, err)
			}
			if sub == nil {
				sub = Subsection{}
			}
			s.Subsections[k] = sub
			continue
		}
		var v FieldValue
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return fmt.Errorf("value %s: %w", k, err)
		}
		s.Values[k] = v
	}
	return nil
}

// ScoreEntry is one recorded quality rating.
type ScoreEntry struct {
	FieldID   string    `json:"fieldId"`
	Value     int       `json:"value"`
	Section   SectionID `json:"section"`
	Timestamp time.Time `json:"timestamp"`
}

// LedgerState is the persisted score ledger.
type LedgerState struct {
	ByGroup   map[string][]ScoreEntry      `json:"byGroup"`
	BySection map[SectionID]map[string]int `json:"bySection"`
	Overall   *float64                     `json:"overall"`
}

func newLedgerState() LedgerState {
	return LedgerState{
		ByGroup:   make(map[string][]ScoreEntry),
		BySection: make(map[SectionID]map[string]int),
	}
}

// Timestamps records when the snapshot was created and last written.
type Timestamps struct {
	Created      time.Time `json:"created"`
	LastModified time.Time `json:"lastModified"`
}

// Snapshot is the complete persisted survey state.
type Snapshot struct {
	Sections   map[SectionID]*Section
	Scores     LedgerState
	Timestamps Timestamps
}

// NewSnapshot returns the default empty shape stamped with now.
func NewSnapshot(now time.Time) *Snapshot {
	s2 := NewSection(SubDescriptives, SubMetadata)
	s2.Values[KeywordsKey] = List(nil)

	return &Snapshot{
		Sections: map[SectionID]*Section{
			Section1: NewSection(SubBasic, SubUseCase, SubSpatial, SubAOI),
			Section2: s2,
			Section3: NewSection(SubSpatialResolution, SubSpatialCoverage, SubTimeliness),
			Section4: NewSection(SubConformance),
			Section5: NewSection(SubContext),
		},
		Scores: newLedgerState(),
		Timestamps: Timestamps{
			Created:      now,
			LastModified: now,
		},
	}
}

// Section returns the named section, or an empty one when absent.
func (s *Snapshot) Section(id SectionID) *Section {
	if sec, ok := s.Sections[id]; ok && sec != nil {
		return sec
	}
	return NewSection()
}

// Subsection is shorthand for Section(id).Subsection(name).
func (s *Snapshot) Subsection(id SectionID, name string) Subsection {
	return s.Section(id).Subsection(name)
}

// normalize restores the five-section shape and non-nil ledger maps after decoding.
func (s *Snapshot) normalize(now time.Time) {
	def := NewSnapshot(now)
	if s.Sections == nil {
		s.Sections = make(map[SectionID]*Section)
	}
	for _, id := range Sections {
		if s.Sections[id] == nil {
			s.Sections[id] = def.Sections[id]
		}
	}
	if s.Scores.ByGroup == nil {
		s.Scores.ByGroup = make(map[string][]ScoreEntry)
	}
	if s.Scores.BySection == nil {
		s.Scores.BySection = make(map[SectionID]map[string]int)
	}
	if s.Timestamps.Created.IsZero() {
		s.Timestamps.Created = now
	}
	if s.Timestamps.LastModified.IsZero() {
		s.Timestamps.LastModified = s.Timestamps.Created
	}
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Sections)+2)
	for id, sec := range s.Sections {
		out[string(id)] = sec
	}
	out["scores"] = s.Scores
	out["timestamps"] = s.Timestamps
	return json.Marshal(out)
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Sections = make(map[SectionID]*Section)
	for k, msg := range raw {
		switch k {
		case "scores":
			if err := json.Unmarshal(msg, &s.Scores); err != nil {
				return fmt.Errorf("scores: %w", err)
			}
		case "timestamps":
			if err := json.Unmarshal(msg, &s.Timestamps); err != nil {
				return fmt.Errorf("timestamps: %w", err)
			}
		default:
			id := SectionID(k)
			if !id.IsKnown() {
				continue
			}
			sec := &Section{}
			if err := json.Unmarshal(msg, sec); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			s.Sections[id] = sec
		}
	}
	return nil
}
