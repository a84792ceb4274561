package survey

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DedupStrategy decides how score-bearing fields on the current page merge with
// persisted ledger entries when a summary is built.
type DedupStrategy int

const (
	// DedupByField lets a page value replace the persisted entry for the same field id.
	// It agrees with RecordScore and is the default.
	DedupByField DedupStrategy = iota
	// DedupByValue appends a page value only when no entry in the group already has
	// an equal value. This is how the original page script merged scores.
	DedupByValue
)

func (d DedupStrategy) String() string {
	if d == DedupByValue {
		return "value"
	}
	return "field"
}

// ParseDedupStrategy maps "field" or "value" to a strategy; "" means DedupByField.
func ParseDedupStrategy(s string) (DedupStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "field":
		return DedupByField, nil
	case "value":
		return DedupByValue, nil
	default:
		return DedupByField, fmt.Errorf("unknown dedup strategy %q", s)
	}
}

// Ledger records per-field quality scores and keeps the overall average current.
type Ledger struct {
	store    *Store
	strategy DedupStrategy
}

// NewLedger returns a ledger persisting through store.
func NewLedger(store *Store, strategy DedupStrategy) *Ledger {
	return &Ledger{store: store, strategy: strategy}
}

// Strategy returns the summary merge strategy in use.
func (l *Ledger) Strategy() DedupStrategy { return l.strategy }

// ParseScore reads a leading integer the way a lenient form parser does:
// surrounding space is ignored and trailing non-digits are dropped.
func ParseScore(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// RecordScore replaces the entry for fieldID within group. An empty or
// non-numeric raw value retracts the entry instead.
func (l *Ledger) RecordScore(ctx context.Context, fieldID, raw, group string, section SectionID) error {
	value, ok := ParseScore(raw)
	if !ok && strings.TrimSpace(raw) != "" {
		l.store.Logger().Warn("score is not an integer, retracting", "field", fieldID, "value", raw)
	}
	now := l.store.Now()

	return l.store.Update(ctx, func(snap *Snapshot) error {
		ledger := &snap.Scores

		kept := make([]ScoreEntry, 0, len(ledger.ByGroup[group])+1)
		for _, e := range ledger.ByGroup[group] {
			if e.FieldID != fieldID {
				kept = append(kept, e)
			}
		}

		bySection := ledger.BySection[section]
		if bySection == nil {
			bySection = make(map[string]int)
			ledger.BySection[section] = bySection
		}

		if ok {
			kept = append(kept, ScoreEntry{
				FieldID:   fieldID,
				Value:     value,
				Section:   section,
				Timestamp: now,
			})
			bySection[fieldID] = value
		} else {
			delete(bySection, fieldID)
		}
		ledger.ByGroup[group] = kept

		if avg, has := ComputeOverall(ledger); has {
			ledger.Overall = &avg
		} else {
			ledger.Overall = nil
		}
		return nil
	})
}

// ComputeOverall is the unweighted mean of every entry in every group. Groups
// with more entries weigh more.
func ComputeOverall(ledger *LedgerState) (float64, bool) {
	var sum, n int
	for _, entries := range ledger.ByGroup {
		for _, e := range entries {
			sum += e.Value
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// GroupSummary aggregates one score group.
type GroupSummary struct {
	Count       int        `json:"count"`
	Average     *float64   `json:"average"`
	Scores      []int      `json:"scores"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// Summary is the score report over persisted and on-page scores.
type Summary struct {
	ByGroup     map[string]GroupSummary      `json:"byGroup"`
	BySection   map[SectionID]map[string]int `json:"bySection"`
	Overall     *float64                     `json:"overall"`
	TotalScores int                          `json:"totalScores"`
}

// Groups returns the group names in sorted order.
func (s Summary) Groups() []string {
	names := make([]string, 0, len(s.ByGroup))
	for g := range s.ByGroup {
		names = append(names, g)
	}
	sort.Strings(names)
	return names
}

// Summarize merges persisted entries with page fields that carry a score group
// (page may be nil) using the ledger's strategy.
func (l *Ledger) Summarize(ctx context.Context, page FieldSet) Summary {
	return SummarizeSnapshot(l.store.Snapshot(ctx), page, l.strategy, l.store.Now())
}

// SummarizeSnapshot is Summarize over an already loaded snapshot.
func SummarizeSnapshot(snap *Snapshot, page FieldSet, strategy DedupStrategy, now time.Time) Summary {
	merged := make(map[string][]ScoreEntry, len(snap.Scores.ByGroup))
	for g, entries := range snap.Scores.ByGroup {
		merged[g] = append([]ScoreEntry(nil), entries...)
	}

	if page != nil {
		for _, f := range page.Fields() {
			if f.ScoreGroup == "" {
				continue
			}
			v, ok := ParseScore(f.Value)
			if !ok {
				continue
			}
			entry := ScoreEntry{FieldID: f.ID, Value: v, Timestamp: now}
			merged[f.ScoreGroup] = mergeEntry(merged[f.ScoreGroup], entry, strategy)
		}
	}

	summary := Summary{
		ByGroup:   make(map[string]GroupSummary, len(merged)),
		BySection: snap.Scores.BySection,
	}
	if summary.BySection == nil {
		summary.BySection = make(map[SectionID]map[string]int)
	}

	var sum, n int
	for g, entries := range merged {
		gs := GroupSummary{Count: len(entries), Scores: make([]int, 0, len(entries))}
		groupSum := 0
		for _, e := range entries {
			gs.Scores = append(gs.Scores, e.Value)
			groupSum += e.Value
			if gs.LastUpdated == nil || e.Timestamp.After(*gs.LastUpdated) {
				ts := e.Timestamp
				gs.LastUpdated = &ts
			}
		}
		if len(entries) > 0 {
			avg := float64(groupSum) / float64(len(entries))
			gs.Average = &avg
		}
		summary.ByGroup[g] = gs
		sum += groupSum
		n += len(entries)
	}

	summary.TotalScores = n
	if n > 0 {
		overall := float64(sum) / float64(n)
		summary.Overall = &overall
	}
	return summary
}

func mergeEntry(entries []ScoreEntry, entry ScoreEntry, strategy DedupStrategy) []ScoreEntry {
	switch strategy {
	case DedupByValue:
		for _, e := range entries {
			if e.Value == entry.Value {
				return entries
			}
		}
		return append(entries, entry)
	default:
		for i, e := range entries {
			if e.FieldID == entry.FieldID {
				if e.Value == entry.Value {
					return entries
				}
				entry.Section = e.Section
				out := append(entries[:i:i], entries[i+1:]...)
				return append(out, entry)
			}
		}
		return append(entries, entry)
	}
}
