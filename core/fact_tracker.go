package core

import (
	"sort"
	"sync"
	"time"
)

// LogEntryKind discriminates what FactEffectTracker.Ingest was handed.
type LogEntryKind byte

const (
	LogFact LogEntryKind = iota
	LogEffect
	LogOther
)

// LogEntry is the ingestion contract of §4.8: a fact observation, an
// effect execution record, or anything else the tracker ignores.
type LogEntry struct {
	Kind LogEntryKind

	FactId    FactId
	Timestamp time.Time

	EffectId        EffectId
	Resource        ResourceId
	Domain          Location
	TraceId         string
	Dependencies    []FactId // explicit dependency list, if known
	SnapshotFactIds []FactId // dependencies recovered from a snapshot blob
}

// FactSnapshot is the result of create_snapshot: every fact reachable
// through the given resources and domains.
type FactSnapshot struct {
	Observer  ActorId
	Facts     []FactId
	CreatedAt time.Time
}

// FactEffectTracker indexes causal relations between observed facts and
// the effects that depended on them (§4.8). All queries are read-only.
// The causal and resource/domain/trace queries are map lookups; the time
// indexes are unsorted slices in ingestion order, so FactsInRange and
// EffectsInRange scan every entry. Ingestion populates every index under
// one lock.
type FactEffectTracker struct {
	mu sync.RWMutex

	factToEffects map[FactId]map[EffectId]struct{}
	effectToFacts map[EffectId]map[FactId]struct{}

	byResource map[ResourceId]map[EffectId]struct{}
	byDomain   map[Location]map[EffectId]struct{}
	byTrace    map[string]map[EffectId]struct{}

	factTimes   []timeEntry[FactId]
	effectTimes []timeEntry[EffectId]
}

type timeEntry[T comparable] struct {
	at time.Time
	id T
}

func NewFactEffectTracker() *FactEffectTracker {
	return &FactEffectTracker{
		factToEffects: make(map[FactId]map[EffectId]struct{}),
		effectToFacts: make(map[EffectId]map[FactId]struct{}),
		byResource:    make(map[ResourceId]map[EffectId]struct{}),
		byDomain:      make(map[Location]map[EffectId]struct{}),
		byTrace:       make(map[string]map[EffectId]struct{}),
	}
}

// Ingest applies the §4.8 ingestion contract for one log entry.
func (t *FactEffectTracker) Ingest(entry LogEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch entry.Kind {
	case LogFact:
		t.factTimes = append(t.factTimes, timeEntry[FactId]{at: entry.Timestamp, id: entry.FactId})
	case LogEffect:
		t.effectTimes = append(t.effectTimes, timeEntry[EffectId]{at: entry.Timestamp, id: entry.EffectId})

		if _, ok := t.effectToFacts[entry.EffectId]; !ok {
			t.effectToFacts[entry.EffectId] = make(map[FactId]struct{})
		}
		deps := make(map[FactId]struct{})
		for _, f := range entry.Dependencies {
			deps[f] = struct{}{}
		}
		for _, f := range entry.SnapshotFactIds {
			deps[f] = struct{}{}
		}
		for f := range deps {
			t.effectToFacts[entry.EffectId][f] = struct{}{}
			if _, ok := t.factToEffects[f]; !ok {
				t.factToEffects[f] = make(map[EffectId]struct{})
			}
			t.factToEffects[f][entry.EffectId] = struct{}{}
		}

		if entry.Resource != "" {
			if _, ok := t.byResource[entry.Resource]; !ok {
				t.byResource[entry.Resource] = make(map[EffectId]struct{})
			}
			t.byResource[entry.Resource][entry.EffectId] = struct{}{}
		}
		if _, ok := t.byDomain[entry.Domain]; !ok {
			t.byDomain[entry.Domain] = make(map[EffectId]struct{})
		}
		t.byDomain[entry.Domain][entry.EffectId] = struct{}{}
		if entry.TraceId != "" {
			if _, ok := t.byTrace[entry.TraceId]; !ok {
				t.byTrace[entry.TraceId] = make(map[EffectId]struct{})
			}
			t.byTrace[entry.TraceId][entry.EffectId] = struct{}{}
		}
	case LogOther:
		// not causally indexed
	}
}

func setKeys[T comparable](m map[T]struct{}) []T {
	out := make([]T, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// DependentsOfFact returns every effect recorded as depending on fact.
func (t *FactEffectTracker) DependentsOfFact(fact FactId) []EffectId {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return setKeys(t.factToEffects[fact])
}

// DependenciesOfEffect returns every fact an effect was recorded as
// depending on.
func (t *FactEffectTracker) DependenciesOfEffect(effect EffectId) []FactId {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return setKeys(t.effectToFacts[effect])
}

func (t *FactEffectTracker) FactsInRange(start, end time.Time) []FactId {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []FactId
	for _, e := range t.factTimes {
		if !e.at.Before(start) && !e.at.After(end) {
			out = append(out, e.id)
		}
	}
	return out
}

func (t *FactEffectTracker) EffectsInRange(start, end time.Time) []EffectId {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []EffectId
	for _, e := range t.effectTimes {
		if !e.at.Before(start) && !e.at.After(end) {
			out = append(out, e.id)
		}
	}
	return out
}

func (t *FactEffectTracker) RelationsForResource(r ResourceId) []EffectId {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return setKeys(t.byResource[r])
}

func (t *FactEffectTracker) RelationsForDomain(d Location) []EffectId {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return setKeys(t.byDomain[d])
}

func (t *FactEffectTracker) RelationsForTrace(trace string) []EffectId {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return setKeys(t.byTrace[trace])
}

// CreateSnapshot assembles every fact reachable through the given
// resources and domains, via the effects those indexes name and the
// facts those effects depend on.
func (t *FactEffectTracker) CreateSnapshot(resources []ResourceId, domains []Location, observer ActorId, now time.Time) FactSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	facts := make(map[FactId]struct{})
	collect := func(effects map[EffectId]struct{}) {
		for e := range effects {
			for f := range t.effectToFacts[e] {
				facts[f] = struct{}{}
			}
		}
	}
	for _, r := range resources {
		collect(t.byResource[r])
	}
	for _, d := range domains {
		collect(t.byDomain[d])
	}

	out := setKeys(facts)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return FactSnapshot{Observer: observer, Facts: out, CreatedAt: now}
}

// PruneBefore drops time-indexed entries older than cutoff (SPEC_FULL.md
// supplement #4: a maintenance operation absent from the distilled spec
// but present in the original tracker to bound memory growth). Forward
// and reverse causal indexes are left untouched since a pruned fact or
// effect id may still be a valid lookup key for historical queries.
func (t *FactEffectTracker) PruneBefore(cutoff time.Time) (factsPruned, effectsPruned int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.factTimes[:0]
	for _, e := range t.factTimes {
		if e.at.Before(cutoff) {
			factsPruned++
			continue
		}
		kept = append(kept, e)
	}
	t.factTimes = kept

	keptE := t.effectTimes[:0]
	for _, e := range t.effectTimes {
		if e.at.Before(cutoff) {
			effectsPruned++
			continue
		}
		keptE = append(keptE, e)
	}
	t.effectTimes = keptE
	return
}
