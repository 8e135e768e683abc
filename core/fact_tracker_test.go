package core_test

import (
	"testing"
	"time"

	core "causality/core"
)

func TestFactEffectTrackerIngestAndQuery(t *testing.T) {
	tr := core.NewFactEffectTracker()
	base := time.Unix(1000, 0)

	tr.Ingest(core.LogEntry{Kind: core.LogFact, FactId: "fact1", Timestamp: base})
	tr.Ingest(core.LogEntry{Kind: core.LogFact, FactId: "fact2", Timestamp: base.Add(time.Second)})

	tr.Ingest(core.LogEntry{
		Kind:         core.LogEffect,
		EffectId:     core.EffectId(core.EntityIdFromBytes([]byte("effect1"))),
		Timestamp:    base.Add(2 * time.Second),
		Resource:     "res1",
		Domain:       core.LocalLocation(),
		TraceId:      "trace1",
		Dependencies: []core.FactId{"fact1", "fact2"},
	})

	eid := core.EffectId(core.EntityIdFromBytes([]byte("effect1")))

	deps := tr.DependenciesOfEffect(eid)
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(deps))
	}

	dependents := tr.DependentsOfFact("fact1")
	if len(dependents) != 1 || dependents[0] != eid {
		t.Fatalf("expected fact1 to point back to effect1, got %+v", dependents)
	}

	byResource := tr.RelationsForResource("res1")
	if len(byResource) != 1 {
		t.Fatalf("expected 1 effect indexed by resource, got %d", len(byResource))
	}

	byTrace := tr.RelationsForTrace("trace1")
	if len(byTrace) != 1 {
		t.Fatalf("expected 1 effect indexed by trace, got %d", len(byTrace))
	}

	facts := tr.FactsInRange(base, base.Add(time.Second))
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts in range, got %d", len(facts))
	}
}

func TestFactEffectTrackerEffectWithNoDependencies(t *testing.T) {
	tr := core.NewFactEffectTracker()
	now := time.Unix(0, 0)
	eid := core.EffectId(core.EntityIdFromBytes([]byte("e")))
	tr.Ingest(core.LogEntry{Kind: core.LogEffect, EffectId: eid, Timestamp: now, Domain: core.LocalLocation()})

	effects := tr.EffectsInRange(now, now)
	if len(effects) != 1 {
		t.Fatalf("expected effect with no deps still recorded in time index, got %d", len(effects))
	}
	if len(tr.DependenciesOfEffect(eid)) != 0 {
		t.Fatalf("expected zero dependencies")
	}
}

func TestFactEffectTrackerCreateSnapshot(t *testing.T) {
	tr := core.NewFactEffectTracker()
	now := time.Unix(0, 0)
	eid := core.EffectId(core.EntityIdFromBytes([]byte("e")))
	tr.Ingest(core.LogEntry{
		Kind:         core.LogEffect,
		EffectId:     eid,
		Timestamp:    now,
		Resource:     "res1",
		Domain:       core.LocalLocation(),
		Dependencies: []core.FactId{"f1", "f2"},
	})

	snap := tr.CreateSnapshot([]core.ResourceId{"res1"}, nil, "observer1", now)
	if len(snap.Facts) != 2 {
		t.Fatalf("expected snapshot to union 2 facts, got %+v", snap.Facts)
	}
}

func TestFactEffectTrackerPruneBefore(t *testing.T) {
	tr := core.NewFactEffectTracker()
	old := time.Unix(0, 0)
	recent := time.Unix(1000, 0)
	tr.Ingest(core.LogEntry{Kind: core.LogFact, FactId: "old", Timestamp: old})
	tr.Ingest(core.LogEntry{Kind: core.LogFact, FactId: "recent", Timestamp: recent})

	pruned, _ := tr.PruneBefore(time.Unix(500, 0))
	if pruned != 1 {
		t.Fatalf("expected 1 fact pruned, got %d", pruned)
	}
	remaining := tr.FactsInRange(time.Unix(0, 0), time.Unix(2000, 0))
	if len(remaining) != 1 || remaining[0] != "recent" {
		t.Fatalf("expected only recent fact to remain, got %+v", remaining)
	}
}
