package core_test

import (
	"testing"

	core "causality/core"
)

// TestEffectStoreScenarioB mirrors spec Scenario B: storing an effect
// twice returns AlreadyExists, an effect with no execution records
// returns an empty slice, and records are returned ordered by
// executed_at regardless of insertion order.
func TestEffectStoreScenarioB(t *testing.T) {
	store := core.NewContentStore(core.NewMemoryKV(), nil, nil)
	e := core.NewBasicEffect("type.a", core.BoundaryInside, "effect-b", nil, nil, core.NewIntValue(1))

	id, err := store.StoreEffect(e)
	if err != nil {
		t.Fatalf("first store: %v", err)
	}

	if _, err := store.StoreEffect(e); err == nil {
		t.Fatalf("expected AlreadyExistsError on second store")
	} else if _, ok := err.(*core.AlreadyExistsError); !ok {
		t.Fatalf("expected AlreadyExistsError, got %T: %v", err, err)
	}

	records, err := store.GetExecutionRecords(id)
	if err != nil {
		t.Fatalf("get records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected zero records before any are stored, got %d", len(records))
	}

	if err := store.StoreExecutionRecord(core.EffectExecutionRecord{EffectId: id, ExecutedAt: 100}); err != nil {
		t.Fatalf("store record 100: %v", err)
	}
	if err := store.StoreExecutionRecord(core.EffectExecutionRecord{EffectId: id, ExecutedAt: 50}); err != nil {
		t.Fatalf("store record 50: %v", err)
	}

	records, err = store.GetExecutionRecords(id)
	if err != nil {
		t.Fatalf("get records: %v", err)
	}
	if len(records) != 2 || records[0].ExecutedAt != 50 || records[1].ExecutedAt != 100 {
		t.Fatalf("expected records ordered [50, 100], got %+v", records)
	}
}

func TestEffectStoreRoundTripPreservesIdentity(t *testing.T) {
	store := core.NewContentStore(core.NewMemoryKV(), nil, nil)
	e := core.NewBasicEffect("type.b", core.BoundaryOutside, "effect-rt", nil, []string{"res1"}, core.NewBoolValue(true))

	id, err := store.StoreEffect(e)
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	fetched, err := store.GetEffect(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Id() != id || fetched.TypeId() != e.TypeId() {
		t.Fatalf("identity mismatch after round trip")
	}
	if len(fetched.Modifications()) != 1 || fetched.Modifications()[0] != "res1" {
		t.Fatalf("expected modifications to survive round trip, got %+v", fetched.Modifications())
	}
}

func TestEffectStoreGetMissingReturnsNotFound(t *testing.T) {
	store := core.NewContentStore(core.NewMemoryKV(), nil, nil)
	_, err := store.GetEffect(core.EffectId{})
	if err != core.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEffectStoreFindByTypeAndDependents(t *testing.T) {
	store := core.NewContentStore(core.NewMemoryKV(), nil, nil)
	base := core.NewBasicEffect("type.base", core.BoundaryInside, "base", nil, nil, core.NewUnitValue())
	baseId, err := store.StoreEffect(base)
	if err != nil {
		t.Fatalf("store base: %v", err)
	}

	dependent := core.NewBasicEffect("type.dependent", core.BoundaryInside, "dependent", []core.EffectId{baseId}, nil, core.NewUnitValue())
	depId, err := store.StoreEffect(dependent)
	if err != nil {
		t.Fatalf("store dependent: %v", err)
	}

	byType := store.FindEffectsByType("type.dependent")
	if len(byType) != 1 || byType[0] != depId {
		t.Fatalf("expected type index to find the dependent effect, got %+v", byType)
	}

	dependents := store.FindDependentEffects(baseId)
	if len(dependents) != 1 || dependents[0] != depId {
		t.Fatalf("expected dependency index to find the dependent, got %+v", dependents)
	}
}
