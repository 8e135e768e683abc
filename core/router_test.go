package core_test

import (
	"testing"

	core "causality/core"
)

func mkDomain(tag byte, name string, baseCost uint64, conns ...core.Location) *core.Domain {
	id := core.RemoteLocation(core.EntityIdFromBytes([]byte{tag}))
	routing := core.NewRoutingInfo(baseCost, 8)
	routing.Connections = conns
	return core.NewDomain(id, name, routing)
}

func TestRouterSelfRoute(t *testing.T) {
	r := core.NewUnifiedRouter(core.MinimizeCostStrategy(), nil, nil)
	x := core.RemoteLocation(core.EntityIdFromBytes([]byte{1}))
	p, err := r.FindRoute(x, x, core.MinimizeCostStrategy())
	if err != nil {
		t.Fatalf("self route: %v", err)
	}
	if p.TotalCost != 0 || len(p.Hops) != 1 || !p.Hops[0].Equal(x) {
		t.Fatalf("unexpected self route: %+v", p)
	}
}

// TestRouterMinimizeCostScenarioE mirrors spec Scenario E: two domains A, B
// both with base_cost 1, directly connected; expected edge cost 2.
func TestRouterMinimizeCostScenarioE(t *testing.T) {
	b := mkDomain(2, "B", 1)
	a := mkDomain(1, "A", 1, b.Id)

	r := core.NewUnifiedRouter(core.MinimizeCostStrategy(), nil, nil)
	r.RegisterDomain(b)
	r.RegisterDomain(a)

	p, err := r.FindRoute(a.Id, b.Id, core.MinimizeCostStrategy())
	if err != nil {
		t.Fatalf("find route: %v", err)
	}
	if p.TotalCost != 2 {
		t.Fatalf("expected cost 2, got %d", p.TotalCost)
	}
	if len(p.Hops) != 2 || !p.Hops[0].Equal(a.Id) || !p.Hops[1].Equal(b.Id) {
		t.Fatalf("unexpected hops: %+v", p.Hops)
	}
}

func TestRouterTransitiveMinimizeCost(t *testing.T) {
	c := mkDomain(3, "C", 1)
	b := mkDomain(2, "B", 1, c.Id)
	a := mkDomain(1, "A", 1, b.Id)

	r := core.NewUnifiedRouter(core.MinimizeCostStrategy(), nil, nil)
	r.RegisterDomain(c)
	r.RegisterDomain(b)
	r.RegisterDomain(a)

	p, err := r.FindRoute(a.Id, c.Id, core.MinimizeCostStrategy())
	if err != nil {
		t.Fatalf("find route: %v", err)
	}
	if p.TotalCost != 4 {
		t.Fatalf("expected composite cost 4 (2+2), got %d", p.TotalCost)
	}
	if len(p.Hops) != 3 {
		t.Fatalf("expected 3-hop path, got %+v", p.Hops)
	}
}

func TestRouterDirectStrategyNoIndirectPath(t *testing.T) {
	c := mkDomain(3, "C", 1)
	b := mkDomain(2, "B", 1, c.Id)
	a := mkDomain(1, "A", 1, b.Id)

	r := core.NewUnifiedRouter(core.DirectStrategy(), nil, nil)
	r.RegisterDomain(c)
	r.RegisterDomain(b)
	r.RegisterDomain(a)

	if _, err := r.FindRoute(a.Id, c.Id, core.DirectStrategy()); err != core.ErrNoRoute {
		t.Fatalf("expected ErrNoRoute for non-adjacent Direct lookup, got %v", err)
	}
}

func TestRouterOfflineDomainExcluded(t *testing.T) {
	b := mkDomain(2, "B", 1)
	b.Status = core.DomainOffline
	a := mkDomain(1, "A", 1, b.Id)

	r := core.NewUnifiedRouter(core.MinimizeCostStrategy(), nil, nil)
	r.RegisterDomain(b)
	r.RegisterDomain(a)

	if _, err := r.FindRoute(a.Id, b.Id, core.MinimizeCostStrategy()); err != core.ErrNoRoute {
		t.Fatalf("expected offline domain to be unreachable, got %v", err)
	}
}

func TestRouterStats(t *testing.T) {
	b := mkDomain(2, "B", 1)
	a := mkDomain(1, "A", 1, b.Id)

	r := core.NewUnifiedRouter(core.MinimizeCostStrategy(), nil, nil)
	r.RegisterDomain(b)
	r.RegisterDomain(a)

	stats := r.Stats()
	if stats.TotalDomains != 2 {
		t.Fatalf("expected 2 domains, got %d", stats.TotalDomains)
	}
	if stats.TotalConnections != 1 {
		t.Fatalf("expected 1 connection, got %d", stats.TotalConnections)
	}
	if stats.TotalRoutes != 2 { // a->b and b->a
		t.Fatalf("expected 2 routes, got %d", stats.TotalRoutes)
	}
}
