package core

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// StrategyKind enumerates the routing strategies of §4.5.
type StrategyKind byte

const (
	StrategyDirect StrategyKind = iota
	StrategyMinimizeHops
	StrategyMinimizeCost
	StrategyMinimizeLatency
	StrategyPreferProtocols
	StrategyFlooding
	StrategyDistanceVector
	StrategyLinkState
	StrategyCustom
)

type RoutingStrategy struct {
	Kind      StrategyKind
	Protocols map[string]struct{} // PreferProtocols payload
	Name      string              // Custom payload
}

func DirectStrategy() RoutingStrategy { return RoutingStrategy{Kind: StrategyDirect} }
func MinimizeHopsStrategy() RoutingStrategy { return RoutingStrategy{Kind: StrategyMinimizeHops} }
func MinimizeCostStrategy() RoutingStrategy { return RoutingStrategy{Kind: StrategyMinimizeCost} }
func MinimizeLatencyStrategy() RoutingStrategy {
	return RoutingStrategy{Kind: StrategyMinimizeLatency}
}
func PreferProtocolsStrategy(protocols ...string) RoutingStrategy {
	set := make(map[string]struct{}, len(protocols))
	for _, p := range protocols {
		set[p] = struct{}{}
	}
	return RoutingStrategy{Kind: StrategyPreferProtocols, Protocols: set}
}

// ErrNoRoute is returned when a strategy finds no path between two
// locations (e.g. Direct with no edge, or an unreachable pair).
var ErrNoRoute = fmt.Errorf("no route")

// defaultBootstrapCost is the per-endpoint cost used by the unregistered-
// unregistered connectivity escape valve (§4.5).
const defaultBootstrapCost = uint64(1)

type routeCacheKey struct {
	from, to Location
	strategy StrategyKind
}

// UnifiedRouter is the domain registry plus all-pairs router of §4.5. The
// routing table is rebuilt synchronously, under the write lock, on every
// RegisterDomain call; no query observes a partially-rebuilt table (§5).
type UnifiedRouter struct {
	mu sync.RWMutex

	domains      map[Location]*Domain
	domainOrder  []Location
	defaultStrat RoutingStrategy

	directEdges map[[2]Location]RoutingPath
	table       map[Location]map[Location]RoutingPath

	cache *lru.Cache[routeCacheKey, RoutingPath]

	log *logrus.Entry
	tel *Telemetry
}

func NewUnifiedRouter(defaultStrategy RoutingStrategy, log *logrus.Logger, tel *Telemetry) *UnifiedRouter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if tel == nil {
		tel = NewTelemetry()
	}
	cache, _ := lru.New[routeCacheKey, RoutingPath](2048)
	return &UnifiedRouter{
		domains:      make(map[Location]*Domain),
		defaultStrat: defaultStrategy,
		directEdges:  make(map[[2]Location]RoutingPath),
		table:        make(map[Location]map[Location]RoutingPath),
		cache:        cache,
		log:          log.WithField("component", "router"),
		tel:          tel,
	}
}

// RegisterDomain adds or replaces a domain and synchronously rebuilds the
// all-pairs routing table (§9: O(n^3), acceptable because domain counts
// are small in practice).
func (r *UnifiedRouter) RegisterDomain(d *Domain) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.domains[d.Id]; !exists {
		r.domainOrder = append(r.domainOrder, d.Id)
	}
	r.domains[d.Id] = d
	r.rebuildLocked()
	r.cache.Purge()
	r.tel.DomainsRegistered.Set(float64(len(r.domains)))
	r.log.WithField("domain", d.Name).Info("registered domain")
}

func (r *UnifiedRouter) Domain(id Location) (*Domain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.domains[id]
	return d, ok
}

func protocolIntersect(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{})
	if a == nil || b == nil {
		return out
	}
	for p := range a {
		if _, ok := b[p]; ok {
			out[p] = struct{}{}
		}
	}
	return out
}

func capabilitySet(caps []string) map[string]struct{} {
	out := make(map[string]struct{}, len(caps))
	for _, c := range caps {
		out[c] = struct{}{}
	}
	return out
}

func unionSet(a, b map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// rebuildLocked rebuilds directEdges and the all-pairs table from the
// current domain set. Must be called with mu held for writing.
func (r *UnifiedRouter) rebuildLocked() {
	r.directEdges = make(map[[2]Location]RoutingPath)

	for _, id := range r.domainOrder {
		a := r.domains[id]
		if a.Status == DomainOffline {
			continue
		}
		for _, conn := range a.Routing.Connections {
			b, ok := r.domains[conn]
			if !ok || b.Status == DomainOffline {
				continue
			}
			// Direct-edge cost is base_cost(from) + base_cost(to), so it is
			// symmetric. No separate latency weight is modeled: the edge
			// cost doubles as its latency estimate, which is why
			// MinimizeLatency routes over the same table as MinimizeCost.
			cost := a.Routing.BaseCost + b.Routing.BaseCost
			edge := RoutingPath{
				Hops:                 []Location{a.Id, b.Id},
				TotalCost:            cost,
				EstimatedLatencyMs:   cost,
				RequiredCapabilities: capabilitySet(b.Capabilities),
				SupportedProtocols:   protocolIntersect(a.Routing.Protocols, b.Routing.Protocols),
			}
			r.directEdges[[2]Location{a.Id, b.Id}] = edge
			rev := edge
			rev.Hops = []Location{b.Id, a.Id}
			rev.RequiredCapabilities = capabilitySet(a.Capabilities)
			r.directEdges[[2]Location{b.Id, a.Id}] = rev
		}
	}

	r.table = floydWarshall(r.activeLocationsLocked(), r.directEdges)
}

func (r *UnifiedRouter) activeLocationsLocked() []Location {
	out := make([]Location, 0, len(r.domainOrder))
	for _, id := range r.domainOrder {
		if r.domains[id].Status != DomainOffline {
			out = append(out, id)
		}
	}
	return out
}

// floydWarshall computes the minimum-cost RoutingPath between every pair
// of locs, merging composite paths per §4.5: concatenate hops dropping
// the join point, sum cost and latency, union required capabilities,
// intersect supported protocols (which may become empty; the composite
// path is still valid for routing in that case).
func floydWarshall(locs []Location, edges map[[2]Location]RoutingPath) map[Location]map[Location]RoutingPath {
	n := len(locs)
	idx := make(map[Location]int, n)
	for i, l := range locs {
		idx[l] = i
	}

	const inf = ^uint64(0)
	paths := make([][]*RoutingPath, n)
	for i := range paths {
		paths[i] = make([]*RoutingPath, n)
	}
	for pair, edge := range edges {
		i, okI := idx[pair[0]]
		j, okJ := idx[pair[1]]
		if !okI || !okJ {
			continue
		}
		e := edge
		if paths[i][j] == nil || e.TotalCost < paths[i][j].TotalCost {
			paths[i][j] = &e
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if i == k || paths[i][k] == nil {
				continue
			}
			for j := 0; j < n; j++ {
				if j == k || j == i || paths[k][j] == nil {
					continue
				}
				ik := paths[i][k]
				kj := paths[k][j]
				if ik.TotalCost == inf || kj.TotalCost == inf {
					continue
				}
				combinedCost := ik.TotalCost + kj.TotalCost
				if paths[i][j] == nil || combinedCost < paths[i][j].TotalCost {
					hops := make([]Location, 0, len(ik.Hops)+len(kj.Hops)-1)
					hops = append(hops, ik.Hops...)
					hops = append(hops, kj.Hops[1:]...)
					paths[i][j] = &RoutingPath{
						Hops:                 hops,
						TotalCost:            combinedCost,
						EstimatedLatencyMs:   ik.EstimatedLatencyMs + kj.EstimatedLatencyMs,
						RequiredCapabilities: unionSet(ik.RequiredCapabilities, kj.RequiredCapabilities),
						SupportedProtocols:   protocolIntersect(ik.SupportedProtocols, kj.SupportedProtocols),
					}
				}
			}
		}
	}

	table := make(map[Location]map[Location]RoutingPath)
	for i, from := range locs {
		for j, to := range locs {
			if i == j || paths[i][j] == nil {
				continue
			}
			if _, ok := table[from]; !ok {
				table[from] = make(map[Location]RoutingPath)
			}
			table[from][to] = *paths[i][j]
		}
	}
	return table
}

func selfRoute(x Location) RoutingPath {
	return RoutingPath{
		Hops:                 []Location{x},
		TotalCost:            0,
		EstimatedLatencyMs:   0,
		RequiredCapabilities: map[string]struct{}{},
		SupportedProtocols:   map[string]struct{}{},
	}
}

// FindRoute resolves a path from -> to under the given strategy. Self-
// routes always succeed regardless of registration (law #10).
func (r *UnifiedRouter) FindRoute(from, to Location, strategy RoutingStrategy) (*RoutingPath, error) {
	if from.Equal(to) {
		p := selfRoute(from)
		return &p, nil
	}

	key := routeCacheKey{from: from, to: to, strategy: strategy.Kind}
	if strategy.Kind != StrategyPreferProtocols {
		if cached, ok := r.cache.Get(key); ok {
			return &cached, nil
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result *RoutingPath
	var err error
	switch strategy.Kind {
	case StrategyDirect:
		result, err = r.findDirectLocked(from, to)
	case StrategyMinimizeHops, StrategyFlooding, StrategyDistanceVector:
		result, err = r.findMinimizeHopsLocked(from, to)
	case StrategyMinimizeCost, StrategyMinimizeLatency, StrategyLinkState, StrategyCustom:
		result, err = r.findMinimizeCostLocked(from, to)
	case StrategyPreferProtocols:
		result, err = r.findMinimizeCostLocked(from, to)
		// If the found path's protocols don't intersect the request, the
		// spec falls back to plain MinimizeCost, which is exactly what we
		// just computed — there is no alternate candidate path to prefer.
	default:
		result, err = r.findMinimizeCostLocked(from, to)
	}
	if err != nil {
		return nil, err
	}
	if strategy.Kind != StrategyPreferProtocols {
		r.cache.Add(key, *result)
	}
	return result, nil
}

// FindRouteDefault uses the router's configured default strategy.
func (r *UnifiedRouter) FindRouteDefault(from, to Location) (*RoutingPath, error) {
	return r.FindRoute(from, to, r.defaultStrat)
}

func (r *UnifiedRouter) findDirectLocked(from, to Location) (*RoutingPath, error) {
	if edge, ok := r.directEdges[[2]Location{from, to}]; ok {
		p := edge
		return &p, nil
	}
	_, fromRegistered := r.domains[from]
	_, toRegistered := r.domains[to]
	if !fromRegistered && !toRegistered {
		cost := defaultBootstrapCost * 2
		return &RoutingPath{
			Hops:                 []Location{from, to},
			TotalCost:            cost,
			EstimatedLatencyMs:   cost,
			RequiredCapabilities: map[string]struct{}{},
			SupportedProtocols:   map[string]struct{}{},
		}, nil
	}
	return nil, ErrNoRoute
}

func (r *UnifiedRouter) findMinimizeHopsLocked(from, to Location) (*RoutingPath, error) {
	if _, ok := r.domains[from]; !ok {
		return nil, ErrNoRoute
	}
	type frame struct {
		loc  Location
		path []Location
	}
	visited := map[Location]bool{from: true}
	queue := []frame{{loc: from, path: []Location{from}}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.loc.Equal(to) {
			return hopsToPath(cur.path, r.directEdges), nil
		}
		d := r.domains[cur.loc]
		if d == nil {
			continue
		}
		for _, conn := range d.Routing.Connections {
			if visited[conn] {
				continue
			}
			if _, ok := r.domains[conn]; !ok {
				continue
			}
			visited[conn] = true
			next := append(append([]Location(nil), cur.path...), conn)
			queue = append(queue, frame{loc: conn, path: next})
		}
	}
	return nil, ErrNoRoute
}

func hopsToPath(hops []Location, edges map[[2]Location]RoutingPath) *RoutingPath {
	var totalCost, totalLatency uint64
	caps := map[string]struct{}{}
	var protos map[string]struct{}
	for i := 0; i+1 < len(hops); i++ {
		edge, ok := edges[[2]Location{hops[i], hops[i+1]}]
		if !ok {
			continue
		}
		totalCost += edge.TotalCost
		totalLatency += edge.EstimatedLatencyMs
		caps = unionSet(caps, edge.RequiredCapabilities)
		if protos == nil {
			protos = edge.SupportedProtocols
		} else {
			protos = protocolIntersect(protos, edge.SupportedProtocols)
		}
	}
	if protos == nil {
		protos = map[string]struct{}{}
	}
	return &RoutingPath{
		Hops:                 hops,
		TotalCost:            totalCost,
		EstimatedLatencyMs:   totalLatency,
		RequiredCapabilities: caps,
		SupportedProtocols:   protos,
	}
}

func (r *UnifiedRouter) findMinimizeCostLocked(from, to Location) (*RoutingPath, error) {
	byTo, ok := r.table[from]
	if !ok {
		return nil, ErrNoRoute
	}
	p, ok := byTo[to]
	if !ok {
		return nil, ErrNoRoute
	}
	out := p
	return &out, nil
}

// RouterStats are the router's observable aggregate statistics (§4.5).
type RouterStats struct {
	TotalDomains     int
	TotalConnections int
	TotalRoutes      int
	AverageHops      float64
}

func (r *UnifiedRouter) Stats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[[2]Location]bool)
	connections := 0
	for pair := range r.directEdges {
		rev := [2]Location{pair[1], pair[0]}
		if seen[rev] {
			continue
		}
		seen[pair] = true
		connections++
	}

	routes := 0
	totalHops := 0
	for _, byTo := range r.table {
		for _, p := range byTo {
			routes++
			totalHops += len(p.Hops)
		}
	}
	avg := 0.0
	if routes > 0 {
		avg = float64(totalHops) / float64(routes)
	}
	return RouterStats{
		TotalDomains:     len(r.domains),
		TotalConnections: connections,
		TotalRoutes:      routes,
		AverageHops:      avg,
	}
}
