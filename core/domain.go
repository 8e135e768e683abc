package core

// LocationKind discriminates a Location: the local domain, or a remote one
// identified by content address.
type LocationKind byte

const (
	LocLocal LocationKind = iota
	LocRemote
)

// Location is either Local or Remote(EntityId); equality follows the
// wrapped EntityId for Remote locations.
type Location struct {
	Kind   LocationKind
	Remote EntityId
}

func LocalLocation() Location { return Location{Kind: LocLocal} }

func RemoteLocation(id EntityId) Location { return Location{Kind: LocRemote, Remote: id} }

func (l Location) Equal(other Location) bool {
	if l.Kind != other.Kind {
		return false
	}
	if l.Kind == LocLocal {
		return true
	}
	return l.Remote == other.Remote
}

func (l Location) String() string {
	if l.Kind == LocLocal {
		return "local"
	}
	return "remote:" + l.Remote.String()
}

// DomainStatus supplements §3's Domain data model with the original
// source's Active/Degraded/Offline tri-state (SPEC_FULL.md supplement
// #5): the router excludes Offline domains when rebuilding its table.
type DomainStatus byte

const (
	DomainActive DomainStatus = iota
	DomainDegraded
	DomainOffline
)

// RoutingInfo is a domain's connectivity and routing policy.
type RoutingInfo struct {
	Connections []Location
	BaseCost    uint64
	MaxHops     uint32
	CanRoute    bool
	Protocols   map[string]struct{}
}

func NewRoutingInfo(baseCost uint64, maxHops uint32, protocols ...string) RoutingInfo {
	set := make(map[string]struct{}, len(protocols))
	for _, p := range protocols {
		set[p] = struct{}{}
	}
	return RoutingInfo{BaseCost: baseCost, MaxHops: maxHops, CanRoute: true, Protocols: set}
}

// Domain is a scope for capabilities and routing, identified by Location.
type Domain struct {
	Id           Location
	Name         string
	Capabilities []string
	Routing      RoutingInfo
	Status       DomainStatus
}

func NewDomain(id Location, name string, routing RoutingInfo, capabilities ...string) *Domain {
	return &Domain{Id: id, Name: name, Capabilities: capabilities, Routing: routing, Status: DomainActive}
}

// RoutingPath is a concrete sequence of hops between two locations.
type RoutingPath struct {
	Hops                 []Location
	TotalCost            uint64
	EstimatedLatencyMs   uint64
	RequiredCapabilities map[string]struct{}
	SupportedProtocols   map[string]struct{}
}

func (p RoutingPath) From() Location { return p.Hops[0] }
func (p RoutingPath) To() Location { return p.Hops[len(p.Hops)-1] }
