package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ResourceError covers resource-store failures that aren't a capacity
// breach (those get the sharper ResourceLimitExceeded sentinel below).
type ResourceError struct {
	Message string
}

func (e *ResourceError) Error() string { return "resource error: " + e.Message }

// ErrResourceLimitExceeded is returned when creating a resource would push
// the live count past MAX_RESOURCES.
var ErrResourceLimitExceeded = &ResourceError{Message: "resource limit exceeded"}

// Nullifier is the published identifier of a consumed resource; its
// presence in ResourceStore's nullifier set prevents double-consumption.
type Nullifier string

// Resource is a live value held by the machine: a type, the value it
// carries, and the id the register file points at.
type Resource struct {
	Id    ResourceId
	Type  TypeInner
	Value Value
}

// ResourceStore is the pool of live resources up to MAX_RESOURCES, plus
// the separate set of consumed-resource nullifiers.
type ResourceStore struct {
	mu          sync.Mutex
	max         int
	live        map[ResourceId]Resource
	nullifiers  map[Nullifier]struct{}
}

func NewResourceStore(maxResources int) *ResourceStore {
	return &ResourceStore{
		max:        maxResources,
		live:       make(map[ResourceId]Resource),
		nullifiers: make(map[Nullifier]struct{}),
	}
}

// Create allocates a fresh opaque ResourceId and adds it to the live set.
func (s *ResourceStore) Create(t TypeInner, v Value) (ResourceId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.live) >= s.max {
		return "", ErrResourceLimitExceeded
	}
	id := ResourceId(uuid.New().String())
	s.live[id] = Resource{Id: id, Type: t, Value: v}
	return id, nil
}

func (s *ResourceStore) Get(id ResourceId) (Resource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.live[id]
	return r, ok
}

// Consume removes id from the live set and publishes its nullifier.
func (s *ResourceStore) Consume(id ResourceId) (Nullifier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.live[id]; !ok {
		return "", &ResourceError{Message: fmt.Sprintf("resource %s not live", id)}
	}
	delete(s.live, id)
	n := nullifierFor(id)
	s.nullifiers[n] = struct{}{}
	return n, nil
}

func nullifierFor(id ResourceId) Nullifier {
	h := sha256.Sum256([]byte(id))
	return Nullifier(hex.EncodeToString(h[:]))
}

func (s *ResourceStore) IsNullified(n Nullifier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.nullifiers[n]
	return ok
}

func (s *ResourceStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Snapshot copies the current live set for trace recording.
func (s *ResourceStore) Snapshot() []Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Resource, 0, len(s.live))
	for _, r := range s.live {
		out = append(out, r)
	}
	return out
}
