package core

import (
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// StoreError taxonomy (§4.4): NotFound is ErrNotFound from kv.go;
// everything else here carries its own message.
type StorageError struct{ Message string }

func (e *StorageError) Error() string { return "storage error: " + e.Message }

type SerializationError struct{ Message string }

func (e *SerializationError) Error() string { return "serialization error: " + e.Message }

type AlreadyExistsError struct{ Id EffectId }

func (e *AlreadyExistsError) Error() string { return fmt.Sprintf("effect %s already exists", e.Id) }

type InternalStoreError struct{ Message string }

func (e *InternalStoreError) Error() string { return "internal error: " + e.Message }

// ContentStore is the content-addressed effect store of §4.4: a KV-backed
// persistence layer plus three in-memory secondary indexes and an
// execution-record history, all updated after (never before) the
// underlying KV write succeeds.
type ContentStore struct {
	mu sync.RWMutex

	kv  KV
	log *logrus.Entry
	tel *Telemetry

	typeIndex       map[EffectTypeId]map[EffectId]struct{}
	domainIndex     map[string]map[EffectId]struct{}
	dependencyIndex map[EffectId]map[EffectId]struct{} // dep -> dependents

	cache *lru.Cache[EffectId, *BasicEffect]
}

func NewContentStore(kv KV, log *logrus.Logger, tel *Telemetry) *ContentStore {
	return NewContentStoreWithCacheSize(kv, log, tel, 1024)
}

// NewContentStoreWithCacheSize is NewContentStore with an explicit LRU
// cache capacity, for use with the ambient config layer's
// StoreConfig.CacheSize.
func NewContentStoreWithCacheSize(kv KV, log *logrus.Logger, tel *Telemetry, cacheSize int) *ContentStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if tel == nil {
		tel = NewTelemetry()
	}
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, _ := lru.New[EffectId, *BasicEffect](cacheSize)
	return &ContentStore{
		kv:              kv,
		log:             log.WithField("component", "effect_store"),
		tel:             tel,
		typeIndex:       make(map[EffectTypeId]map[EffectId]struct{}),
		domainIndex:     make(map[string]map[EffectId]struct{}),
		dependencyIndex: make(map[EffectId]map[EffectId]struct{}),
		cache:           cache,
	}
}

// StoreEffect persists e exactly once, keyed by its content digest. A
// second call with the same effect id returns AlreadyExistsError without
// mutating anything (content-addressing law #5).
func (s *ContentStore) StoreEffect(e Effect) (EffectId, error) {
	eid := e.Id()

	has, err := s.HasEffect(eid)
	if err != nil {
		return EffectId{}, err
	}
	if has {
		return EffectId{}, &AlreadyExistsError{Id: eid}
	}

	data := e.Encode()
	contentId, err := s.kv.Store(data)
	if err != nil {
		return EffectId{}, &StorageError{Message: err.Error()}
	}
	if contentId != eid.String() {
		return EffectId{}, &InternalStoreError{Message: "kv content id diverged from effect id"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexTypeLocked(e.TypeId(), eid)
	for _, dep := range e.Dependencies() {
		s.indexDependencyLocked(dep, eid)
	}
	s.tel.EffectsStored.Inc()
	s.log.WithField("effect_id", eid.String()).Info("stored effect")
	return eid, nil
}

// StoreEffectInDomain is a convenience wrapper for callers that also want
// the domain index populated; the base Effect capability (§6) carries no
// domain field of its own, so domain association is the store's concern.
func (s *ContentStore) StoreEffectInDomain(e Effect, domain string) (EffectId, error) {
	eid, err := s.StoreEffect(e)
	if err != nil {
		return EffectId{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexDomainLocked(domain, eid)
	return eid, nil
}

func (s *ContentStore) indexTypeLocked(t EffectTypeId, id EffectId) {
	set, ok := s.typeIndex[t]
	if !ok {
		set = make(map[EffectId]struct{})
		s.typeIndex[t] = set
	}
	set[id] = struct{}{}
}

func (s *ContentStore) indexDomainLocked(d string, id EffectId) {
	set, ok := s.domainIndex[d]
	if !ok {
		set = make(map[EffectId]struct{})
		s.domainIndex[d] = set
	}
	set[id] = struct{}{}
}

func (s *ContentStore) indexDependencyLocked(dep, dependent EffectId) {
	set, ok := s.dependencyIndex[dep]
	if !ok {
		set = make(map[EffectId]struct{})
		s.dependencyIndex[dep] = set
	}
	set[dependent] = struct{}{}
}

// GetEffect fetches and deserializes an effect. Custom Effect
// implementations round-trip through BasicEffect's wire format; a domain
// type that needs richer behavior should wrap the decoded BasicEffect.
func (s *ContentStore) GetEffect(id EffectId) (Effect, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached, nil
	}
	data, err := s.kv.Get(id.String())
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Message: err.Error()}
	}
	e, err := DecodeBasicEffect(data)
	if err != nil {
		return nil, &SerializationError{Message: err.Error()}
	}
	s.cache.Add(id, e)
	return e, nil
}

func (s *ContentStore) HasEffect(id EffectId) (bool, error) {
	ok, err := s.kv.Exists(id.String())
	if err != nil {
		return false, &StorageError{Message: err.Error()}
	}
	return ok, nil
}

func recordKey(eid EffectId, executedAt int64) string {
	return fmt.Sprintf("record:%s:%020d", eid.String(), executedAt)
}

// StoreExecutionRecord appends a record for r.EffectId, which must already
// be stored.
func (s *ContentStore) StoreExecutionRecord(r EffectExecutionRecord) error {
	has, err := s.HasEffect(r.EffectId)
	if err != nil {
		return err
	}
	if !has {
		return ErrNotFound
	}
	data, err := encodeExecutionRecord(r)
	if err != nil {
		return &SerializationError{Message: err.Error()}
	}
	if err := s.kv.StoreWithKey(recordKey(r.EffectId, r.ExecutedAt), data); err != nil {
		return &StorageError{Message: err.Error()}
	}
	return nil
}

// GetExecutionRecords returns every record for eid ordered by ExecutedAt
// ascending, via prefix enumeration (the zero-padded timestamp in the key
// already sorts lexicographically in execution order).
func (s *ContentStore) GetExecutionRecords(eid EffectId) ([]EffectExecutionRecord, error) {
	prefix := fmt.Sprintf("record:%s:", eid.String())
	keys, err := s.kv.FindKeysWithPrefix(prefix)
	if err != nil {
		return nil, &StorageError{Message: err.Error()}
	}
	out := make([]EffectExecutionRecord, 0, len(keys))
	for _, k := range keys {
		data, err := s.kv.GetByKey(k)
		if err != nil {
			return nil, &StorageError{Message: err.Error()}
		}
		rec, err := decodeExecutionRecord(data)
		if err != nil {
			return nil, &SerializationError{Message: err.Error()}
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecutedAt < out[j].ExecutedAt })
	return out, nil
}

// VerifyIntegrity re-derives the content digest of the stored effect and
// compares it to id, a supplemented op ported from the original's
// ContentHash cross-check (SPEC_FULL.md supplement #3).
func (s *ContentStore) VerifyIntegrity(id EffectId) (bool, error) {
	e, err := s.GetEffect(id)
	if err != nil {
		return false, err
	}
	return e.Id() == id, nil
}

func (s *ContentStore) FindEffectsByType(t EffectTypeId) []EffectId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.typeIndex[t]
	out := make([]EffectId, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (s *ContentStore) FindEffectsByDomain(d string) []EffectId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.domainIndex[d]
	out := make([]EffectId, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// FindDependentEffects returns effects that listed e as a dependency.
func (s *ContentStore) FindDependentEffects(e EffectId) []EffectId {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := s.dependencyIndex[e]
	out := make([]EffectId, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// --- execution record wire format -----------------------------------------

func encodeExecutionRecord(r EffectExecutionRecord) ([]byte, error) {
	enc := NewEncoder()
	enc.WriteRaw(EntityId(r.EffectId).Bytes())
	enc.WriteString(string(r.EffectType))
	enc.WriteUint64(uint64(r.ExecutedAt))
	enc.WriteBool(r.Outcome.Ok)
	enc.WriteString(r.Outcome.Err)
	enc.WriteUint32(uint32(len(r.Outcome.Payload)))
	keys := make([]string, 0, len(r.Outcome.Payload))
	for k := range r.Outcome.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		enc.WriteString(k)
		enc.WriteString(r.Outcome.Payload[k])
	}
	enc.WriteUint32(uint32(len(r.Dependencies)))
	for _, d := range r.Dependencies {
		enc.WriteRaw(EntityId(d).Bytes())
	}
	enc.WriteString(r.Domain)
	enc.WriteUint32(uint32(len(r.Metadata)))
	mkeys := make([]string, 0, len(r.Metadata))
	for k := range r.Metadata {
		mkeys = append(mkeys, k)
	}
	sort.Strings(mkeys)
	for _, k := range mkeys {
		enc.WriteString(k)
		enc.WriteString(r.Metadata[k])
	}
	return enc.Bytes(), nil
}

func decodeExecutionRecord(data []byte) (EffectExecutionRecord, error) {
	d := NewDecoder(data)
	var r EffectExecutionRecord

	idBytes, err := d.ReadFixed(32)
	if err != nil {
		return r, err
	}
	var eid EntityId
	copy(eid[:], idBytes)
	r.EffectId = EffectId(eid)

	typ, err := d.ReadString()
	if err != nil {
		return r, err
	}
	r.EffectType = EffectTypeId(typ)

	executedAt, err := d.ReadUint64()
	if err != nil {
		return r, err
	}
	r.ExecutedAt = int64(executedAt)

	ok, err := d.ReadBool()
	if err != nil {
		return r, err
	}
	r.Outcome.Ok = ok

	errMsg, err := d.ReadString()
	if err != nil {
		return r, err
	}
	r.Outcome.Err = errMsg

	n, err := d.ReadUint32()
	if err != nil {
		return r, err
	}
	if n > 0 {
		r.Outcome.Payload = make(map[string]string, n)
		for i := uint32(0); i < n; i++ {
			k, err := d.ReadString()
			if err != nil {
				return r, err
			}
			v, err := d.ReadString()
			if err != nil {
				return r, err
			}
			r.Outcome.Payload[k] = v
		}
	}

	ndeps, err := d.ReadUint32()
	if err != nil {
		return r, err
	}
	for i := uint32(0); i < ndeps; i++ {
		depBytes, err := d.ReadFixed(32)
		if err != nil {
			return r, err
		}
		var depId EntityId
		copy(depId[:], depBytes)
		r.Dependencies = append(r.Dependencies, EffectId(depId))
	}

	domain, err := d.ReadString()
	if err != nil {
		return r, err
	}
	r.Domain = domain

	nmeta, err := d.ReadUint32()
	if err != nil {
		return r, err
	}
	if nmeta > 0 {
		r.Metadata = make(map[string]string, nmeta)
		for i := uint32(0); i < nmeta; i++ {
			k, err := d.ReadString()
			if err != nil {
				return r, err
			}
			v, err := d.ReadString()
			if err != nil {
				return r, err
			}
			r.Metadata[k] = v
		}
	}
	return r, nil
}

// DecodeBasicEffect inverts BasicEffect.Encode.
func DecodeBasicEffect(data []byte) (*BasicEffect, error) {
	d := NewDecoder(data)
	typeId, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	boundaryTag, err := d.ReadTag()
	if err != nil {
		return nil, err
	}
	name, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	ndeps, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	deps := make([]EffectId, 0, ndeps)
	for i := uint32(0); i < ndeps; i++ {
		b, err := d.ReadFixed(32)
		if err != nil {
			return nil, err
		}
		var eid EntityId
		copy(eid[:], b)
		deps = append(deps, EffectId(eid))
	}
	nmods, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	mods := make([]string, 0, nmods)
	for i := uint32(0); i < nmods; i++ {
		m, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	payload, err := DecodeValue(d)
	if err != nil {
		return nil, err
	}
	return &BasicEffect{
		TypeIdValue:   EffectTypeId(typeId),
		BoundaryValue: Boundary(boundaryTag),
		NameValue:     name,
		Deps:          deps,
		Mods:          mods,
		Payload:       payload,
	}, nil
}
