package core

// Boundary is the execution-boundary hint an effect carries: whether it
// executes inside the machine's own bounded world or crosses out to an
// external collaborator.
type Boundary byte

const (
	BoundaryInside Boundary = iota
	BoundaryOutside
)

func (b Boundary) String() string {
	if b == BoundaryOutside {
		return "Outside"
	}
	return "Inside"
}

// Effect is the capability set §6 requires of anything the storage layer
// persists: a stable content-derived id, a type, a boundary hint, a
// validity check, its dependency DAG edges, the resources it touches, and
// the ability to clone itself structurally. Two effects with identical
// serialized form share an EffectId (content-addressing law #4).
type Effect interface {
	Id() EffectId
	TypeId() EffectTypeId
	Boundary() Boundary
	Name() string
	IsValid() bool
	Dependencies() []EffectId
	Modifications() []string
	Clone() Effect
	Encode() []byte
}

// BasicEffect is the default Effect implementation: a plain struct that
// satisfies the capability set without requiring every caller to hand-
// write one. Domain-specific effects can embed it or implement Effect
// directly.
type BasicEffect struct {
	TypeIdValue     EffectTypeId
	BoundaryValue   Boundary
	NameValue       string
	Deps            []EffectId
	Mods            []string
	Payload         Value
}

func NewBasicEffect(typeId EffectTypeId, boundary Boundary, name string, deps []EffectId, mods []string, payload Value) *BasicEffect {
	return &BasicEffect{
		TypeIdValue:   typeId,
		BoundaryValue: boundary,
		NameValue:     name,
		Deps:          append([]EffectId(nil), deps...),
		Mods:          append([]string(nil), mods...),
		Payload:       payload,
	}
}

func (e *BasicEffect) Encode() []byte {
	enc := NewEncoder()
	enc.WriteString(string(e.TypeIdValue))
	enc.WriteTag(byte(e.BoundaryValue))
	enc.WriteString(e.NameValue)
	enc.WriteUint32(uint32(len(e.Deps)))
	for _, d := range e.Deps {
		enc.WriteRaw(EntityId(d).Bytes())
	}
	enc.WriteUint32(uint32(len(e.Mods)))
	for _, m := range e.Mods {
		enc.WriteString(m)
	}
	enc.WriteRaw(e.Payload.Encode())
	return enc.Bytes()
}

func (e *BasicEffect) Id() EffectId { return EffectId(EntityIdFromBytes(e.Encode())) }

func (e *BasicEffect) TypeId() EffectTypeId { return e.TypeIdValue }

func (e *BasicEffect) Boundary() Boundary { return e.BoundaryValue }

func (e *BasicEffect) Name() string { return e.NameValue }

// IsValid requires a non-empty type id and name; domain-specific effects
// with richer validity rules should override by implementing Effect
// directly rather than embedding BasicEffect.
func (e *BasicEffect) IsValid() bool {
	return e.TypeIdValue != "" && e.NameValue != ""
}

func (e *BasicEffect) Dependencies() []EffectId { return append([]EffectId(nil), e.Deps...) }

func (e *BasicEffect) Modifications() []string { return append([]string(nil), e.Mods...) }

func (e *BasicEffect) Clone() Effect {
	return NewBasicEffect(e.TypeIdValue, e.BoundaryValue, e.NameValue, e.Deps, e.Mods, e.Payload)
}

// EffectOutcome is either a successful payload or an error string.
type EffectOutcome struct {
	Ok      bool
	Payload map[string]Value
	Err     string
}

func SuccessOutcome(payload map[string]Value) EffectOutcome {
	return EffectOutcome{Ok: true, Payload: payload}
}

func ErrorOutcome(message string) EffectOutcome {
	return EffectOutcome{Ok: false, Err: message}
}

// EffectOutcomeRecord is the persistable form of EffectOutcome, with the
// payload flattened to string keys/values (via each Value's canonical hex
// encoding, so it survives a JSON/YAML round trip inside a record).
type EffectOutcomeRecord struct {
	Ok      bool
	Payload map[string]string
	Err     string
}

func (o EffectOutcome) ToRecord() EffectOutcomeRecord {
	rec := EffectOutcomeRecord{Ok: o.Ok, Err: o.Err}
	if o.Payload != nil {
		rec.Payload = make(map[string]string, len(o.Payload))
		for k, v := range o.Payload {
			rec.Payload[k] = hexEncode(v.Encode())
		}
	}
	return rec
}

func hexEncode(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0xf]
	}
	return string(out)
}

// EffectExecutionRecord is the timestamped outcome of one execution of one
// effect, stored under key record:<effect_id>:<executed_at> for prefix-
// range retrieval (§4.4).
type EffectExecutionRecord struct {
	EffectId     EffectId
	EffectType   EffectTypeId
	ExecutedAt   int64
	Outcome      EffectOutcomeRecord
	Dependencies []EffectId
	Domain       string
	Metadata     map[string]string
}
