package core

import "sort"

// BaseType is a tagged enumeration of the four primitive types. Encoded as
// a single discriminant byte.
type BaseType byte

const (
	BaseUnit BaseType = iota
	BaseBool
	BaseInt
	BaseSymbol
)

func (b BaseType) String() string {
	switch b {
	case BaseUnit:
		return "Unit"
	case BaseBool:
		return "Bool"
	case BaseInt:
		return "Int"
	case BaseSymbol:
		return "Symbol"
	default:
		return "Unknown"
	}
}

// TypeKind discriminates the recursive TypeInner grammar.
type TypeKind byte

const (
	KindBase TypeKind = iota
	KindProduct
	KindSum
	KindLinearFunction
	KindRecord
)

// RecordField is one entry of a Record type's row, kept sorted by Name so
// the encoding (and therefore the content digest) is canonical.
type RecordField struct {
	Name string
	Type *TypeInner
}

// TypeInner is the recursive type expression. Product/Sum/LinearFunction
// box their children behind a pointer to break unbounded recursion in the
// in-memory representation; Base/Record are the leaves and the
// variable-length case respectively.
type TypeInner struct {
	Kind  TypeKind
	Base  BaseType
	Left  *TypeInner
	Right *TypeInner
	Row   []RecordField
}

// Smart constructors. Unit/Bool/Int/Symbol are nullary; Product/Sum/
// LinearFunction/Record always box their children.

func NewUnitType() TypeInner { return TypeInner{Kind: KindBase, Base: BaseUnit} }
func NewBoolType() TypeInner { return TypeInner{Kind: KindBase, Base: BaseBool} }
func NewIntType() TypeInner { return TypeInner{Kind: KindBase, Base: BaseInt} }
func NewSymbolType() TypeInner { return TypeInner{Kind: KindBase, Base: BaseSymbol} }

func NewProductType(left, right TypeInner) TypeInner {
	return TypeInner{Kind: KindProduct, Left: &left, Right: &right}
}

func NewSumType(left, right TypeInner) TypeInner {
	return TypeInner{Kind: KindSum, Left: &left, Right: &right}
}

func NewLinearFunctionType(domain, codomain TypeInner) TypeInner {
	return TypeInner{Kind: KindLinearFunction, Left: &domain, Right: &codomain}
}

// NewRecordType boxes each field and sorts the row by name so two records
// built from the same fields in different orders encode identically.
func NewRecordType(fields map[string]TypeInner) TypeInner {
	row := make([]RecordField, 0, len(fields))
	for name, t := range fields {
		tt := t
		row = append(row, RecordField{Name: name, Type: &tt})
	}
	sort.Slice(row, func(i, j int) bool { return row[i].Name < row[j].Name })
	return TypeInner{Kind: KindRecord, Row: row}
}

// Equal is structural equality over the type grammar.
func (t TypeInner) Equal(other TypeInner) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindBase:
		return t.Base == other.Base
	case KindProduct, KindSum, KindLinearFunction:
		return t.Left.Equal(*other.Left) && t.Right.Equal(*other.Right)
	case KindRecord:
		if len(t.Row) != len(other.Row) {
			return false
		}
		for i := range t.Row {
			if t.Row[i].Name != other.Row[i].Name || !t.Row[i].Type.Equal(*other.Row[i].Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Encode implements the canonical, self-delimiting binary form: a 1-byte
// kind discriminant, then variant payload. Children are encoded in source
// order with no extra length prefix, since each child's own encoding is
// self-delimiting (decode consumes exactly its own bytes off the shared
// cursor — the "decode-with-remainder" contract of §4.1).
func (t TypeInner) Encode() []byte {
	e := NewEncoder()
	t.encodeInto(e)
	return e.Bytes()
}

func (t TypeInner) encodeInto(e *Encoder) {
	e.WriteTag(byte(t.Kind))
	switch t.Kind {
	case KindBase:
		e.WriteTag(byte(t.Base))
	case KindProduct, KindSum, KindLinearFunction:
		t.Left.encodeInto(e)
		t.Right.encodeInto(e)
	case KindRecord:
		e.WriteUint32(uint32(len(t.Row)))
		for _, f := range t.Row {
			e.WriteString(f.Name)
			f.Type.encodeInto(e)
		}
	}
}

// DecodeTypeInner decodes one TypeInner off the shared cursor, leaving the
// decoder positioned immediately after it so composite containers can
// continue decoding their remainder.
func DecodeTypeInner(d *Decoder) (TypeInner, error) {
	tag, err := d.ReadTag()
	if err != nil {
		return TypeInner{}, err
	}
	switch TypeKind(tag) {
	case KindBase:
		bt, err := d.ReadTag()
		if err != nil {
			return TypeInner{}, err
		}
		if bt > byte(BaseSymbol) {
			return TypeInner{}, &BytesInvalid{Message: "unknown BaseType discriminant"}
		}
		return TypeInner{Kind: KindBase, Base: BaseType(bt)}, nil
	case KindProduct, KindSum, KindLinearFunction:
		left, err := DecodeTypeInner(d)
		if err != nil {
			return TypeInner{}, err
		}
		right, err := DecodeTypeInner(d)
		if err != nil {
			return TypeInner{}, err
		}
		return TypeInner{Kind: TypeKind(tag), Left: &left, Right: &right}, nil
	case KindRecord:
		n, err := d.ReadUint32()
		if err != nil {
			return TypeInner{}, err
		}
		row := make([]RecordField, 0, n)
		for i := uint32(0); i < n; i++ {
			name, err := d.ReadString()
			if err != nil {
				return TypeInner{}, err
			}
			ft, err := DecodeTypeInner(d)
			if err != nil {
				return TypeInner{}, err
			}
			row = append(row, RecordField{Name: name, Type: &ft})
		}
		return TypeInner{Kind: KindRecord, Row: row}, nil
	default:
		return TypeInner{}, &BytesInvalid{Message: "unknown TypeInner discriminant"}
	}
}

// DecodeTypeInnerFull decodes a complete top-level encoding, erroring if
// trailing bytes remain.
func DecodeTypeInnerFull(b []byte) (TypeInner, error) {
	d := NewDecoder(b)
	t, err := DecodeTypeInner(d)
	if err != nil {
		return TypeInner{}, err
	}
	if len(d.Remaining()) != 0 {
		return TypeInner{}, &BytesInvalid{Message: "trailing bytes after TypeInner"}
	}
	return t, nil
}

// Linearity is a phantom marker from {Linear, Affine, Relevant,
// Unrestricted}. It affects static checking only: it is never part of the
// canonical encoding and never participates in the content digest.
type Linearity interface {
	linearityMarker()
}

type LinearMarker struct{}
type AffineMarker struct{}
type RelevantMarker struct{}
type UnrestrictedMarker struct{}

func (LinearMarker) linearityMarker()       {}
func (AffineMarker) linearityMarker()       {}
func (RelevantMarker) linearityMarker()     {}
func (UnrestrictedMarker) linearityMarker() {}

// Type ties a TypeInner to a phantom linearity marker. The marker is a
// property of the reference, not the value: it never affects Encode,
// Equal, or the content digest of the underlying TypeInner.
type Type[L Linearity] struct {
	Inner TypeInner
}

func NewType[L Linearity](inner TypeInner) Type[L] {
	return Type[L]{Inner: inner}
}

// TypeRegistry is an ordered, idempotent map from EntityId to TypeInner.
// Registering the same type content twice is a no-op: the derived id is
// identical, so the second insert leaves the registry unchanged.
type TypeRegistry struct {
	byId  map[EntityId]TypeInner
	order []EntityId
}

func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{byId: make(map[EntityId]TypeInner)}
}

// Register inserts t if not already present and returns its EntityId.
func (r *TypeRegistry) Register(t TypeInner) EntityId {
	id := EntityIdFromBytes(t.Encode())
	if _, ok := r.byId[id]; ok {
		return id
	}
	r.byId[id] = t
	r.order = append(r.order, id)
	return id
}

func (r *TypeRegistry) Get(id EntityId) (TypeInner, bool) {
	t, ok := r.byId[id]
	return t, ok
}

// Ids returns registered ids in insertion order.
func (r *TypeRegistry) Ids() []EntityId {
	out := make([]EntityId, len(r.order))
	copy(out, r.order)
	return out
}

func (r *TypeRegistry) Len() int { return len(r.byId) }
