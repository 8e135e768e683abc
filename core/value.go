package core

import "sort"

// ValueKind discriminates the Value grammar's runtime variants.
type ValueKind byte

const (
	ValUnit ValueKind = iota
	ValBool
	ValInt
	ValSymbol
	ValString
	ValProduct
	ValSum
	ValRecord
)

// ValueField is one entry of a Record value, kept sorted by Name at
// construction time so encoding is canonical regardless of build order.
type ValueField struct {
	Name  string
	Value Value
}

// Value is the runtime inhabitant of a TypeInner. Every Value knows its
// own type via ValueType(). Encoding is deterministic and round-trip
// lossless for every variant.
type Value struct {
	Kind     ValueKind
	BoolVal  bool
	IntVal   uint32
	StrVal   string // Symbol and String share this field
	Left     *Value // Product
	Right    *Value // Product
	SumTag   byte   // Sum: 0 = left, 1 = right
	SumValue *Value
	Fields   []ValueField // Record, sorted by Name
}

func NewUnitValue() Value { return Value{Kind: ValUnit} }
func NewBoolValue(b bool) Value { return Value{Kind: ValBool, BoolVal: b} }
func NewIntValue(i uint32) Value { return Value{Kind: ValInt, IntVal: i} }
func NewSymbolValue(s string) Value { return Value{Kind: ValSymbol, StrVal: s} }
func NewStringValue(s string) Value { return Value{Kind: ValString, StrVal: s} }

func NewProductValue(left, right Value) Value {
	return Value{Kind: ValProduct, Left: &left, Right: &right}
}

// NewSumValue builds a tagged sum: tag 0 selects the left injection, tag 1
// the right injection, matching TypeInner's Sum(left, right) ordering.
func NewSumValue(tag byte, v Value) Value {
	return Value{Kind: ValSum, SumTag: tag, SumValue: &v}
}

func NewRecordValue(fields map[string]Value) Value {
	out := make([]ValueField, 0, len(fields))
	for name, v := range fields {
		out = append(out, ValueField{Name: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return Value{Kind: ValRecord, Fields: out}
}

// Equal is structural equality over the value grammar.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValUnit:
		return true
	case ValBool:
		return v.BoolVal == other.BoolVal
	case ValInt:
		return v.IntVal == other.IntVal
	case ValSymbol, ValString:
		return v.StrVal == other.StrVal
	case ValProduct:
		return v.Left.Equal(*other.Left) && v.Right.Equal(*other.Right)
	case ValSum:
		return v.SumTag == other.SumTag && v.SumValue.Equal(*other.SumValue)
	case ValRecord:
		if len(v.Fields) != len(other.Fields) {
			return false
		}
		for i := range v.Fields {
			if v.Fields[i].Name != other.Fields[i].Name || !v.Fields[i].Value.Equal(other.Fields[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ValueType returns the TypeInner this value inhabits. Per §4.2, the
// returned view is always Unrestricted: linearity is a property of the
// reference that held the value, not of the value itself. BaseType has no
// String variant (§3 lists exactly four); a runtime String value's static
// type is the closest BaseType, Symbol.
func (v Value) ValueType() Type[UnrestrictedMarker] {
	return NewType[UnrestrictedMarker](v.typeInner())
}

func (v Value) typeInner() TypeInner {
	switch v.Kind {
	case ValUnit:
		return NewUnitType()
	case ValBool:
		return NewBoolType()
	case ValInt:
		return NewIntType()
	case ValSymbol, ValString:
		return NewSymbolType()
	case ValProduct:
		return NewProductType(v.Left.typeInner(), v.Right.typeInner())
	case ValSum:
		// Without a held type annotation the non-selected branch's type is
		// unknown at runtime; both sides collapse to the selected branch's
		// type. Static call sites should prefer the annotated Type[L] form.
		t := v.SumValue.typeInner()
		return NewSumType(t, t)
	case ValRecord:
		fields := make(map[string]TypeInner, len(v.Fields))
		for _, f := range v.Fields {
			fields[f.Name] = f.Value.typeInner()
		}
		return NewRecordType(fields)
	default:
		return NewUnitType()
	}
}

// Encode implements the canonical binary form described in §4.1/§4.2.
func (v Value) Encode() []byte {
	e := NewEncoder()
	v.encodeInto(e)
	return e.Bytes()
}

func (v Value) encodeInto(e *Encoder) {
	e.WriteTag(byte(v.Kind))
	switch v.Kind {
	case ValUnit:
	case ValBool:
		e.WriteBool(v.BoolVal)
	case ValInt:
		e.WriteUint32(v.IntVal)
	case ValSymbol, ValString:
		e.WriteString(v.StrVal)
	case ValProduct:
		v.Left.encodeInto(e)
		v.Right.encodeInto(e)
	case ValSum:
		e.WriteTag(v.SumTag)
		v.SumValue.encodeInto(e)
	case ValRecord:
		e.WriteUint32(uint32(len(v.Fields)))
		for _, f := range v.Fields {
			e.WriteString(f.Name)
			f.Value.encodeInto(e)
		}
	}
}

// DecodeValue decodes one Value off the shared cursor (decode-with-
// remainder), leaving the decoder positioned immediately after it.
func DecodeValue(d *Decoder) (Value, error) {
	tag, err := d.ReadTag()
	if err != nil {
		return Value{}, err
	}
	switch ValueKind(tag) {
	case ValUnit:
		return Value{Kind: ValUnit}, nil
	case ValBool:
		b, err := d.ReadBool()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValBool, BoolVal: b}, nil
	case ValInt:
		i, err := d.ReadUint32()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValInt, IntVal: i}, nil
	case ValSymbol, ValString:
		s, err := d.ReadString()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueKind(tag), StrVal: s}, nil
	case ValProduct:
		left, err := DecodeValue(d)
		if err != nil {
			return Value{}, err
		}
		right, err := DecodeValue(d)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValProduct, Left: &left, Right: &right}, nil
	case ValSum:
		sumTag, err := d.ReadTag()
		if err != nil {
			return Value{}, err
		}
		inner, err := DecodeValue(d)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValSum, SumTag: sumTag, SumValue: &inner}, nil
	case ValRecord:
		n, err := d.ReadUint32()
		if err != nil {
			return Value{}, err
		}
		fields := make([]ValueField, 0, n)
		for i := uint32(0); i < n; i++ {
			name, err := d.ReadString()
			if err != nil {
				return Value{}, err
			}
			fv, err := DecodeValue(d)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, ValueField{Name: name, Value: fv})
		}
		return Value{Kind: ValRecord, Fields: fields}, nil
	default:
		return Value{}, &BytesInvalid{Message: "unknown Value discriminant"}
	}
}

// DecodeValueFull decodes a complete top-level encoding, erroring if
// trailing bytes remain.
func DecodeValueFull(b []byte) (Value, error) {
	d := NewDecoder(b)
	v, err := DecodeValue(d)
	if err != nil {
		return Value{}, err
	}
	if len(d.Remaining()) != 0 {
		return Value{}, &BytesInvalid{Message: "trailing bytes after Value"}
	}
	return v, nil
}
