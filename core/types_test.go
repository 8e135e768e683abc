package core_test

import (
	"testing"

	core "causality/core"
)

func TestTypeInnerRoundTripEveryVariant(t *testing.T) {
	types := []core.TypeInner{
		core.NewUnitType(),
		core.NewBoolType(),
		core.NewIntType(),
		core.NewSymbolType(),
		core.NewProductType(core.NewIntType(), core.NewBoolType()),
		core.NewSumType(core.NewIntType(), core.NewSymbolType()),
		core.NewLinearFunctionType(core.NewIntType(), core.NewBoolType()),
		core.NewRecordType(map[string]core.TypeInner{
			"b": core.NewIntType(),
			"a": core.NewBoolType(),
		}),
	}
	for i, ty := range types {
		decoded, err := core.DecodeTypeInnerFull(ty.Encode())
		if err != nil {
			t.Fatalf("case %d: decode: %v", i, err)
		}
		if !decoded.Equal(ty) {
			t.Fatalf("case %d: round-trip mismatch: %+v != %+v", i, decoded, ty)
		}
	}
}

func TestTypeRegistryIdempotentInsert(t *testing.T) {
	reg := core.NewTypeRegistry()
	id1 := reg.Register(core.NewIntType())
	id2 := reg.Register(core.NewIntType())
	if id1 != id2 {
		t.Fatalf("expected identical types to register under the same id")
	}
	if reg.Len() != 1 {
		t.Fatalf("expected idempotent insert to keep registry at length 1, got %d", reg.Len())
	}

	got, ok := reg.Get(id1)
	if !ok || !got.Equal(core.NewIntType()) {
		t.Fatalf("expected registry lookup to return the registered type")
	}
}

func TestTypedLinearityMarkers(t *testing.T) {
	lt := core.NewType[core.LinearMarker](core.NewIntType())
	ut := core.NewType[core.UnrestrictedMarker](core.NewIntType())
	if !lt.Inner.Equal(ut.Inner) {
		t.Fatalf("expected the underlying TypeInner to be identical across linearity markers")
	}
}
