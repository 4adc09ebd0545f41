package types

import (
	"reflect"
	"testing"
)

func TestAsBool_WrongKindReturnsFalse(t *testing.T) {
	v := IntValue(1)

	if _, ok := v.AsBool(); ok {
		t.Error("expected AsBool to reject an int value")
	}
}

func TestAsInt_ReturnsStoredValue(t *testing.T) {
	v := IntValue(42)

	got, ok := v.AsInt()
	if !ok || got != 42 {
		t.Errorf("expected (42, true), got (%d, %v)", got, ok)
	}
}

func TestAsString_NoneReturnsFalse(t *testing.T) {
	if _, ok := NoValue().AsString(); ok {
		t.Error("expected AsString to reject the none value")
	}
}

func TestIDSetValue_SortsAndDeduplicates(t *testing.T) {
	v := IDSetValue("cloak", "apple", "cloak")

	ids, ok := v.AsIDSet()
	if !ok {
		t.Fatal("expected an ID set value")
	}
	want := []string{"apple", "cloak"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestIsTrue_OnlyTrueBoolIsTrue(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"true bool", BoolValue(true), true},
		{"false bool", BoolValue(false), false},
		{"nonzero int", IntValue(7), false},
		{"string", StringValue("yes"), false},
		{"none", NoValue(), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.IsTrue(); got != tc.want {
				t.Errorf("IsTrue(%s) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestEqual_DistinguishesKinds(t *testing.T) {
	if IntValue(0).Equal(BoolValue(false)) {
		t.Error("expected int 0 and bool false to differ")
	}
}

func TestEqual_IDSetComparesElements(t *testing.T) {
	if !IDSetValue("a", "b").Equal(IDSetValue("b", "a")) {
		t.Error("expected ID sets with the same members to be equal")
	}
	if IDSetValue("a").Equal(IDSetValue("a", "b")) {
		t.Error("expected ID sets with different members to differ")
	}
}

func TestEncodeParent_RoundTrips(t *testing.T) {
	cases := []Parent{
		InLocation("bar"),
		InItem("hook"),
		HeldByPlayer(),
		Nowhere(),
	}
	for _, p := range cases {
		if got := DecodeParent(EncodeParent(p)); got != p {
			t.Errorf("round trip of %v produced %v", p, got)
		}
	}
}

func TestDecodeParent_MalformedReadsAsNowhere(t *testing.T) {
	if got := DecodeParent(StringValue("garbage")); got != Nowhere() {
		t.Errorf("expected nowhere, got %v", got)
	}
	if got := DecodeParent(IntValue(3)); got != Nowhere() {
		t.Errorf("expected nowhere for non-string, got %v", got)
	}
}
