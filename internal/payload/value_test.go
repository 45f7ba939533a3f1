package payload

import "testing"

func TestParsePreservesObjectKeyOrder(t *testing.T) {
	v, err := Parse([]byte(`{"z":1,"a":2,"m":3}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := v.Keys()
	want := []string{"z", "a", "m"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keys = %v, want %v", got, want)
		}
	}
}

func TestParseObjectRejectsNonObjectRoot(t *testing.T) {
	if _, err := ParseObject([]byte(`[1,2,3]`)); err == nil {
		t.Fatalf("expected error for array root")
	}
	if _, err := ParseObject([]byte(`"hello"`)); err == nil {
		t.Fatalf("expected error for string root")
	}
	if _, err := ParseObject([]byte(`{"ok":true}`)); err != nil {
		t.Fatalf("expected object root to parse, got %v", err)
	}
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	if _, err := Parse([]byte(`{"a":1} garbage`)); err == nil {
		t.Fatalf("expected trailing-data error")
	}
}

func TestDuplicateKeysKeepLastValueFirstPosition(t *testing.T) {
	v, err := Parse([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := v.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("keys = %v, want [a b]", got)
	}
	field, ok := v.Field("a")
	if !ok {
		t.Fatalf("expected field a")
	}
	n, _ := field.NumberValue()
	if n != 3 {
		t.Fatalf("a = %v, want 3 (last value wins)", n)
	}
}

func TestMarshalJSONPreservesInsertionOrderNotSorted(t *testing.T) {
	v, err := Parse([]byte(`{"z":1,"a":2}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"z":1,"a":2}` {
		t.Fatalf("marshal = %s, want insertion order preserved", out)
	}
}

func TestCanonicalJSONSortsKeysAtEveryLevel(t *testing.T) {
	v, err := Parse([]byte(`{"z":{"y":1,"x":2},"a":1}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got := CanonicalJSON(v)
	want := `{"a":1,"z":{"x":2,"y":1}}`
	if got != want {
		t.Fatalf("canonical = %s, want %s", got, want)
	}
}

func TestEqualIgnoresKeyOrder(t *testing.T) {
	a, _ := Parse([]byte(`{"a":1,"b":2}`))
	b, _ := Parse([]byte(`{"b":2,"a":1}`))
	if !Equal(a, b) {
		t.Fatalf("expected values with reordered keys to be equal")
	}
	c, _ := Parse([]byte(`{"a":1,"b":3}`))
	if Equal(a, c) {
		t.Fatalf("expected values with differing field values to be unequal")
	}
}

func TestCanonicalJSONTruncatesOversizeStrings(t *testing.T) {
	big := make([]byte, canonicalStringBound+1)
	for i := range big {
		big[i] = 'x'
	}
	v := String(string(big))
	got := CanonicalJSON(v)
	if got == `"`+string(big)+`"` {
		t.Fatalf("expected oversize string to be replaced by sentinel")
	}
}

func TestDetectReportsKindForEveryVariant(t *testing.T) {
	cases := []struct {
		v    Value
		want Kind
	}{
		{Null(), KindNull},
		{String("s"), KindString},
		{Number(1), KindNumber},
		{Boolean(true), KindBoolean},
		{Array(nil), KindArray},
		{Object(nil, map[string]Value{}), KindObject},
	}
	for _, c := range cases {
		if got := Detect(c.v); got != c.want {
			t.Fatalf("Detect(%v) = %s, want %s", c.v, got, c.want)
		}
	}
}

func TestRoundTripMarshalUnmarshal(t *testing.T) {
	orig, err := Parse([]byte(`{"a":[1,2,"x"],"b":{"c":true,"d":null}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	raw, err := orig.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var roundTripped Value
	if err := roundTripped.UnmarshalJSON(raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !Equal(orig, roundTripped) {
		t.Fatalf("round trip changed value: %s vs %s", CanonicalJSON(orig), CanonicalJSON(roundTripped))
	}
}
