package model

import "testing"

func TestRecord_StringConversions(t *testing.T) {
	r := NewRecord(DrgsGroup, "AB11", []byte("组名"), int32(1), nil, "1", "", 1.25, "AB1")

	if got := r.String("grpname"); got != "组名" {
		t.Errorf("grpname = %q, want 组名", got)
	}
	if got := r.String("iszz"); got != "1" {
		t.Errorf("iszz = %q, want 1", got)
	}
	if got := r.String("iscz"); got != "" {
		t.Errorf("null iscz = %q, want empty", got)
	}
	if got := r.String("paycw"); got != "1.25" {
		t.Errorf("paycw = %q, want 1.25", got)
	}
	if !r.IsNull("iscz") {
		t.Error("iscz should be null")
	}
}

func TestRecord_Int(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{int64(2), 2, true},
		{" 1 ", 1, true},
		{[]byte("2"), 2, true},
		{2.0, 2, true},
		{2.5, 0, false},
		{"x", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		r := NewRecord(CC, "A01", "T1", "CC", tt.in)
		got, ok := r.Int("ccl")
		if got != tt.want || ok != tt.ok {
			t.Errorf("Int(%v) = %d,%v want %d,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNewRecord_MissingTrailingValuesAreNull(t *testing.T) {
	r := NewRecord(ADRG, "AB1")
	for _, c := range []string{"AdrgName", "ScdLetter", "Dept"} {
		if !r.IsNull(c) {
			t.Errorf("%s should be null", c)
		}
	}
}

func TestRecord_Ordered(t *testing.T) {
	r := NewRecord(DrgsGroup, "AB11", "name", "1", nil, "1", nil, "0.85", "AB1")
	got := r.Ordered()
	if got[2] != int64(1) {
		t.Errorf("iszz = %#v, want int64(1)", got[2])
	}
	if got[3] != nil {
		t.Errorf("iscz = %#v, want nil", got[3])
	}
	if got[6] != 0.85 {
		t.Errorf("paycw = %#v, want 0.85", got[6])
	}
}

func TestDecodeEncode(t *testing.T) {
	r := NewRecord(CC, "A01.000", "T12", "CC", int64(2))
	row, err := Decode[CCRow](r)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if row.DiagCode != "A01.000" || row.TB == nil || *row.TB != "T12" || row.CCL == nil || *row.CCL != 2 {
		t.Fatalf("unexpected row: %+v", row)
	}

	back, err := Encode(CC, row)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if back.String("tb") != "T12" {
		t.Errorf("tb = %q", back.String("tb"))
	}
	if n, _ := back.Int("ccl"); n != 2 {
		t.Errorf("ccl = %d", n)
	}
}

func TestEntityByName(t *testing.T) {
	e, ok := EntityByName("AdrgMdcDiag")
	if !ok || e != MdcDiagPool {
		t.Fatalf("lookup by table name failed: %v %v", e, ok)
	}
	if _, ok := EntityByName("Bogus"); ok {
		t.Error("expected unknown entity")
	}
	if len(EntityNames()) != 10 {
		t.Errorf("expected 10 entities, got %d", len(EntityNames()))
	}
}
