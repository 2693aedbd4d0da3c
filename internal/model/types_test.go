package model

import (
	"math"
	"testing"
)

func TestRecordFromFields_DefaultsMissing(t *testing.T) {
	rec := RecordFromFields("id-1", map[string]any{
		"name":       "Ada",
		"class":      float64(10),
		"rollNumber": nil,
		"section":    false,
		"phone":      float64(0),
	})
	if rec.ID != "id-1" || rec.Name != "Ada" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Class != "10" {
		t.Fatalf("expected class 10, got %q", rec.Class)
	}
	if rec.RollNumber != "" || rec.Section != "" || rec.Phone != "" || rec.Address != "" {
		t.Fatalf("expected empty defaults, got %+v", rec)
	}
}

func TestCoerceString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"", ""},
		{"x", "x"},
		{true, "true"},
		{false, ""},
		{float64(2.5), "2.5"},
		{float64(0), ""},
		{int(7), "7"},
		{int32(-3), "-3"},
		{int32(0), ""},
		{uint64(42), "42"},
		{uint8(0), ""},
		{float32(1.5), "1.5"},
		{math.NaN(), ""},
		{[]any{"a", float64(1)}, "a,1"},
		{map[string]any{"a": 1}, "[object Object]"},
	}
	for _, tc := range cases {
		if got := CoerceString(tc.in); got != tc.want {
			t.Fatalf("CoerceString(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDraftFields_IncludesEveryField(t *testing.T) {
	fields := Draft{Name: "Ada"}.Fields("2026-01-01T00:00:00.000Z")
	for _, key := range DraftFields {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing field %q", key)
		}
	}
	if fields[FieldCreatedAt] != "2026-01-01T00:00:00.000Z" {
		t.Fatalf("unexpected createdAt: %v", fields[FieldCreatedAt])
	}
	if _, ok := (Draft{}).Fields("")[FieldCreatedAt]; ok {
		t.Fatalf("expected createdAt omitted")
	}
}
