package types

import (
	"strings"
	"testing"
)

func TestOutpoint_IsZero(t *testing.T) {
	var zero Outpoint
	if !zero.IsZero() {
		t.Error("zero-value Outpoint should be zero")
	}

	nonZero := Outpoint{TxID: "ab", Index: 0}
	if nonZero.IsZero() {
		t.Error("Outpoint with TxID should not be zero")
	}

	nonZero2 := Outpoint{Index: 1}
	if nonZero2.IsZero() {
		t.Error("Outpoint with non-zero Index should not be zero")
	}
}

func TestOutpoint_String(t *testing.T) {
	o := Outpoint{TxID: "abcd", Index: 3}
	s := o.String()
	if !strings.HasPrefix(s, "abcd") {
		t.Errorf("String() should start with txid, got %s", s)
	}
	if !strings.HasSuffix(s, ":3") {
		t.Errorf("String() should end with ':3', got %s", s)
	}
}

func TestParseOutpoint(t *testing.T) {
	o := Outpoint{TxID: "deadbeef", Index: 12}
	got, err := ParseOutpoint(o.String())
	if err != nil {
		t.Fatalf("ParseOutpoint: %v", err)
	}
	if got != o {
		t.Errorf("ParseOutpoint = %+v, want %+v", got, o)
	}

	for _, bad := range []string{"", "abc", ":1", "abc:", "abc:x", "abc:-1"} {
		if _, err := ParseOutpoint(bad); err == nil {
			t.Errorf("ParseOutpoint(%q) should fail", bad)
		}
	}
}
