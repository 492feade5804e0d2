package xpath

import (
	"math"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	testdata := []struct {
		input  float64
		output string
	}{
		{1.0, "1"},
		{-1.0, "-1"},
		{0.0, "0"},
		{math.Copysign(0, -1), "0"},
		{1.5, "1.5"},
		{-0.25, "-0.25"},
		{1e21, "1000000000000000000000"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, td := range testdata {
		if got := FormatNumber(td.input); got != td.output {
			t.Errorf("FormatNumber(%v) = %s, want %s", td.input, got, td.output)
		}
	}
}

func TestParseNumber(t *testing.T) {
	testdata := []struct {
		input  string
		output float64
	}{
		{"1", 1},
		{" 12.5 \n", 12.5},
		{"-3", -3},
		{".5", 0.5},
		{"-.5", -0.5},
		{"3.", 3},
		{"0", 0},
	}
	for _, td := range testdata {
		if got := parseNumber(td.input); got != td.output {
			t.Errorf("parseNumber(%q) = %v, want %v", td.input, got, td.output)
		}
	}
	// anything outside the numeric literal grammar is NaN, including forms
	// strconv would accept
	for _, input := range []string{"", " ", "abc", "1e3", "+1", "1.2.3", "0x10", "Infinity", "1 2", "-"} {
		if got := parseNumber(input); !math.IsNaN(got) {
			t.Errorf("parseNumber(%q) = %v, want NaN", input, got)
		}
	}
}

func TestBooleanValue(t *testing.T) {
	testdata := []struct {
		input  Value
		output bool
	}{
		{String("hello"), true},
		{String(""), false},
		{Number(1), true},
		{Number(0), false},
		{Number(math.Copysign(0, -1)), false},
		{Number(math.NaN()), false},
		{Number(math.Inf(-1)), true},
		{Boolean(true), true},
		{NodeSet(nil), false},
	}
	for _, td := range testdata {
		if got := BooleanValue(td.input); got != td.output {
			t.Errorf("BooleanValue(%v) = %t, want %t", td.input, got, td.output)
		}
	}
}

func TestNumberValue(t *testing.T) {
	testdata := []struct {
		input  Value
		output float64
	}{
		{Number(2.5), 2.5},
		{Boolean(true), 1},
		{Boolean(false), 0},
		{String("12"), 12},
		{String(" -4.5 "), -4.5},
	}
	for _, td := range testdata {
		if got := NumberValue(td.input); got != td.output {
			t.Errorf("NumberValue(%v) = %v, want %v", td.input, got, td.output)
		}
	}
	if got := NumberValue(String("abc")); !math.IsNaN(got) {
		t.Errorf("NumberValue(\"abc\") = %v, want NaN", got)
	}
	if got := NumberValue(NodeSet(nil)); !math.IsNaN(got) {
		t.Errorf("NumberValue(empty node-set) = %v, want NaN", got)
	}
}

func TestStringValue(t *testing.T) {
	testdata := []struct {
		input  Value
		output string
	}{
		{String("x"), "x"},
		{Boolean(true), "true"},
		{Boolean(false), "false"},
		{Number(1.0), "1"},
		{Number(math.NaN()), "NaN"},
		{Number(math.Inf(1)), "Infinity"},
		{NodeSet(nil), ""},
	}
	for _, td := range testdata {
		if got := StringValue(td.input); got != td.output {
			t.Errorf("StringValue(%v) = %q, want %q", td.input, got, td.output)
		}
	}
}

func TestNodeSetValue(t *testing.T) {
	if _, err := NodeSetValue(Number(1), "|"); !ErrNotNodeSet.Is(err) {
		t.Errorf("NodeSetValue(Number) error = %v, want ErrNotNodeSet", err)
	}
	ns, err := NodeSetValue(NodeSet(nil), "|")
	if err != nil {
		t.Errorf("NodeSetValue(NodeSet) error = %v", err)
	}
	if len(ns) != 0 {
		t.Errorf("len(ns) = %d, want 0", len(ns))
	}
}

// round() and numeric predicates round half toward positive infinity.
func TestXpathRound(t *testing.T) {
	testdata := []struct {
		input  float64
		output float64
	}{
		{2.5, 3},
		{2.4, 2},
		{-2.5, -2},
		{-2.6, -3},
		{0, 0},
	}
	for _, td := range testdata {
		if got := xpathRound(td.input); got != td.output {
			t.Errorf("xpathRound(%v) = %v, want %v", td.input, got, td.output)
		}
	}
	if got := xpathRound(math.NaN()); !math.IsNaN(got) {
		t.Errorf("xpathRound(NaN) = %v, want NaN", got)
	}
	if got := xpathRound(math.Inf(1)); !math.IsInf(got, 1) {
		t.Errorf("xpathRound(Inf) = %v, want Inf", got)
	}
}
