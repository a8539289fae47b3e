package main

import "testing"

func TestWrapLabel(t *testing.T) {
	tests := []struct {
		name  string
		label string
		cols  int
		want  []string
	}{
		{"empty", "", 10, []string{""}},
		{"fits", "short", 10, []string{"short"}},
		{"wraps on words", "alpha beta gamma", 11, []string{"alpha beta", "gamma"}},
		{"hard breaks long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"trims outer space", "  padded  ", 10, []string{"padded"}},
		{"wide rune overflows one column", "界", 1, []string{"界"}},
		{"wide runes after a narrow word", "a 世界", 1, []string{"a", "世界"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := wrapLabel(tc.label, tc.cols)
			if len(got) != len(tc.want) {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("got %q, want %q", got, tc.want)
				}
			}
		})
	}
}

func TestCellMeasurer(t *testing.T) {
	m := NewCellMeasurer()

	// "hi" is one line of 2 columns: (2+4) cells wide, (1+2) tall.
	got := m.Measure("hi")
	want := Size{W: 6 * cellWidth, H: 3 * cellHeight}
	if got != want {
		t.Errorf("measure(hi) = %+v, want %+v", got, want)
	}

	// A label longer than the wrap limit grows down, not right.
	long := m.Measure("one two three four five six seven eight nine ten")
	if long.W > float64(labelWrapCols+4)*cellWidth {
		t.Errorf("wrapped label width %v exceeds the column cap", long.W)
	}
	if long.H <= want.H {
		t.Error("wrapped label did not grow vertically")
	}

	// Empty labels still get a non-degenerate box.
	if s := m.Measure(""); s.W <= 0 || s.H <= 0 {
		t.Errorf("empty label measured %+v", s)
	}
}
