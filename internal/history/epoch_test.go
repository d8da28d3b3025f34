package history

import "testing"

func TestEpoch(t *testing.T) {
	cases := []struct {
		ts   uint64
		want uint64
	}{
		{0, 0},
		{604799, 0},
		{604800, 604800},
		{1699999999, 1699488000},
	}
	for _, tc := range cases {
		if got := Epoch(tc.ts, Week); got != tc.want {
			t.Fatalf("Epoch(%d) = %d, want %d", tc.ts, got, tc.want)
		}
	}
	if got := Epoch(1699999999, 0); got != 1699488000 {
		t.Fatalf("default week: got %d", got)
	}
}
