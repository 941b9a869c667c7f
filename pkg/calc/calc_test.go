package calc

import "testing"

func TestProgress(t *testing.T) {
	tests := []struct {
		name              string
		downloaded, total int
		want              int
	}{
		{"total_zero", 10, 0, 0},
		{"total_negative", 10, -1, 0},
		{"zero_downloaded", 0, 100, 0},
		{"half", 50, 100, 50},
		{"one_third", 1, 3, 33},
		{"two_thirds", 2, 3, 67},
		{"exact_100", 100, 100, 100},
		{"over_100_clamped", 150, 100, 100},
		{"negative_downloaded", -50, 100, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := Progress(tc.downloaded, tc.total); got != tc.want {
				t.Errorf("Progress(%d, %d) = %d, want %d", tc.downloaded, tc.total, got, tc.want)
			}
		})
	}
}
