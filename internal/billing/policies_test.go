package billing

import "testing"

func TestMinutesBilled_RoundsUpToCentiMinute(t *testing.T) {
	cases := []struct {
		seconds int
		want    float64
	}{
		{0, 0},
		{-10, 0},
		{1, 0.02},  // 0.0166 min
		{18, 0.30}, // exact boundary, no float drift
		{60, 1.00},
		{61, 1.02},
		{125, 2.09},
		{3600, 60.00},
	}
	for _, tc := range cases {
		if got := MinutesBilled(tc.seconds); got != tc.want {
			t.Fatalf("MinutesBilled(%d) = %v, want %v", tc.seconds, got, tc.want)
		}
	}
}

func TestMinutesBilled_NeverUndercounts(t *testing.T) {
	for sec := 0; sec <= 700; sec++ {
		if MinutesBilled(sec)*60 < float64(sec)-1e-9 {
			t.Fatalf("MinutesBilled(%d) undercounts wall clock", sec)
		}
	}
}

func TestFineMinutes_SixSecondIncrements(t *testing.T) {
	cases := []struct {
		seconds int
		want    float64
	}{
		{0, 0},
		{1, 0.1},
		{6, 0.1},
		{7, 0.2},
		{125, 2.1}, // 21 six-second units
		{360, 6.0},
	}
	for _, tc := range cases {
		if got := FineMinutes(tc.seconds); got != tc.want {
			t.Fatalf("FineMinutes(%d) = %v, want %v", tc.seconds, got, tc.want)
		}
	}
}

func TestWholeMinutes(t *testing.T) {
	if WholeMinutes(0) != 0 || WholeMinutes(1) != 1 || WholeMinutes(60) != 1 || WholeMinutes(61) != 2 {
		t.Fatalf("unexpected whole-minute rounding")
	}
}

func TestRoundCost(t *testing.T) {
	if RoundCost(-0.5) != 0 {
		t.Fatalf("negative cost must clamp to 0")
	}
	if got := RoundCost(0.08000000001); got != 0.08 {
		t.Fatalf("expected 0.08, got %v", got)
	}
	if got := RoundCost(0.12346); got != 0.1235 {
		t.Fatalf("expected 4dp rounding, got %v", got)
	}
}
