package adaptive

import "testing"

func TestRecordCapsHistory(t *testing.T) {
	var history []bool
	for i := 0; i < 25; i++ {
		history = Record(history, i%2 == 0)
	}
	if len(history) != HistoryLimit {
		t.Fatalf("expected %d entries, got %d", HistoryLimit, len(history))
	}
	// entries 5..24 survive; entry 5 is odd
	if history[0] {
		t.Fatalf("expected oldest surviving entry to be false")
	}
	if !history[len(history)-1] {
		t.Fatalf("expected newest entry to be true")
	}
}

func TestRecordDoesNotAliasInput(t *testing.T) {
	history := make([]bool, 2, 10)
	a := Record(history, true)
	b := Record(history, false)
	if a[2] != true || b[2] != false {
		t.Fatalf("records share storage: %v %v", a, b)
	}
}

func TestSuccessRate(t *testing.T) {
	if got := SuccessRate(nil, 10); got != NeutralRate {
		t.Fatalf("empty history: got %f", got)
	}

	history := []bool{false, false, false, false, false, true, true, true, true, true, true, true, true, true, true}
	if got := SuccessRate(history, 10); got != 1.0 {
		t.Fatalf("last 10 are correct, got %f", got)
	}
	if got := SuccessRate(history, 0); got != 1.0 {
		t.Fatalf("default window, got %f", got)
	}
	if got := SuccessRate([]bool{true, false, true, false}, 10); got != 0.5 {
		t.Fatalf("short history, got %f", got)
	}
}

func TestLevelForRate(t *testing.T) {
	tests := []struct {
		rate float64
		want int
	}{
		{0, 1},
		{0.49, 1},
		{0.5, 2},
		{0.64, 2},
		{0.65, 3},
		{0.84, 3},
		{0.85, 4},
		{0.94, 4},
		{0.95, 5},
		{1, 5},
	}
	for _, tt := range tests {
		if got := LevelForRate(tt.rate); got != tt.want {
			t.Errorf("rate %.2f: got %d, want %d", tt.rate, got, tt.want)
		}
	}
}

func TestLevelNeutralHistory(t *testing.T) {
	if got := Level(nil); got != 2 {
		t.Fatalf("neutral rate should map to level 2, got %d", got)
	}
	if Label(3) != "medium" || Label(9) != "unknown" {
		t.Fatalf("unexpected labels")
	}
}
