// Package adaptive derives a difficulty level from recent answer correctness.
package adaptive

const (
	// HistoryLimit is how many answers are kept per progress record
	HistoryLimit = 20
	// DefaultWindow is how many recent answers the success rate looks at
	DefaultWindow = 10
	// NeutralRate is reported when there is no history yet
	NeutralRate = 0.5
)

var labels = [...]string{1: "beginner", 2: "easy", 3: "medium", 4: "hard", 5: "expert"}

// Record appends an answer and keeps only the most recent HistoryLimit entries
func Record(history []bool, correct bool) []bool {
	out := append(append(make([]bool, 0, len(history)+1), history...), correct)
	return Trim(out)
}

// Trim drops the oldest entries beyond HistoryLimit
func Trim(history []bool) []bool {
	if len(history) <= HistoryLimit {
		return history
	}
	return append([]bool(nil), history[len(history)-HistoryLimit:]...)
}

// SuccessRate is the fraction of correct answers among the last n
func SuccessRate(history []bool, n int) float64 {
	if n <= 0 {
		n = DefaultWindow
	}
	if len(history) == 0 {
		return NeutralRate
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	correct := 0
	for _, ok := range history {
		if ok {
			correct++
		}
	}
	return float64(correct) / float64(len(history))
}

// LevelForRate maps a success rate to a difficulty level from 1 to 5
func LevelForRate(rate float64) int {
	switch {
	case rate < 0.50:
		return 1
	case rate < 0.65:
		return 2
	case rate < 0.85:
		return 3
	case rate < 0.95:
		return 4
	default:
		return 5
	}
}

// Level returns the difficulty level for the default window
func Level(history []bool) int {
	return LevelForRate(SuccessRate(history, DefaultWindow))
}

// Label names a difficulty level
func Label(level int) string {
	if level < 1 || level >= len(labels) {
		return "unknown"
	}
	return labels[level]
}
