package progress

import (
	"fmt"
	"math"

	"github.com/example/learnstate/internal/adaptive"
	"github.com/example/learnstate/pkg/models"
)

const (
	// SectionXP is awarded the first time a section is completed
	SectionXP = 10
	// DefaultMasteryThreshold is the quiz score needed to move past a unit quiz
	DefaultMasteryThreshold = 0.8
)

// scores within this distance of the threshold count as reaching it
const scoreEpsilon = 1e-9

// Complete marks a section as completed. It returns true and awards SectionXP
// only the first time; total is the curriculum's section count.
func Complete(p *models.Progress, index, total int) (bool, error) {
	if index < 0 || index >= total {
		return false, fmt.Errorf("%w: %d of %d", ErrInvalidSection, index, total)
	}
	if p.IsCompleted(index) {
		return false, nil
	}
	p.CompletedSections = append(p.CompletedSections, index)
	p.Stats.TotalSectionsCompleted = len(p.CompletedSections)
	p.AddXP(SectionXP)
	return true, nil
}

// Advance completes the current section and moves to the next one.
// A quiz section only lets the learner through once its unit is mastered.
// The last section is completed but the position stays on it.
func Advance(p *models.Progress, total int, threshold float64) (completed bool, err error) {
	current := p.CurrentSection
	if current < 0 || current >= total {
		return false, fmt.Errorf("%w: %d of %d", ErrInvalidSection, current, total)
	}
	if models.TypeOf(current) == models.SectionQuiz {
		unit := models.UnitOf(current)
		if !QuizPassed(p, unit, threshold) {
			return false, fmt.Errorf("%w: unit %d", ErrNotMastered, unit)
		}
	}

	completed, err = Complete(p, current, total)
	if err != nil {
		return false, err
	}
	if current+1 < total {
		p.CurrentSection = current + 1
	}
	return completed, nil
}

// Previous moves back one section; it never goes below zero
func Previous(p *models.Progress) bool {
	if p.CurrentSection <= 0 {
		p.CurrentSection = 0
		return false
	}
	p.CurrentSection--
	return true
}

// CheckMastery reports whether correct/total reaches threshold along with a
// message for the learner. A quiz without questions always passes.
func CheckMastery(correct, total int, threshold float64) (bool, string) {
	if total <= 0 {
		return true, "No questions in this quiz, unit passed"
	}
	score := float64(correct) / float64(total)
	percent := int(math.Round(score * 100))
	required := int(math.Round(threshold * 100))
	if score+scoreEpsilon >= threshold {
		return true, fmt.Sprintf("Mastered with %d%%", percent)
	}
	return false, fmt.Sprintf("Scored %d%%, %d%% is needed to continue", percent, required)
}

// SetQuizScore stores the latest quiz result for a unit. Mastery is kept once reached.
func SetQuizScore(p *models.Progress, unit, correct, total int, threshold float64) (models.QuizScore, error) {
	if unit < 0 || correct < 0 || total < 0 || correct > total {
		return models.QuizScore{}, fmt.Errorf("%w: unit %d, %d of %d", ErrInvalidScore, unit, correct, total)
	}
	if p.QuizScores == nil {
		p.QuizScores = make(map[int]models.QuizScore)
	}

	prev := p.QuizScores[unit]
	passed, _ := CheckMastery(correct, total, threshold)
	score := models.QuizScore{
		Correct:  correct,
		Total:    total,
		Attempts: prev.Attempts + 1,
		Mastered: passed || prev.Mastered,
	}
	if total > 0 {
		score.Score = float64(correct) / float64(total)
	} else {
		score.Score = 1
	}
	p.QuizScores[unit] = score
	return score, nil
}

// QuizPassed reports whether the unit quiz lets the learner advance
func QuizPassed(p *models.Progress, unit int, threshold float64) bool {
	score, ok := p.QuizScores[unit]
	if !ok {
		return false
	}
	if score.Total == 0 || score.Mastered {
		return true
	}
	passed, _ := CheckMastery(score.Correct, score.Total, threshold)
	return passed
}

// IsPerfect reports whether a quiz result answered every question correctly
func IsPerfect(correct, total int) bool {
	return total > 0 && correct == total
}

// RecordAnswer appends an answer to the capped history
func RecordAnswer(p *models.Progress, correct bool) {
	p.QuestionHistory = adaptive.Record(p.QuestionHistory, correct)
}
