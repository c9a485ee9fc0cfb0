package achievements

import (
	"fmt"
	"time"

	"github.com/example/learnstate/pkg/models"
)

// Event is a study action that may move a badge counter
type Event int

const (
	// EventSectionStudied only touches the streak; sections are counted from the completed set
	EventSectionStudied Event = iota
	EventPerfectQuiz
	EventTutorQuestion
	EventShortAnswer
	EventCurriculumCompleted
)

var eventNames = map[Event]string{
	EventSectionStudied:      "section_studied",
	EventPerfectQuiz:         "perfect_quiz",
	EventTutorQuestion:       "tutor_question",
	EventShortAnswer:         "short_answer",
	EventCurriculumCompleted: "curriculum_completed",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// ParseEvent resolves an event name
func ParseEvent(name string) (Event, error) {
	for e, n := range eventNames {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", name)
}

// Evaluator grants badges from a catalog
type Evaluator struct {
	catalog *Catalog
}

// NewEvaluator creates an evaluator over catalog
func NewEvaluator(catalog *Catalog) *Evaluator {
	return &Evaluator{catalog: catalog}
}

// Catalog returns the catalog the evaluator reads
func (e *Evaluator) Catalog() *Catalog {
	return e.catalog
}

// RecordEvent updates the streak, bumps the counter for ev and evaluates badges.
// It returns the badges granted by this call.
func (e *Evaluator) RecordEvent(p *models.Progress, ev Event, now time.Time) []models.Badge {
	UpdateStreak(&p.Stats, now)

	switch ev {
	case EventPerfectQuiz:
		p.Stats.PerfectQuizzes++
	case EventTutorQuestion:
		p.Stats.TutorQuestions++
	case EventShortAnswer:
		p.Stats.ShortAnswers++
	case EventCurriculumCompleted:
		p.Stats.CurriculaCompleted++
	}

	return e.Evaluate(p)
}

// Evaluate grants every badge whose condition holds and that p does not hold yet.
// Bonus XP is applied as each badge is granted, and the catalog is scanned again
// until nothing new is granted so XP and level badges see bonuses from this call.
func (e *Evaluator) Evaluate(p *models.Progress) []models.Badge {
	var granted []models.Badge
	for {
		grantedThisPass := false
		for _, b := range e.catalog.badges {
			if p.HasBadge(b.ID) {
				continue
			}
			if Counter(p, b.Condition.Type) < b.Condition.Value {
				continue
			}
			p.Badges = append(p.Badges, b.ID)
			if b.XPBonus > 0 {
				p.AddXP(b.XPBonus)
			}
			granted = append(granted, b)
			grantedThisPass = true
		}
		if !grantedThisPass {
			return granted
		}
	}
}

// Counter returns the value a condition type compares against
func Counter(p *models.Progress, t models.ConditionType) int {
	switch t {
	case models.ConditionSectionsCompleted:
		return len(p.CompletedSections)
	case models.ConditionPerfectQuizzes:
		return p.Stats.PerfectQuizzes
	case models.ConditionCurriculaCompleted:
		return p.Stats.CurriculaCompleted
	case models.ConditionTotalXP:
		return p.XP
	case models.ConditionLevel:
		return models.LevelFor(p.XP)
	case models.ConditionTutorQuestions:
		return p.Stats.TutorQuestions
	case models.ConditionShortAnswers:
		return p.Stats.ShortAnswers
	case models.ConditionStreak:
		return p.Stats.CurrentStreak
	}
	return 0
}
