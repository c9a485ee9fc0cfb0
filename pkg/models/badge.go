package models

// ConditionType names the counter a badge is earned on
type ConditionType string

const (
	ConditionSectionsCompleted  ConditionType = "sections_completed"
	ConditionPerfectQuizzes     ConditionType = "perfect_quizzes"
	ConditionCurriculaCompleted ConditionType = "curricula_completed"
	ConditionTotalXP            ConditionType = "total_xp"
	ConditionLevel              ConditionType = "level"
	ConditionTutorQuestions     ConditionType = "tutor_questions"
	ConditionShortAnswers       ConditionType = "short_answers"
	ConditionStreak             ConditionType = "streak"
)

// Condition is a threshold comparison: earned when counter >= Value
type Condition struct {
	Type  ConditionType `json:"type" yaml:"type"`
	Value int           `json:"value" yaml:"value"`
}

// Badge is an achievement from the badge catalog
type Badge struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Icon        string    `json:"icon" yaml:"icon"`
	Condition   Condition `json:"condition" yaml:"condition"`
	XPBonus     int       `json:"xp_bonus" yaml:"xp_bonus"`
}
