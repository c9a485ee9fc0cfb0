package models

// CurriculumSummary is the per-curriculum part of the aggregate stats
type CurriculumSummary struct {
	CurriculumID      string `json:"curriculum_id"`
	XP                int    `json:"xp"`
	Level             int    `json:"level"`
	CurrentSection    int    `json:"current_section"`
	CompletedSections int    `json:"completed_sections"`
	Badges            int    `json:"badges"`
}

// Statistics is the aggregate view of a user's progress across curricula
type Statistics struct {
	UserID             string              `json:"user_id"`
	TotalXP            int                 `json:"total_xp"`
	HighestLevel       int                 `json:"highest_level"`
	Badges             []string            `json:"badges"`
	SectionsCompleted  int                 `json:"sections_completed"`
	PerfectQuizzes     int                 `json:"perfect_quizzes"`
	CurrentStreak      int                 `json:"current_streak"`
	BestStreak         int                 `json:"best_streak"`
	FlashcardsTotal    int                 `json:"flashcards_total"`
	FlashcardsDue      int                 `json:"flashcards_due"`
	FlashcardsMastered int                 `json:"flashcards_mastered"`
	Curricula          []CurriculumSummary `json:"curricula"`
}
