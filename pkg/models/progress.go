package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// XPPerLevel is the amount of XP needed for each level
const XPPerLevel = 100

// LevelFor derives the level from an XP total
func LevelFor(xp int) int {
	if xp < 0 {
		return 0
	}
	return xp / XPPerLevel
}

// Progress tracks one user's progress through one curriculum.
// The JSON layout is the snapshot file format and must stay stable.
type Progress struct {
	CurriculumID      string            `json:"curriculum_id"`
	UserID            string            `json:"user_id"`
	CurrentSection    int               `json:"current_section"`
	CompletedSections SectionList       `json:"completed_sections"`
	XP                int               `json:"xp"`
	Level             int               `json:"level"`
	Badges            []string          `json:"badges"`
	Stats             Stats             `json:"stats"`
	QuizScores        map[int]QuizScore `json:"quiz_scores"`
	QuestionHistory   []bool            `json:"question_history"`
	LastUpdated       time.Time         `json:"last_updated"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Stats holds the counters badges are evaluated against
type Stats struct {
	PerfectQuizzes         int    `json:"perfect_quizzes"`
	TutorQuestions         int    `json:"tutor_questions"`
	ShortAnswers           int    `json:"short_answers"`
	CurriculaCompleted     int    `json:"curricula_completed"`
	CurrentStreak          int    `json:"current_streak"`
	BestStreak             int    `json:"best_streak"`
	LastStudyDate          string `json:"last_study_date"` // 2006-01-02, empty if never studied
	TotalSectionsCompleted int    `json:"total_sections_completed"`
}

// QuizScore is the last result of a unit quiz
type QuizScore struct {
	Score    float64 `json:"score"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Attempts int     `json:"attempts"`
	Mastered bool    `json:"mastered"`
}

// NewProgress returns the default record for a user and curriculum
func NewProgress(userID, curriculumID string, now time.Time) *Progress {
	return &Progress{
		CurriculumID:      curriculumID,
		UserID:            userID,
		CompletedSections: SectionList{},
		Badges:            []string{},
		QuizScores:        make(map[int]QuizScore),
		QuestionHistory:   []bool{},
		LastUpdated:       now,
		CreatedAt:         now,
	}
}

// HasBadge reports whether the badge was already granted
func (p *Progress) HasBadge(id string) bool {
	for _, b := range p.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// IsCompleted reports whether the section is in the completed set
func (p *Progress) IsCompleted(section int) bool {
	for _, s := range p.CompletedSections {
		if s == section {
			return true
		}
	}
	return false
}

// AddXP adds XP and recomputes the level
func (p *Progress) AddXP(amount int) {
	p.XP += amount
	if p.XP < 0 {
		p.XP = 0
	}
	p.Level = LevelFor(p.XP)
}

// Clone returns a deep copy
func (p *Progress) Clone() *Progress {
	c := *p
	c.CompletedSections = append(SectionList{}, p.CompletedSections...)
	c.Badges = append([]string{}, p.Badges...)
	c.QuestionHistory = append([]bool{}, p.QuestionHistory...)
	c.QuizScores = make(map[int]QuizScore, len(p.QuizScores))
	for k, v := range p.QuizScores {
		c.QuizScores[k] = v
	}
	return &c
}

// SectionList is an ordered set of section indices.
// Decoding is lenient: legacy data may hold null, strings or junk entries.
type SectionList []int

// UnmarshalJSON keeps integral numbers and numeric strings and drops everything else
func (l *SectionList) UnmarshalJSON(data []byte) error {
	*l = ParseSections(data)
	return nil
}

// ParseSections converts raw JSON into a deduplicated section list.
// Non-array input yields an empty list.
func ParseSections(data []byte) SectionList {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return SectionList{}
	}
	out := make(SectionList, 0, len(raw))
	for _, v := range raw {
		if n, ok := sectionValue(v); ok {
			out = append(out, n)
		}
	}
	return out.Dedup()
}

func sectionValue(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		if x < 0 || x != math.Trunc(x) || x > math.MaxInt32 {
			return 0, false
		}
		return int(x), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Dedup removes duplicates keeping the first occurrence
func (l SectionList) Dedup() SectionList {
	seen := make(map[int]struct{}, len(l))
	out := make(SectionList, 0, len(l))
	for _, s := range l {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
