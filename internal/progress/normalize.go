// Package progress holds the progress record rules and the coordinator that
// persists records to the relational store and the snapshot files.
package progress

import (
	"github.com/example/learnstate/internal/adaptive"
	"github.com/example/learnstate/pkg/models"
)

// BadgeFilter drops badge ids that are not in the catalog
type BadgeFilter interface {
	FilterKnown(ids []string) []string
}

// Normalize repairs a record in place: sections are deduplicated keeping the first
// occurrence, counters are reconciled, the level is derived from XP and the answer
// history is capped. A nil filter keeps badges as they are apart from duplicates.
func Normalize(p *models.Progress, badges BadgeFilter) {
	if p.CompletedSections == nil {
		p.CompletedSections = models.SectionList{}
	}
	p.CompletedSections = p.CompletedSections.Dedup()
	p.Stats.TotalSectionsCompleted = len(p.CompletedSections)

	if p.XP < 0 {
		p.XP = 0
	}
	p.Level = models.LevelFor(p.XP)
	if p.CurrentSection < 0 {
		p.CurrentSection = 0
	}
	if p.Stats.BestStreak < p.Stats.CurrentStreak {
		p.Stats.BestStreak = p.Stats.CurrentStreak
	}

	p.Badges = uniqueStrings(p.Badges)
	if badges != nil {
		p.Badges = badges.FilterKnown(p.Badges)
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}

	if p.QuizScores == nil {
		p.QuizScores = make(map[int]models.QuizScore)
	}
	p.QuestionHistory = adaptive.Trim(p.QuestionHistory)
	if p.QuestionHistory == nil {
		p.QuestionHistory = []bool{}
	}
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
