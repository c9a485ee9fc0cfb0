package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/example/learnstate/internal/progress"
	"github.com/example/learnstate/pkg/models"
)

// Stats aggregates a user's progress across all curricula
func (e *Engine) Stats(ctx context.Context, userID string) (*models.Statistics, error) {
	if e.store == nil {
		return nil, ErrOffline
	}
	records, err := e.store.ListProgressByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress for stats: %w", err)
	}

	stats := &models.Statistics{
		UserID:    userID,
		Badges:    []string{},
		Curricula: make([]models.CurriculumSummary, 0, len(records)),
	}
	seenBadges := make(map[string]struct{})
	for _, p := range records {
		progress.Normalize(p, e.evaluator.Catalog())

		stats.TotalXP += p.XP
		if p.Level > stats.HighestLevel {
			stats.HighestLevel = p.Level
		}
		stats.SectionsCompleted += len(p.CompletedSections)
		stats.PerfectQuizzes += p.Stats.PerfectQuizzes
		if p.Stats.CurrentStreak > stats.CurrentStreak {
			stats.CurrentStreak = p.Stats.CurrentStreak
		}
		if p.Stats.BestStreak > stats.BestStreak {
			stats.BestStreak = p.Stats.BestStreak
		}
		for _, b := range p.Badges {
			if _, ok := seenBadges[b]; ok {
				continue
			}
			seenBadges[b] = struct{}{}
			stats.Badges = append(stats.Badges, b)
		}
		stats.Curricula = append(stats.Curricula, models.CurriculumSummary{
			CurriculumID:      p.CurriculumID,
			XP:                p.XP,
			Level:             p.Level,
			CurrentSection:    p.CurrentSection,
			CompletedSections: len(p.CompletedSections),
			Badges:            len(p.Badges),
		})
	}

	total, mastered, err := e.srs.Summary(ctx, userID)
	if err != nil {
		log.Printf("engine: flashcard summary for %s unavailable: %v", userID, err)
	} else {
		stats.FlashcardsTotal = total
		stats.FlashcardsMastered = mastered
	}
	due, err := e.srs.DueCount(ctx, userID, "")
	if err != nil {
		log.Printf("engine: due count for %s unavailable: %v", userID, err)
	} else {
		stats.FlashcardsDue = due
	}
	return stats, nil
}
