package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/example/learnstate/internal/challenges"
	"github.com/example/learnstate/internal/spaced_repetition"
	"github.com/example/learnstate/pkg/models"
)

// CreateFlashcard adds a card that is due immediately
func (e *Engine) CreateFlashcard(ctx context.Context, userID, curriculumID, front, back string) (*models.ReviewItem, error) {
	if e.srs == nil {
		return nil, ErrOffline
	}
	return e.srs.Create(ctx, userID, curriculumID, front, back)
}

// ReviewFlashcard rates a user's card with a 0-5 quality and reschedules it.
// The Outcome is only filled when the review completed a daily challenge.
// Cards without a curriculum do not count toward challenges.
func (e *Engine) ReviewFlashcard(ctx context.Context, userID, id string, quality int) (*models.ReviewItem, Outcome, error) {
	q := spaced_repetition.QualityResponse(quality)
	if !q.IsValid() {
		return nil, Outcome{}, fmt.Errorf("%w: %d", spaced_repetition.ErrInvalidQuality, quality)
	}
	if e.srs == nil {
		return nil, Outcome{}, ErrOffline
	}

	card, err := e.store.GetReviewItem(ctx, id)
	if err != nil {
		return nil, Outcome{}, err
	}
	if card == nil || card.UserID != userID {
		return nil, Outcome{}, fmt.Errorf("%w: %s", spaced_repetition.ErrItemNotFound, id)
	}

	item, err := e.srs.Review(ctx, id, q)
	if err != nil {
		return nil, Outcome{}, err
	}
	// cards outside a curriculum have nowhere to pay XP to
	if item.CurriculumID == "" {
		return item, Outcome{}, nil
	}

	done, err := e.challenges.Record(ctx, userID, e.today(), challenges.MetricFlashcardReviewed, 1)
	if err != nil {
		log.Printf("engine: challenge progress for %s not recorded: %v", userID, err)
		return item, Outcome{}, nil
	}
	if len(done) == 0 {
		return item, Outcome{}, nil
	}

	// challenge XP goes to the curriculum the card belongs to
	p, _ := e.coord.Load(ctx, userID, item.CurriculumID)
	for _, ch := range done {
		p.AddXP(ch.XPReward)
	}
	badges := e.evaluator.Evaluate(p)
	return item, e.save(ctx, p, badges, done), nil
}

// DeleteFlashcard removes a user's card
func (e *Engine) DeleteFlashcard(ctx context.Context, userID, id string) error {
	if e.srs == nil {
		return ErrOffline
	}
	return e.srs.Delete(ctx, userID, id)
}

// DueFlashcards returns up to limit due cards, earliest first.
// An empty curriculumID covers all of the user's cards.
func (e *Engine) DueFlashcards(ctx context.Context, userID, curriculumID string, limit int) ([]models.ReviewItem, error) {
	if e.srs == nil {
		return nil, ErrOffline
	}
	return e.srs.Due(ctx, userID, curriculumID, limit)
}

// DueCount returns how many cards are due now
func (e *Engine) DueCount(ctx context.Context, userID, curriculumID string) (int, error) {
	if e.srs == nil {
		return 0, ErrOffline
	}
	return e.srs.DueCount(ctx, userID, curriculumID)
}
