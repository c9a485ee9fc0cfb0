package engine

import (
	"context"
	"fmt"

	"github.com/example/learnstate/pkg/models"
)

// DailyChallenges returns today's challenges for a user
func (e *Engine) DailyChallenges(ctx context.Context, userID string) (*models.DailyChallengeAssignment, error) {
	if e.challenges == nil {
		return nil, ErrOffline
	}
	return e.challenges.Today(ctx, userID, e.today())
}

// RecordChallengeProgress adds amount to today's challenges tracking metric.
// XP from challenges completed by this call goes to the given curriculum;
// the Outcome is empty when nothing was completed.
func (e *Engine) RecordChallengeProgress(ctx context.Context, userID, curriculumID, metric string, amount int) (Outcome, error) {
	if e.challenges == nil {
		return Outcome{}, ErrOffline
	}
	if curriculumID == "" {
		return Outcome{}, ErrNoCurriculum
	}
	done, err := e.challenges.Record(ctx, userID, e.today(), metric, amount)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to record challenge progress: %w", err)
	}
	if len(done) == 0 {
		return Outcome{}, nil
	}

	p, _ := e.coord.Load(ctx, userID, curriculumID)
	for _, ch := range done {
		p.AddXP(ch.XPReward)
	}
	badges := e.evaluator.Evaluate(p)
	return e.save(ctx, p, badges, done), nil
}
