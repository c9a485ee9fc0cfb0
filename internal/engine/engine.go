// Package engine is the caller-facing API of the learning state engine.
// One Engine is built at startup and passed to whoever drives user actions.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/learnstate/internal/achievements"
	"github.com/example/learnstate/internal/adaptive"
	"github.com/example/learnstate/internal/challenges"
	"github.com/example/learnstate/internal/database"
	"github.com/example/learnstate/internal/progress"
	"github.com/example/learnstate/internal/snapshot"
	"github.com/example/learnstate/internal/spaced_repetition"
	"github.com/example/learnstate/pkg/models"
)

// Deps are the collaborators an Engine is built from
type Deps struct {
	// Store is the relational tier; nil runs the engine offline on snapshots
	Store            *database.Store
	Snapshots        *snapshot.FileStore
	Badges           *achievements.Catalog
	Challenges       *challenges.Catalog
	ChallengesPerDay int
	MasteryThreshold float64
	Clock            func() time.Time
}

// Outcome is the result of a mutating call. Badges and challenges are for
// notification only; they are kept only if Saved reports a successful write.
type Outcome struct {
	Progress   *models.Progress
	NewBadges  []models.Badge
	Challenges []models.Challenge
	Saved      progress.SaveStatus
}

// Engine drives progress, badges, flashcards and challenges for the foreground actor
type Engine struct {
	store      *database.Store
	coord      *progress.Coordinator
	evaluator  *achievements.Evaluator
	srs        *spaced_repetition.Scheduler
	challenges *challenges.Store
	threshold  float64
	now        func() time.Time
}

// New builds an engine and prepares the tables it owns
func New(ctx context.Context, deps Deps) (*Engine, error) {
	if deps.Badges == nil {
		deps.Badges = achievements.DefaultCatalog()
	}
	if deps.Challenges == nil {
		deps.Challenges = challenges.DefaultCatalog()
	}
	if deps.MasteryThreshold <= 0 || deps.MasteryThreshold > 1 {
		deps.MasteryThreshold = progress.DefaultMasteryThreshold
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	e := &Engine{
		store:     deps.Store,
		evaluator: achievements.NewEvaluator(deps.Badges),
		threshold: deps.MasteryThreshold,
		now:       deps.Clock,
	}

	var relational progress.RelationalStore
	var snapshots progress.SnapshotStore
	if deps.Store != nil {
		relational = deps.Store
	}
	if deps.Snapshots != nil {
		snapshots = deps.Snapshots
	}
	e.coord = progress.NewCoordinator(relational, snapshots, deps.Badges, deps.Clock)

	if deps.Store != nil {
		e.srs = spaced_repetition.NewScheduler(deps.Store, spaced_repetition.NewSM2(), deps.Clock)
		e.challenges = challenges.NewStore(deps.Store, deps.Challenges, deps.ChallengesPerDay, deps.Clock)
		if err := e.challenges.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Offline reports whether the engine runs without the relational store
func (e *Engine) Offline() bool {
	return e.store == nil
}

// MasteryThreshold returns the quiz score needed to pass a unit
func (e *Engine) MasteryThreshold() float64 {
	return e.threshold
}

// Progress returns the current record and where it was loaded from
func (e *Engine) Progress(ctx context.Context, userID, curriculumID string) (*models.Progress, progress.Source) {
	return e.coord.Load(ctx, userID, curriculumID)
}

// AdvanceSection completes the current section and moves to the next one.
// It returns progress.ErrNotMastered on a quiz section whose unit is not mastered.
func (e *Engine) AdvanceSection(ctx context.Context, userID string, c *models.Curriculum) (Outcome, error) {
	p, _ := e.coord.Load(ctx, userID, c.ID)
	completed, err := progress.Advance(p, c.TotalSections(), e.threshold)
	if err != nil {
		return Outcome{Progress: p}, err
	}

	var badges []models.Badge
	var done []models.Challenge
	if completed {
		badges = e.evaluator.RecordEvent(p, achievements.EventSectionStudied, e.now())
		done, badges = e.trackChallenge(ctx, p, challenges.MetricSectionCompleted, badges)
	}
	return e.save(ctx, p, badges, done), nil
}

// PreviousSection moves back one section
func (e *Engine) PreviousSection(ctx context.Context, userID, curriculumID string) (Outcome, error) {
	p, _ := e.coord.Load(ctx, userID, curriculumID)
	progress.Previous(p)
	return e.save(ctx, p, nil, nil), nil
}

// CompleteSection marks a section completed; the first completion earns XP
func (e *Engine) CompleteSection(ctx context.Context, userID string, c *models.Curriculum, index int) (Outcome, error) {
	p, _ := e.coord.Load(ctx, userID, c.ID)
	first, err := progress.Complete(p, index, c.TotalSections())
	if err != nil {
		return Outcome{Progress: p}, err
	}

	var badges []models.Badge
	var done []models.Challenge
	if first {
		badges = e.evaluator.RecordEvent(p, achievements.EventSectionStudied, e.now())
		done, badges = e.trackChallenge(ctx, p, challenges.MetricSectionCompleted, badges)
	}
	return e.save(ctx, p, badges, done), nil
}

// RecordStat counts a study event and evaluates badges
func (e *Engine) RecordStat(ctx context.Context, userID, curriculumID string, ev achievements.Event) (Outcome, error) {
	metric, err := eventMetric(ev)
	if err != nil {
		return Outcome{}, err
	}
	p, _ := e.coord.Load(ctx, userID, curriculumID)
	badges := e.evaluator.RecordEvent(p, ev, e.now())

	var done []models.Challenge
	if metric != "" {
		done, badges = e.trackChallenge(ctx, p, metric, badges)
	}
	return e.save(ctx, p, badges, done), nil
}

// SetQuizScore stores a unit quiz result. A perfect score counts as a perfect quiz.
func (e *Engine) SetQuizScore(ctx context.Context, userID, curriculumID string, unit, correct, total int) (Outcome, error) {
	p, _ := e.coord.Load(ctx, userID, curriculumID)
	if _, err := progress.SetQuizScore(p, unit, correct, total, e.threshold); err != nil {
		return Outcome{Progress: p}, err
	}

	var badges []models.Badge
	var done []models.Challenge
	if progress.IsPerfect(correct, total) {
		badges = e.evaluator.RecordEvent(p, achievements.EventPerfectQuiz, e.now())
		done, badges = e.trackChallenge(ctx, p, challenges.MetricPerfectQuiz, badges)
	} else {
		badges = e.evaluator.RecordEvent(p, achievements.EventSectionStudied, e.now())
	}
	return e.save(ctx, p, badges, done), nil
}

// QuizScore returns the stored result for a unit quiz
func (e *Engine) QuizScore(ctx context.Context, userID, curriculumID string, unit int) (models.QuizScore, bool) {
	p, _ := e.coord.Load(ctx, userID, curriculumID)
	score, ok := p.QuizScores[unit]
	return score, ok
}

// CheckMastery applies the configured mastery threshold to a quiz result
func (e *Engine) CheckMastery(correct, total int) (bool, string) {
	return progress.CheckMastery(correct, total, e.threshold)
}

// RecordAnswer adds an answer to the adaptive difficulty history
func (e *Engine) RecordAnswer(ctx context.Context, userID, curriculumID string, correct bool) (Outcome, error) {
	p, _ := e.coord.Load(ctx, userID, curriculumID)
	progress.RecordAnswer(p, correct)

	var badges []models.Badge
	var done []models.Challenge
	if correct {
		done, badges = e.trackChallenge(ctx, p, challenges.MetricCorrectAnswer, nil)
	}
	return e.save(ctx, p, badges, done), nil
}

// DifficultyEstimate is the adaptive difficulty for a learner
type DifficultyEstimate struct {
	Level       int     `json:"level"`
	Label       string  `json:"label"`
	SuccessRate float64 `json:"success_rate"`
}

// Difficulty estimates the next question difficulty from recent answers
func (e *Engine) Difficulty(ctx context.Context, userID, curriculumID string) DifficultyEstimate {
	p, _ := e.coord.Load(ctx, userID, curriculumID)
	rate := adaptive.SuccessRate(p.QuestionHistory, adaptive.DefaultWindow)
	level := adaptive.LevelForRate(rate)
	return DifficultyEstimate{Level: level, Label: adaptive.Label(level), SuccessRate: rate}
}

func (e *Engine) save(ctx context.Context, p *models.Progress, badges []models.Badge, done []models.Challenge) Outcome {
	status := e.coord.Save(ctx, p)
	return Outcome{Progress: p, NewBadges: badges, Challenges: done, Saved: status}
}

// trackChallenge moves today's challenges for metric, pays out their XP to p
// and evaluates badges the payout unlocks. Challenge failures never fail the caller.
func (e *Engine) trackChallenge(ctx context.Context, p *models.Progress, metric string, badges []models.Badge) ([]models.Challenge, []models.Badge) {
	if e.challenges == nil {
		return nil, badges
	}
	done, err := e.challenges.Record(ctx, p.UserID, e.today(), metric, 1)
	if err != nil {
		log.Printf("engine: challenge progress for %s not recorded: %v", p.UserID, err)
		return nil, badges
	}
	if len(done) == 0 {
		return nil, badges
	}
	for _, ch := range done {
		p.AddXP(ch.XPReward)
	}
	return done, append(badges, e.evaluator.Evaluate(p)...)
}

func (e *Engine) today() string {
	return e.now().UTC().Format(challenges.DayLayout)
}

func eventMetric(ev achievements.Event) (string, error) {
	switch ev {
	case achievements.EventPerfectQuiz:
		return challenges.MetricPerfectQuiz, nil
	case achievements.EventTutorQuestion:
		return challenges.MetricTutorQuestion, nil
	case achievements.EventShortAnswer:
		return challenges.MetricShortAnswer, nil
	case achievements.EventCurriculumCompleted, achievements.EventSectionStudied:
		return "", nil
	}
	return "", fmt.Errorf("unknown event %d", int(ev))
}
