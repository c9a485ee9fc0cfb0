package spaced_repetition

import (
	"fmt"
	"math"
	"time"

	"github.com/example/learnstate/pkg/models"
)

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityBlackout QualityResponse = 0
	// Incorrect response but remembered upon seeing the correct answer
	QualityIncorrect QualityResponse = 1
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response but required significant effort
	QualityCorrectDifficult QualityResponse = 3
	// Correct response after some hesitation
	QualityCorrectHesitation QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// IsValid reports whether q is within 0..5
func (q QualityResponse) IsValid() bool {
	return q >= QualityBlackout && q <= QualityPerfect
}

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// Ratings at or above this are successful recalls
	PassThreshold QualityResponse
	// Interval after the first and second successful recall
	FirstInterval  int
	SecondInterval int
}

// NewSM2 creates a new SM2 with the classic parameters
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:  QualityCorrectDifficult,
		FirstInterval:  1,
		SecondInterval: 6,
	}
}

// Next returns the item as it is after a review of the given quality at now.
// The input is not modified; an out-of-range quality returns ErrInvalidQuality.
func (sm *SM2) Next(item models.ReviewItem, quality QualityResponse, now time.Time) (models.ReviewItem, error) {
	if !quality.IsValid() {
		return item, fmt.Errorf("%w: %d", ErrInvalidQuality, int(quality))
	}

	next := item
	if next.EasinessFactor < models.MinEasinessFactor {
		next.EasinessFactor = models.MinEasinessFactor
	}
	if next.Interval < 1 {
		next.Interval = 1
	}

	if quality < sm.PassThreshold {
		// Failed recall starts the card over
		next.Repetitions = 0
		next.Interval = 1
	} else {
		next.Repetitions++
		switch next.Repetitions {
		case 1:
			next.Interval = sm.FirstInterval
		case 2:
			next.Interval = sm.SecondInterval
		default:
			next.Interval = int(math.Round(float64(next.Interval) * next.EasinessFactor))
		}
	}

	next.EasinessFactor = NextEasiness(next.EasinessFactor, quality)

	reviewed := now.UTC()
	next.LastReview = &reviewed
	next.NextReview = reviewed.AddDate(0, 0, next.Interval)
	return next, nil
}

// NextEasiness applies the SM-2 easiness update, floored at 1.3
func NextEasiness(ef float64, quality QualityResponse) float64 {
	q := 5.0 - float64(quality)
	newEF := ef + 0.1 - q*(0.08+q*0.02)
	if newEF < models.MinEasinessFactor {
		newEF = models.MinEasinessFactor
	}
	return newEF
}

// IsMastered determines if a card is considered mastered:
// at least 5 successful reviews in a row and an interval of three weeks or more
func (sm *SM2) IsMastered(item models.ReviewItem) bool {
	return item.Repetitions >= 5 && item.Interval >= 21
}
