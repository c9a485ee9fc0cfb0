package challenges

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/learnstate/pkg/models"
)

// Metrics that move challenge progress
const (
	MetricSectionCompleted  = "section_completed"
	MetricFlashcardReviewed = "flashcard_reviewed"
	MetricCorrectAnswer     = "correct_answer"
	MetricPerfectQuiz       = "perfect_quiz"
	MetricTutorQuestion     = "tutor_question"
	MetricShortAnswer       = "short_answer"
)

//go:embed default_challenges.yaml
var defaultCatalogYAML []byte

// Catalog is the immutable list of challenges daily assignments are drawn from
type Catalog struct {
	challenges []models.Challenge
	byID       map[string]models.Challenge
}

// NewCatalog validates and indexes challenges
func NewCatalog(challenges []models.Challenge) (*Catalog, error) {
	c := &Catalog{
		challenges: make([]models.Challenge, 0, len(challenges)),
		byID:       make(map[string]models.Challenge, len(challenges)),
	}
	for _, ch := range challenges {
		if strings.TrimSpace(ch.ID) == "" || strings.TrimSpace(ch.Metric) == "" || ch.Target <= 0 || ch.XPReward < 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidChallenge, ch.ID)
		}
		if _, ok := c.byID[ch.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChallenge, ch.ID)
		}
		c.byID[ch.ID] = ch
		c.challenges = append(c.challenges, ch)
	}
	return c, nil
}

// ParseCatalog reads a YAML list of challenges
func ParseCatalog(data []byte) (*Catalog, error) {
	var challenges []models.Challenge
	if err := yaml.Unmarshal(data, &challenges); err != nil {
		return nil, fmt.Errorf("failed to parse challenge catalog: %w", err)
	}
	return NewCatalog(challenges)
}

// LoadCatalog reads a challenge catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the built-in challenges
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in challenge catalog: %v", err))
	}
	return c
}

// Challenges returns a copy of the catalog in file order
func (c *Catalog) Challenges() []models.Challenge {
	return append([]models.Challenge(nil), c.challenges...)
}

// Get looks a challenge up by id
func (c *Catalog) Get(id string) (models.Challenge, bool) {
	ch, ok := c.byID[id]
	return ch, ok
}

func (c *Catalog) Len() int {
	return len(c.challenges)
}
