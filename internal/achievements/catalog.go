package achievements

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/learnstate/pkg/models"
)

//go:embed default_badges.yaml
var defaultBadgesYAML []byte

var knownConditions = map[models.ConditionType]bool{
	models.ConditionSectionsCompleted:  true,
	models.ConditionPerfectQuizzes:     true,
	models.ConditionCurriculaCompleted: true,
	models.ConditionTotalXP:            true,
	models.ConditionLevel:              true,
	models.ConditionTutorQuestions:     true,
	models.ConditionShortAnswers:       true,
	models.ConditionStreak:             true,
}

// Catalog is the immutable list of known badges.
// It is built once and only read afterwards, so it is safe to share.
type Catalog struct {
	badges []models.Badge
	byID   map[string]int
}

// NewCatalog validates badges and builds a catalog from a copy of them
func NewCatalog(badges []models.Badge) (*Catalog, error) {
	c := &Catalog{
		badges: make([]models.Badge, 0, len(badges)),
		byID:   make(map[string]int, len(badges)),
	}
	for _, b := range badges {
		if b.ID == "" {
			return nil, fmt.Errorf("%w: missing id", ErrInvalidBadge)
		}
		if _, dup := c.byID[b.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBadge, b.ID)
		}
		if !knownConditions[b.Condition.Type] {
			return nil, fmt.Errorf("%w: %q on badge %s", ErrUnknownCondition, b.Condition.Type, b.ID)
		}
		if b.XPBonus < 0 {
			return nil, fmt.Errorf("%w: negative xp bonus on %s", ErrInvalidBadge, b.ID)
		}
		c.byID[b.ID] = len(c.badges)
		c.badges = append(c.badges, b)
	}
	return c, nil
}

// ParseCatalog builds a catalog from YAML
func ParseCatalog(data []byte) (*Catalog, error) {
	var badges []models.Badge
	if err := yaml.Unmarshal(data, &badges); err != nil {
		return nil, fmt.Errorf("failed to parse badge catalog: %w", err)
	}
	return NewCatalog(badges)
}

// LoadCatalog reads a YAML badge catalog from disk
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read badge catalog: %w", err)
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the built-in badge catalog
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultBadgesYAML)
	if err != nil {
		panic(fmt.Sprintf("achievements: built-in catalog is invalid: %v", err))
	}
	return c
}

// Badges returns a copy of all badges in catalog order
func (c *Catalog) Badges() []models.Badge {
	return append([]models.Badge(nil), c.badges...)
}

// Get returns a badge by id
func (c *Catalog) Get(id string) (models.Badge, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Badge{}, false
	}
	return c.badges[i], true
}

// Len returns the number of badges
func (c *Catalog) Len() int {
	return len(c.badges)
}

// FilterKnown drops badge ids that are not in the catalog and duplicates
func (c *Catalog) FilterKnown(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := c.byID[id]; !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
