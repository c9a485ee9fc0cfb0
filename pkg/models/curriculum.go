package models

import "time"

// SectionType is one of the fixed per-unit section kinds
type SectionType int

const (
	SectionIntro SectionType = iota
	SectionImage
	SectionContent
	SectionChart
	SectionQuiz
	SectionSummary
)

// SectionsPerUnit is the number of section types every unit carries
const SectionsPerUnit = 6

var sectionTypeNames = [...]string{
	SectionIntro:   "intro",
	SectionImage:   "image",
	SectionContent: "content",
	SectionChart:   "chart",
	SectionQuiz:    "quiz",
	SectionSummary: "summary",
}

func (t SectionType) String() string {
	if t < 0 || int(t) >= len(sectionTypeNames) {
		return "unknown"
	}
	return sectionTypeNames[t]
}

// Curriculum is read-only metadata supplied by the curriculum collaborator
type Curriculum struct {
	ID         string    `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Subject    string    `json:"subject" db:"subject"`
	Grade      string    `json:"grade" db:"grade"`
	FilePath   string    `json:"file_path" db:"file_path"`
	CreatedBy  string    `json:"created_by" db:"created_by"`
	UnitTitles []string  `json:"unit_titles" db:"-"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// UnitCount returns the number of units in the curriculum
func (c *Curriculum) UnitCount() int {
	return len(c.UnitTitles)
}

// TotalSections returns units × 6
func (c *Curriculum) TotalSections() int {
	return len(c.UnitTitles) * SectionsPerUnit
}

// SectionIndex returns the flat section index of a unit's section
func SectionIndex(unit int, t SectionType) int {
	return unit*SectionsPerUnit + int(t)
}

// UnitOf returns the unit a flat section index belongs to
func UnitOf(section int) int {
	return section / SectionsPerUnit
}

// TypeOf returns the section type of a flat section index
func TypeOf(section int) SectionType {
	return SectionType(section % SectionsPerUnit)
}
