package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/learnstate/pkg/models"
)

const (
	summarySheet   = "Summary"
	curriculaSheet = "Curricula"
)

// ExportProgressReport writes aggregate statistics to an .xlsx workbook with a
// summary sheet and one row per curriculum
func ExportProgressReport(path string, stats *models.Statistics) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), summarySheet)
	if _, err := f.NewSheet(curriculaSheet); err != nil {
		return fmt.Errorf("failed to create curricula sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	summary := [][]interface{}{
		{"Metric", "Value"},
		{"User", stats.UserID},
		{"Total XP", stats.TotalXP},
		{"Highest level", stats.HighestLevel},
		{"Sections completed", stats.SectionsCompleted},
		{"Perfect quizzes", stats.PerfectQuizzes},
		{"Current streak", stats.CurrentStreak},
		{"Best streak", stats.BestStreak},
		{"Flashcards", stats.FlashcardsTotal},
		{"Flashcards due", stats.FlashcardsDue},
		{"Flashcards mastered", stats.FlashcardsMastered},
		{"Badges", strings.Join(stats.Badges, ", ")},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	curricula := [][]interface{}{{"Curriculum", "XP", "Level", "Current section", "Sections completed", "Badges"}}
	for _, c := range stats.Curricula {
		curricula = append(curricula, []interface{}{c.CurriculumID, c.XP, c.Level, c.CurrentSection, c.CompletedSections, c.Badges})
	}
	if err := writeRows(f, curriculaSheet, curricula); err != nil {
		return err
	}

	for _, sheet := range []string{summarySheet, curriculaSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
