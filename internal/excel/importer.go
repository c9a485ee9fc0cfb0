package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/learnstate/pkg/models"
)

// CardCreator creates flashcards; *engine.Engine satisfies it
type CardCreator interface {
	CreateFlashcard(ctx context.Context, userID, curriculumID, front, back string) (*models.ReviewItem, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath     string // Path to the Excel or CSV file
	UserID       string // Owner of the imported cards
	CurriculumID string // Curriculum used until a header row switches it
	FrontColumn  string // Column with the card front
	BackColumn   string // Column with the card back
	SheetName    string // Name of the sheet to import
	StartRow     int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrontColumn: "A",
		BackColumn:  "B",
		SheetName:   "Sheet1",
		StartRow:    2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// ImportFlashcards imports flashcards from an Excel or CSV file.
// A row that ends before the back column is a header naming the curriculum
// for the rows below it. Row errors are collected, not returned.
func ImportFlashcards(ctx context.Context, creator CardCreator, config ImportConfig) (*ImportResult, error) {
	if config.UserID == "" {
		return nil, fmt.Errorf("import needs a user")
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	var rows [][]string
	var err error
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}
	return importRows(ctx, creator, config, rows)
}

// readExcel returns the rows of one sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns all records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func importRows(ctx context.Context, creator CardCreator, config ImportConfig, rows [][]string) (*ImportResult, error) {
	result := &ImportResult{Errors: make([]string, 0)}
	frontIdx := columnToIndex(config.FrontColumn)
	backIdx := columnToIndex(config.BackColumn)
	curriculum := config.CurriculumID
	seen := make(map[string]struct{})

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		front := cell(row, frontIdx)
		back := cell(row, backIdx)
		if front == "" && back == "" {
			continue
		}
		// curriculum header row: nothing at or after the back column
		if back == "" && len(row) <= backIdx && nonEmptyCells(row) == 1 {
			curriculum = strings.Trim(front, "\"")
			continue
		}

		result.TotalProcessed++
		if front == "" || back == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: front and back are required", rowNum))
			continue
		}

		key := strings.ToLower(curriculum + "\x00" + front)
		if _, dup := seen[key]; dup {
			result.Skipped++
			continue
		}
		seen[key] = struct{}{}

		if _, err := creator.CreateFlashcard(ctx, config.UserID, curriculum, front, back); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		result.Created++
	}
	return result, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func nonEmptyCells(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		if column[i] < 'A' || column[i] > 'Z' {
			return -1
		}
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
