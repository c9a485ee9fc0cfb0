package excel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/example/learnstate/pkg/models"
)

type created struct {
	user, curriculum, front, back string
}

type fakeCreator struct {
	cards []created
	fail  string
}

func (f *fakeCreator) CreateFlashcard(_ context.Context, userID, curriculumID, front, back string) (*models.ReviewItem, error) {
	if front == f.fail {
		return nil, errors.New("store unavailable")
	}
	f.cards = append(f.cards, created{userID, curriculumID, front, back})
	return &models.ReviewItem{UserID: userID, CurriculumID: curriculumID, Front: front, Back: back}, nil
}

func TestImportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.csv")
	data := "front,back\n" +
		"2 + 2,4\n" +
		"geometry\n" +
		"Right angle,90 degrees\n" +
		"right angle,duplicate\n" +
		"Pi,\n" +
		"broken,x\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	creator := &fakeCreator{fail: "broken"}
	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.UserID = "u1"
	cfg.CurriculumID = "arithmetic"

	result, err := ImportFlashcards(context.Background(), creator, cfg)
	if err != nil {
		t.Fatalf("ImportFlashcards: %v", err)
	}
	if result.Created != 2 || result.Skipped != 1 || len(result.Errors) != 2 || result.TotalProcessed != 5 {
		t.Fatalf("unexpected result %+v", result)
	}
	if creator.cards[0].curriculum != "arithmetic" || creator.cards[1].curriculum != "geometry" {
		t.Fatalf("header row did not switch curriculum: %+v", creator.cards)
	}
}

func TestImportExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Front", "Back"},
		{"H2O", "water"},
		{"NaCl", "salt"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := row
		if err := f.SetSheetRow("Sheet1", cell, &values); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	creator := &fakeCreator{}
	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.UserID = "u1"
	cfg.CurriculumID = "chemistry"

	result, err := ImportFlashcards(context.Background(), creator, cfg)
	if err != nil {
		t.Fatalf("ImportFlashcards: %v", err)
	}
	if result.Created != 2 || len(result.Errors) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if creator.cards[1].front != "NaCl" || creator.cards[1].back != "salt" {
		t.Fatalf("unexpected card %+v", creator.cards[1])
	}
}

func TestImportRequiresUser(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.FilePath = "cards.csv"
	if _, err := ImportFlashcards(context.Background(), &fakeCreator{}, cfg); err == nil {
		t.Fatal("expected error without a user")
	}
}

func TestColumnToIndex(t *testing.T) {
	tests := map[string]int{"A": 0, "b": 1, "Z": 25, "AA": 26, "": -1, "1": -1}
	for in, want := range tests {
		if got := columnToIndex(in); got != want {
			t.Errorf("columnToIndex(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestExportProgressReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	stats := &models.Statistics{
		UserID:            "u1",
		TotalXP:           420,
		HighestLevel:      3,
		Badges:            []string{"first_steps", "quiz_whiz"},
		SectionsCompleted: 14,
		Curricula: []models.CurriculumSummary{
			{CurriculumID: "algebra", XP: 300, Level: 3, CompletedSections: 10},
			{CurriculumID: "geometry", XP: 120, Level: 1, CompletedSections: 4},
		},
	}
	if err := ExportProgressReport(path, stats); err != nil {
		t.Fatalf("ExportProgressReport: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	xp, err := f.GetCellValue(summarySheet, "B3")
	if err != nil || xp != "420" {
		t.Fatalf("total xp cell = %q, %v", xp, err)
	}
	rows, err := f.GetRows(curriculaSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[2][0] != "geometry" {
		t.Fatalf("unexpected curricula rows %v", rows)
	}
}
