// Package scoreexport writes leaderboard pages to spreadsheet workbooks.
package scoreexport

import (
	"fmt"
	"io"

	scoreservice "github.com/Black-And-White-Club/quizboard/app/modules/score/application"
	"github.com/xuri/excelize/v2"
)

const (
	LeaderboardSheet = "Leaderboard"
	SummarySheet     = "Summary"
)

var leaderboardHeader = []any{"Rank", "User ID", "Username", "Score"}

// WriteXLSX writes board as a workbook with a ranked sheet and a summary sheet.
// scope describes the group and deck filter and is written to the summary.
func WriteXLSX(w io.Writer, scope string, board *scoreservice.Leaderboard) error {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the ranked sheet.
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), LeaderboardSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	if err := f.SetSheetRow(LeaderboardSheet, "A1", &leaderboardHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, e := range board.Entries {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{e.Rank, string(e.UserID), e.Username, e.Score}
		if err := f.SetSheetRow(LeaderboardSheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetPanes(LeaderboardSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	summary := [][]any{
		{"Scope", scope},
		{"Users", board.Users},
		{"Total score", board.TotalScore},
	}
	for i, row := range summary {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, axis, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
