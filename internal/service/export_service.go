package service

import (
	"context"
	"fmt"

	"github.com/Aditya06pandey1368/LMS-Project/internal/model"
	"github.com/xuri/excelize/v2"
)

const historySheet = "Attempts"

var historyHeaders = []string{
	"Attempt ID", "Course", "Status", "Score (%)", "Result", "Started At", "Submitted At",
}

// HistorySource lists a user's finished attempts on a course.
type HistorySource interface {
	History(ctx context.Context, userID, courseID string) ([]model.HistoryEntry, error)
}

// ExportService renders a user's attempt history as a spreadsheet.
type ExportService struct {
	history HistorySource
}

// NewExportService creates a new ExportService.
func NewExportService(history HistorySource) *ExportService {
	return &ExportService{history: history}
}

// ExportHistory returns the user's finished attempts on courseID as xlsx bytes.
func (s *ExportService) ExportHistory(ctx context.Context, userID, courseID string) ([]byte, error) {
	entries, err := s.history.History(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(historySheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for i, header := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(historySheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for r, e := range entries {
		result := "Fail"
		if e.Pass {
			result = "Pass"
		}
		row := []interface{}{
			e.ID.String(),
			e.CourseTitle,
			string(e.Status),
			e.Score,
			result,
			e.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			e.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
