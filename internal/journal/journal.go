// Package journal records project histories as parquet rows, one row per
// history step, so an editing session can be inspected after the fact.
package journal

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/registry"
)

// Row is one history step of one project.
type Row struct {
	ProjectID   string      `json:"project_id" parquet:"project_id"`
	ProjectName string      `json:"project_name" parquet:"project_name"`
	StepIndex   int         `json:"step_index" parquet:"step_index"`
	StepID      string      `json:"step_id" parquet:"step_id"`
	Description string      `json:"description" parquet:"description"`
	TimestampMs int64       `json:"timestamp_ms" parquet:"timestamp_ms"`
	Current     bool        `json:"current" parquet:"current"`
	ImageID     string      `json:"image_id" parquet:"image_id"`
	MimeType    string      `json:"mime_type" parquet:"mime_type"`
	Width       int         `json:"width" parquet:"width"`
	Height      int         `json:"height" parquet:"height"`
	Rotation    int         `json:"rotation" parquet:"rotation"`
	Filters     filters.Set `json:"filters" parquet:"filters"`
}

// Rows flattens the committed histories of snapshots, in project order and
// then step order. Uncommitted previews are not included.
func Rows(snapshots []registry.Snapshot) []Row {
	var rows []Row
	for _, s := range snapshots {
		for i, step := range s.Steps {
			row := Row{
				ProjectID:   s.ID,
				ProjectName: s.Name,
				StepIndex:   i,
				StepID:      step.ID,
				Description: step.Description,
				TimestampMs: step.Timestamp.UnixMilli(),
				Current:     i == s.Cursor,
				Rotation:    step.Rotation,
				Filters:     step.Filters,
			}
			if step.Image != nil {
				row.ImageID = step.Image.ID
				row.MimeType = step.Image.MimeType
				row.Width = step.Image.Width
				row.Height = step.Image.Height
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// Write encodes rows as parquet to w.
func Write(w io.Writer, rows []Row) error {
	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write journal rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close journal writer: %w", err)
	}
	return nil
}

// WriteFile saves rows to a parquet file at path.
func WriteFile(path string, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create journal file: %w", err)
	}
	if err := Write(file, rows); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close journal file: %w", err)
	}
	slog.Debug("Wrote journal", "path", path, "rows", len(rows))
	return nil
}

// ReadFile loads every row of a journal written by WriteFile.
func ReadFile(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	rows := make([]Row, 0, pf.NumRows())
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read journal rows: %w", err)
		}
	}
	return rows, nil
}
