// Package export renders persisted adherence history into portable
// documents. Exports are read-only over the repository; they never touch
// the live ledger state.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"restwell/internal/infrastructure/logging"
	"restwell/internal/repository"
	"restwell/internal/types"
)

// lookbackDays bounds how much history an export walks.
const lookbackDays = 365

const dateLayout = "2006-01-02"

// DayExport bundles one day's sessions with its rollup.
type DayExport struct {
	Date     string              `json:"date"`
	Stats    types.DayStats      `json:"stats"`
	Sessions []types.WorkSession `json:"sessions"`
}

// Document is the top-level JSON export shape.
type Document struct {
	SchemaVersion int         `json:"schemaVersion"`
	ExportedAt    time.Time   `json:"exportedAt"`
	Days          []DayExport `json:"days"`
}

// Exporter reads stored history and renders it.
type Exporter struct {
	repo   repository.AdherenceRepository
	logger logging.Logger
}

func NewExporter(repo repository.AdherenceRepository, logger logging.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Exporter{repo: repo, logger: logger}
}

// history returns stored day rollups for the lookback window, oldest first.
func (e *Exporter) history(ctx context.Context, now time.Time) ([]types.DayStats, error) {
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	from := to.AddDate(0, 0, -lookbackDays)
	return e.repo.GetDayStatsRange(ctx, from, to)
}

// JSON renders every stored day, with its session list, as one document.
// Days whose session snapshot cannot be read are exported with stats only.
func (e *Exporter) JSON(ctx context.Context, now time.Time) ([]byte, error) {
	days, err := e.history(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("loading day stats for export: %w", err)
	}

	doc := Document{
		SchemaVersion: 1,
		ExportedAt:    now,
		Days:          make([]DayExport, 0, len(days)),
	}
	for i := range days {
		entry := DayExport{
			Date:  days[i].Date.Format(dateLayout),
			Stats: days[i],
		}
		sessions, err := e.repo.GetSessions(ctx, days[i].Date)
		if err != nil {
			e.logger.Warn("Skipping sessions for export day", "date", entry.Date, "error", err)
		} else {
			entry.Sessions = sessions
		}
		doc.Days = append(doc.Days, entry)
	}

	return json.MarshalIndent(doc, "", "  ")
}

// CSV renders one row per stored day.
func (e *Exporter) CSV(ctx context.Context, now time.Time) ([]byte, error) {
	days, err := e.history(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("loading day stats for export: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "breaksCompleted", "breaksSkipped", "totalBreakMinutes", "dailyScore"}); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}
	for i := range days {
		d := &days[i]
		record := []string{
			d.Date.Format(dateLayout),
			strconv.Itoa(d.BreaksCompleted),
			strconv.Itoa(d.BreaksSkipped),
			strconv.FormatFloat(d.BreakMinutes, 'f', 1, 64),
			strconv.Itoa(d.Score),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}
