package repository

import (
	"context"
	"testing"
	"time"

	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/types"
)

func TestSaveAndGetDayStats(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)

	stats := &types.DayStats{
		Date:            date,
		BreaksCompleted: 6,
		BreaksSkipped:   2,
		BreakMinutes:    18.5,
		ScreenMinutes:   410,
		MeetingMinutes:  95,
		IdleMinutes:     40,
		Score:           80,
		GoalMet:         false,
	}
	stats.HourlyBreaks[9] = 2
	stats.HourlyBreaks[14] = 3
	stats.HourlyBreaks[16] = 1

	if err := repo.SaveDayStats(ctx, stats); err != nil {
		t.Fatalf("SaveDayStats failed: %v", err)
	}

	loaded, err := repo.GetDayStats(ctx, date)
	if err != nil {
		t.Fatalf("GetDayStats failed: %v", err)
	}
	if loaded.BreaksCompleted != 6 || loaded.BreaksSkipped != 2 {
		t.Errorf("Counter mismatch: completed=%d skipped=%d", loaded.BreaksCompleted, loaded.BreaksSkipped)
	}
	if loaded.BreakMinutes != 18.5 {
		t.Errorf("Expected 18.5 break minutes, got %v", loaded.BreakMinutes)
	}
	if loaded.HourlyBreaks[14] != 3 {
		t.Errorf("Expected 3 breaks in hour 14, got %d", loaded.HourlyBreaks[14])
	}
	if loaded.GoalMet {
		t.Error("GoalMet should be false")
	}
	if !loaded.Date.Equal(date) {
		t.Errorf("Date mismatch: got %v, want %v", loaded.Date, date)
	}
}

func TestSaveDayStats_Upsert(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)

	stats := &types.DayStats{Date: date, BreaksCompleted: 1, Score: 100}
	if err := repo.SaveDayStats(ctx, stats); err != nil {
		t.Fatalf("First SaveDayStats failed: %v", err)
	}

	stats.BreaksCompleted = 2
	stats.BreaksSkipped = 1
	stats.Score = 75
	if err := repo.SaveDayStats(ctx, stats); err != nil {
		t.Fatalf("Second SaveDayStats failed: %v", err)
	}

	loaded, err := repo.GetDayStats(ctx, date)
	if err != nil {
		t.Fatalf("GetDayStats failed: %v", err)
	}
	if loaded.BreaksCompleted != 2 || loaded.Score != 75 {
		t.Errorf("Upsert did not replace values: completed=%d score=%d", loaded.BreaksCompleted, loaded.Score)
	}
}

func TestSaveDayStats_NilStats(t *testing.T) {
	repo := setupTestRepository(t)

	err := repo.SaveDayStats(context.Background(), nil)
	if err == nil {
		t.Fatal("Expected error for nil stats")
	}
	if !repoerrors.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestGetDayStats_NotFound(t *testing.T) {
	repo := setupTestRepository(t)

	_, err := repo.GetDayStats(context.Background(), time.Now())
	if err == nil {
		t.Fatal("Expected not-found error for missing day")
	}
	if !repoerrors.IsNotFound(err) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestGetDayStatsRange(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		stats := &types.DayStats{
			Date:            base.AddDate(0, 0, i),
			BreaksCompleted: i + 1,
			Score:           60 + i,
		}
		if err := repo.SaveDayStats(ctx, stats); err != nil {
			t.Fatalf("SaveDayStats day %d failed: %v", i, err)
		}
	}

	// Inclusive window covering days 1..3
	loaded, err := repo.GetDayStatsRange(ctx, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("GetDayStatsRange failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("Expected 3 days, got %d", len(loaded))
	}
	for i := 1; i < len(loaded); i++ {
		if loaded[i].Date.Before(loaded[i-1].Date) {
			t.Error("Results should be ordered by date ascending")
		}
	}
	if loaded[0].BreaksCompleted != 2 {
		t.Errorf("Expected first day in range to have 2 completed breaks, got %d", loaded[0].BreaksCompleted)
	}
}

func TestGetDayStatsRange_EmptyWindow(t *testing.T) {
	repo := setupTestRepository(t)

	loaded, err := repo.GetDayStatsRange(context.Background(),
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.Local),
		time.Date(2020, 1, 7, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("GetDayStatsRange failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected empty result, got %d days", len(loaded))
	}
}
