package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"restwell/internal/types"
)

func TestSaveAndGetSessions(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local)

	session := types.NewWorkSession(date)
	session.BreaksTaken = 2
	session.BreaksSkipped = 1
	pause := types.NewPauseEvent(date.Add(30*time.Minute), types.ReasonMeeting, "zoom")
	pause.Complete(date.Add(45 * time.Minute))
	session.Pauses = append(session.Pauses, pause)

	if err := repo.SaveSessions(ctx, date, []types.WorkSession{*session}); err != nil {
		t.Fatalf("SaveSessions failed: %v", err)
	}

	loaded, err := repo.GetSessions(ctx, date)
	if err != nil {
		t.Fatalf("GetSessions failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 session, got %d", len(loaded))
	}
	if loaded[0].ID != session.ID {
		t.Errorf("Session ID mismatch: got %s, want %s", loaded[0].ID, session.ID)
	}
	if loaded[0].BreaksTaken != 2 || loaded[0].BreaksSkipped != 1 {
		t.Errorf("Counter mismatch: taken=%d skipped=%d", loaded[0].BreaksTaken, loaded[0].BreaksSkipped)
	}
	if len(loaded[0].Pauses) != 1 {
		t.Fatalf("Expected 1 pause, got %d", len(loaded[0].Pauses))
	}
	if loaded[0].Pauses[0].Reason != types.ReasonMeeting {
		t.Errorf("Pause reason mismatch: got %s", loaded[0].Pauses[0].Reason)
	}
	if !loaded[0].Pauses[0].Completed() {
		t.Error("Pause should be completed after roundtrip")
	}
}

func TestSaveSessions_ReplacesPreviousSnapshot(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	first := types.NewWorkSession(date)
	second := types.NewWorkSession(date.Add(time.Hour))

	if err := repo.SaveSessions(ctx, date, []types.WorkSession{*first}); err != nil {
		t.Fatalf("First SaveSessions failed: %v", err)
	}
	if err := repo.SaveSessions(ctx, date, []types.WorkSession{*first, *second}); err != nil {
		t.Fatalf("Second SaveSessions failed: %v", err)
	}

	loaded, err := repo.GetSessions(ctx, date)
	if err != nil {
		t.Fatalf("GetSessions failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 sessions after replace, got %d", len(loaded))
	}
}

func TestGetSessions_MissingDayReturnsEmpty(t *testing.T) {
	repo := setupTestRepository(t)

	loaded, err := repo.GetSessions(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("GetSessions on empty store failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected empty session list, got %d entries", len(loaded))
	}
}

func TestGetSessions_CorruptPayloadDiscarded(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local)

	// Plant a payload that will not decode
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO sessions (date, payload) VALUES (?, ?)", dateKey(date), "{not json")
	if err != nil {
		t.Fatalf("Failed to plant corrupt payload: %v", err)
	}

	loaded, err := repo.GetSessions(ctx, date)
	if err != nil {
		t.Fatalf("GetSessions should not fail on corrupt payload: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("Expected empty list for corrupt payload, got %d entries", len(loaded))
	}

	// The corrupt row must be gone
	var count int
	if err := repo.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE date = ?", dateKey(date)).Scan(&count); err != nil {
		t.Fatalf("Failed to count session rows: %v", err)
	}
	if count != 0 {
		t.Errorf("Corrupt payload row should have been discarded, found %d rows", count)
	}
}

func TestSaveSessions_NilListStoresEmpty(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()
	date := time.Now()

	if err := repo.SaveSessions(ctx, date, nil); err != nil {
		t.Fatalf("SaveSessions with nil list failed: %v", err)
	}

	loaded, err := repo.GetSessions(ctx, date)
	if err != nil {
		t.Fatalf("GetSessions failed: %v", err)
	}
	if loaded == nil || len(loaded) != 0 {
		t.Errorf("Expected empty non-nil list, got %v", loaded)
	}
}

func TestSessions_DistinctDatesDoNotCollide(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	yesterday := time.Date(2026, 3, 13, 12, 0, 0, 0, time.Local)
	today := time.Date(2026, 3, 14, 12, 0, 0, 0, time.Local)

	ySession := types.WorkSession{ID: uuid.New().String(), StartTime: yesterday}
	tSession := types.WorkSession{ID: uuid.New().String(), StartTime: today}

	if err := repo.SaveSessions(ctx, yesterday, []types.WorkSession{ySession}); err != nil {
		t.Fatalf("SaveSessions yesterday failed: %v", err)
	}
	if err := repo.SaveSessions(ctx, today, []types.WorkSession{tSession}); err != nil {
		t.Fatalf("SaveSessions today failed: %v", err)
	}

	loaded, err := repo.GetSessions(ctx, today)
	if err != nil {
		t.Fatalf("GetSessions failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != tSession.ID {
		t.Errorf("Today's snapshot should only contain today's session")
	}
}
