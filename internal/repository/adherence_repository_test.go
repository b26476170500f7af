package repository

import (
	"context"
	"testing"
	"time"

	"restwell/internal/database"
	repoerrors "restwell/internal/infrastructure/errors"
	"restwell/internal/infrastructure/logging"
)

func TestNewSQLiteRepository(t *testing.T) {
	repo := setupTestRepository(t)

	if repo == nil {
		t.Fatal("NewSQLiteRepository returned nil")
	}
	if repo.db == nil {
		t.Error("Repository db is nil")
	}
	if repo.q == nil {
		t.Error("Repository query target is nil")
	}
	if repo.logger == nil {
		t.Error("Repository logger is nil")
	}
	if repo.retryConfig == nil {
		t.Error("Repository retryConfig is nil")
	}
}

func TestNewSQLiteRepositoryWithConfig(t *testing.T) {
	config := database.TestConfig()
	logger := logging.NewDefaultLogger()
	dbService := database.NewSQLiteService(logger)

	ctx := context.Background()
	if err := dbService.Connect(ctx, config); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	defer dbService.Close()

	if err := dbService.Migrate(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	customRetryConfig := &repoerrors.RetryConfig{
		MaxAttempts:   5,
		InitialDelay:  50 * time.Millisecond,
		BackoffFactor: 1.5,
	}

	repo := NewSQLiteRepositoryWithConfig(dbService, customRetryConfig, logger)
	if repo == nil {
		t.Fatal("NewSQLiteRepositoryWithConfig returned nil")
	}
	if repo.retryConfig.MaxAttempts != 5 {
		t.Errorf("Expected MaxAttempts 5, got %d", repo.retryConfig.MaxAttempts)
	}

	repo2 := NewSQLiteRepositoryWithConfig(dbService, nil, logger)
	if repo2.retryConfig == nil {
		t.Error("Repository should have default retry config when nil is passed")
	}

	repo3 := NewSQLiteRepositoryWithConfig(dbService, customRetryConfig, nil)
	if repo3.logger == nil {
		t.Error("Repository should have default logger when nil is passed")
	}
}

func TestHealthCheck(t *testing.T) {
	repo := setupTestRepository(t)

	if err := repo.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck failed: %v", err)
	}
}

// Helper function to set up a test repository backed by an in-memory database
func setupTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	config := database.TestConfig()
	logger := logging.NewDefaultLogger()
	dbService := database.NewSQLiteService(logger)

	ctx := context.Background()
	if err := dbService.Connect(ctx, config); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { dbService.Close() })

	if err := dbService.Migrate(ctx); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewSQLiteRepository(dbService, logger)
}
