package postgres_test

import (
	"os"
	"testing"

	"memetrader/config"
	"memetrader/pkg/storage/postgres"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	host := os.Getenv("MEMETRADER_TEST_PGHOST")
	if host == "" {
		t.Skip("MEMETRADER_TEST_PGHOST not set")
	}
	cfg := config.PostgresConfig{
		Host:     host,
		Port:     5432,
		User:     os.Getenv("MEMETRADER_TEST_PGUSER"),
		Password: os.Getenv("MEMETRADER_TEST_PGPASSWORD"),
		DBName:   "memetrader_test_journal",
		SSLMode:  "disable",
	}

	if err := postgres.CreateDatabase(cfg); err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	// second call finds it and is a no-op
	if err := postgres.CreateDatabase(cfg); err != nil {
		t.Fatalf("create existing database: %v", err)
	}
}
