package store

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dukerupert/tasklevel/internal/database"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProfile(t *testing.T, db *sql.DB, id string, points int) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO profiles (id, username, email, points, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, "user-"+id, id+"@example.com", points, time.Now().UTC())
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func mustPoints(t *testing.T, db *sql.DB, id string) int {
	t.Helper()
	var points int
	if err := db.QueryRow(`SELECT points FROM profiles WHERE id = ?`, id).Scan(&points); err != nil {
		t.Fatalf("read points: %v", err)
	}
	return points
}
