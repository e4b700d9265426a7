package db_test

import (
	"testing"

	"github.com/ricirt/hello-game/internal/db"
)

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/hello_game", "pgx5://u:p@localhost:5432/hello_game"},
		{"postgresql://u:p@db/hello_game?sslmode=disable", "pgx5://u:p@db/hello_game?sslmode=disable"},
		{"pgx5://u:p@db/hello_game", "pgx5://u:p@db/hello_game"},
	}
	for _, tt := range tests {
		if got := db.MigrationURL(tt.in); got != tt.want {
			t.Errorf("MigrationURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
