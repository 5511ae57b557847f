package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"postgres", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"postgres fk", &pgconn.PgError{Code: "23503"}, false},
		{"sqlite", errors.New("UNIQUE constraint failed: module.name"), true},
		{"other", errors.New("disk I/O error"), false},
	}
	for _, tc := range cases {
		if got := IsUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("%s: want=%v got=%v", tc.name, tc.want, got)
		}
	}
}
