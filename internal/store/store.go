package store

import (
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrForbidden is returned when a profile touches a row it does not own.
	ErrForbidden = errors.New("forbidden")

	// ErrInsufficientPoints is returned when a purchase exceeds the balance.
	ErrInsufficientPoints = errors.New("insufficient points")
)

type scanner interface{ Scan(...any) error }

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
