package store

import (
	"database/sql"
	"time"
)

const dateLayout = "2006-01-02"

func toNullInt64(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

func dateToString(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func dateFromString(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
