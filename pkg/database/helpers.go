package database

import (
	"database/sql"
	"encoding/json"
	"time"
)

// nullTime maps the zero time to SQL NULL
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// decodeJSON treats an empty column as the zero value
func decodeJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
