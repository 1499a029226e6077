package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/crcportal/api/internal/database"
)

const (
	classTable   = "crc_class"
	studentTable = "student"
)

// inTable reports whether id is a "table:key" record id of table.
// type::record accepts any table, so ids from the URL are checked first.
func inTable(id, table string) bool {
	tb, key, ok := strings.Cut(id, ":")
	return ok && tb == table && key != ""
}

type createdRecord struct {
	ID        string
	CreatedOn time.Time
	UpdatedOn time.Time
}

// extractCreatedRecord reads the id and timestamps of the record returned by
// a CREATE statement.
func extractCreatedRecord(result []interface{}) (*createdRecord, error) {
	first, err := database.FirstRecord(result)
	if err != nil {
		return nil, errors.New("no result returned")
	}

	data, ok := first.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}

	record := &createdRecord{ID: convertSurrealID(data["id"])}
	if t := getTime(data, "created_on"); t != nil {
		record.CreatedOn = *t
	}
	if t := getTime(data, "updated_on"); t != nil {
		record.UpdatedOn = *t
	}
	return record, nil
}

// convertSurrealID renders a SurrealDB record id as "table:id".
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case map[string]interface{}:
		// {"tb": "student", "id": {"String": "abc"}} and similar
		tb := ""
		for _, key := range []string{"tb", "TB", "Table"} {
			if t, ok := v[key].(string); ok {
				tb = t
				break
			}
		}
		idPart := ""
		for _, key := range []string{"id", "ID"} {
			if idVal, ok := v[key]; ok {
				idPart = extractIDValue(idVal)
				break
			}
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		return idPart
	}
	return fmt.Sprintf("%v", id)
}

func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
		if s, ok := m["string"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// convertSurrealIDPtr is convertSurrealID for optional record links; NONE
// and NULL map to nil.
func convertSurrealIDPtr(id interface{}) *string {
	s := convertSurrealID(id)
	if s == "" {
		return nil
	}
	return &s
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	}
	return nil
}

func timeOrZero(m map[string]interface{}, key string) time.Time {
	if t := getTime(m, key); t != nil {
		return *t
	}
	return time.Time{}
}
