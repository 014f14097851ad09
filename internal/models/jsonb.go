package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB maps a postgres jsonb column holding a JSON object.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb: %w", err)
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("failed to unmarshal jsonb: %w", err)
	}
	*j = m
	return nil
}
