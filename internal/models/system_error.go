package models

import (
	"encoding/json"
	"fmt"

	"github.com/devicewatch/backend/internal/errorgroup"
)

// DecodeSystemErrorDetails reads the optional unitName and logs fields of a
// systemError detail payload. Absent or null fields stay nil.
func DecodeSystemErrorDetails(raw []byte) (errorgroup.Details, error) {
	var details errorgroup.Details
	if len(raw) == 0 {
		return details, nil
	}
	if err := json.Unmarshal(raw, &details); err != nil {
		return errorgroup.Details{}, fmt.Errorf("invalid systemError details: %w", err)
	}
	return details, nil
}
