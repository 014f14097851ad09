package services

import "errors"

var (
	ErrInvalidTimeRange = errors.New("startTime must be before endTime")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrDetailNotFound   = errors.New("event detail not found")
	ErrNoDescription    = errors.New("either eventDetailId or description is required")
	ErrInvalidEventType = errors.New("type must contain letters only")
)
