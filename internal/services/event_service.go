package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/devicewatch/backend/internal/errorgroup"
	"github.com/devicewatch/backend/internal/logger"
	"github.com/devicewatch/backend/internal/models"
)

type EventService struct {
	db *gorm.DB
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{db: db}
}

// EventDescription identifies a detail snapshot by content.
type EventDescription struct {
	Type    string       `json:"type" binding:"required"`
	Details models.JSONB `json:"details"`
}

// UploadEventsRequest records one event per entry in DateTimes. Either
// EventDetailID or Description must be set.
type UploadEventsRequest struct {
	EventDetailID *uint             `json:"eventDetailId"`
	Description   *EventDescription `json:"description"`
	DateTimes     []time.Time       `json:"dateTimes" binding:"required,min=1"`
}

// UploadEvents stores the events for a device and returns how many were added and
// the detail snapshot they reference.
func (s *EventService) UploadEvents(ctx context.Context, deviceID uint, req UploadEventsRequest) (int, uint, error) {
	if req.EventDetailID == nil && req.Description == nil {
		return 0, 0, ErrNoDescription
	}

	var detailID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var device models.Device
		if err := tx.First(&device, deviceID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeviceNotFound
			}
			return fmt.Errorf("failed to load device %d: %w", deviceID, err)
		}

		if req.EventDetailID != nil {
			var detail models.DetailSnapshot
			if err := tx.First(&detail, *req.EventDetailID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrDetailNotFound
				}
				return fmt.Errorf("failed to load event detail %d: %w", *req.EventDetailID, err)
			}
			detailID = detail.ID
		} else {
			detail, err := getOrCreateDetail(tx, req.Description.Type, req.Description.Details)
			if err != nil {
				return err
			}
			detailID = detail.ID
		}

		events := make([]models.Event, 0, len(req.DateTimes))
		for _, dt := range req.DateTimes {
			events = append(events, models.Event{
				DateTime:      dt,
				DeviceID:      device.ID,
				EventDetailID: detailID,
			})
		}
		if err := tx.Create(&events).Error; err != nil {
			return fmt.Errorf("failed to record events: %w", err)
		}

		logger.WithDevice(device.ID, device.DeviceName).WithField("events_added", len(events)).Debug("Recorded events")
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return len(req.DateTimes), detailID, nil
}

// UserCanAccessDevice reports whether the device belongs to one of the user's groups.
func (s *EventService) UserCanAccessDevice(ctx context.Context, userID, deviceID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("id = ?", deviceID).
		Where("group_id IN (?)", s.db.Table("group_users").Select("group_id").Where("user_id = ?", userID)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check device access: %w", err)
	}
	return count > 0, nil
}

// getOrCreateDetail returns the snapshot with exactly this type and details,
// creating it when none exists.
func getOrCreateDetail(tx *gorm.DB, detailType string, details models.JSONB) (*models.DetailSnapshot, error) {
	q := tx.Where("type = ?", detailType)
	if details == nil {
		q = q.Where("details IS NULL")
	} else {
		q = q.Where("details = ?", details)
	}

	var existing models.DetailSnapshot
	err := q.First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up event detail: %w", err)
	}

	created := models.DetailSnapshot{Type: detailType, Details: details}
	if err := tx.Create(&created).Error; err != nil {
		return nil, fmt.Errorf("failed to create event detail: %w", err)
	}
	return &created, nil
}

// ErrorQuery selects system error events. Nil bounds are open, and a zero
// Limit returns every matching event.
type ErrorQuery struct {
	UserID    uint
	Admin     bool
	StartTime *time.Time
	EndTime   *time.Time
	DeviceID  *uint
	Offset    int
	Limit     int
}

// Validate rejects windows that cannot contain any event.
func (q ErrorQuery) Validate() error {
	if q.StartTime != nil && q.EndTime != nil && !q.StartTime.Before(*q.EndTime) {
		return ErrInvalidTimeRange
	}
	if q.Offset < 0 || q.Limit < 0 {
		return fmt.Errorf("offset and limit must not be negative")
	}
	return nil
}

type errorRow struct {
	DateTime   time.Time
	DeviceName string
	Details    []byte
}

// QueryErrors returns the system error events visible to the caller, oldest first.
// Events whose details cannot be decoded are skipped.
func (s *EventService) QueryErrors(ctx context.Context, query ErrorQuery) ([]errorgroup.Event, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Table("events").
		Select("events.date_time, devices.device_name, detail_snapshots.details").
		Scopes(s.visibleEvents(query, models.SystemErrorType))

	q = q.Order("events.date_time").Offset(query.Offset)
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	var rows []errorRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query system errors: %w", err)
	}

	events := make([]errorgroup.Event, 0, len(rows))
	for _, row := range rows {
		details, err := models.DecodeSystemErrorDetails(row.Details)
		if err != nil {
			logger.Warn("Skipping system error with unreadable details", map[string]interface{}{
				"device":    row.DeviceName,
				"date_time": row.DateTime,
				"error":     err.Error(),
			})
			continue
		}
		events = append(events, errorgroup.Event{
			DeviceName: row.DeviceName,
			Timestamp:  row.DateTime,
			Details:    details,
		})
	}
	return events, nil
}

// visibleEvents joins events to their device and detail snapshot and applies the
// query filters. An empty eventType matches every type.
func (s *EventService) visibleEvents(query ErrorQuery, eventType string) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Joins("JOIN devices ON devices.id = events.device_id AND devices.deleted_at IS NULL").
			Joins("JOIN detail_snapshots ON detail_snapshots.id = events.event_detail_id")

		if eventType != "" {
			q = q.Where("detail_snapshots.type = ?", eventType)
		}
		if query.StartTime != nil {
			q = q.Where("events.date_time >= ?", *query.StartTime)
		}
		if query.EndTime != nil {
			q = q.Where("events.date_time < ?", *query.EndTime)
		}
		if query.DeviceID != nil {
			q = q.Where("events.device_id = ?", *query.DeviceID)
		}
		if !query.Admin {
			q = q.Where("devices.group_id IN (?)",
				s.db.Table("group_users").Select("group_id").Where("user_id = ?", query.UserID))
		}
		return q
	}
}

var eventTypePattern = regexp.MustCompile(`^[A-Za-z]+$`)

// EventQuery selects raw events of any type. Latest lists the most recent first.
type EventQuery struct {
	ErrorQuery
	Type   string
	Latest bool
}

func (q EventQuery) Validate() error {
	if q.Type != "" && !eventTypePattern.MatchString(q.Type) {
		return ErrInvalidEventType
	}
	return q.ErrorQuery.Validate()
}

// EventRecord is one event with its device name and detail snapshot.
type EventRecord struct {
	ID         uint         `json:"id"`
	DateTime   time.Time    `json:"dateTime"`
	DeviceID   uint         `json:"DeviceId"`
	DeviceName string       `json:"devicename"`
	Type       string       `json:"type"`
	Details    models.JSONB `json:"details"`
}

// QueryEvents returns one page of the events visible to the caller together with
// the number of events matching the query across all pages.
func (s *EventService) QueryEvents(ctx context.Context, query EventQuery) ([]EventRecord, int64, error) {
	if err := query.Validate(); err != nil {
		return nil, 0, err
	}

	var count int64
	err := s.db.WithContext(ctx).
		Table("events").
		Scopes(s.visibleEvents(query.ErrorQuery, query.Type)).
		Count(&count).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	order := "events.date_time"
	if query.Latest {
		order += " DESC"
	}
	q := s.db.WithContext(ctx).
		Table("events").
		Select("events.id, events.date_time, events.device_id, devices.device_name, detail_snapshots.type, detail_snapshots.details").
		Scopes(s.visibleEvents(query.ErrorQuery, query.Type)).
		Order(order).
		Offset(query.Offset)
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	records := []EventRecord{}
	if err := q.Scan(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query events: %w", err)
	}
	return records, count, nil
}
