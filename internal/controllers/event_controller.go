package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devicewatch/backend/internal/logger"
	"github.com/devicewatch/backend/internal/middleware"
	"github.com/devicewatch/backend/internal/models"
	"github.com/devicewatch/backend/internal/services"
)

// EventRecorder stores events and checks device visibility.
type EventRecorder interface {
	UploadEvents(ctx context.Context, deviceID uint, req services.UploadEventsRequest) (int, uint, error)
	UserCanAccessDevice(ctx context.Context, userID, deviceID uint) (bool, error)
	QueryEvents(ctx context.Context, query services.EventQuery) ([]services.EventRecord, int64, error)
}

// ErrorReporter builds clustered system error reports.
type ErrorReporter interface {
	Build(ctx context.Context, query services.ErrorQuery) (*services.Report, error)
}

type EventController struct {
	events       EventRecorder
	reports      ErrorReporter
	defaultLimit int
}

func NewEventController(events EventRecorder, reports ErrorReporter, defaultLimit int) *EventController {
	return &EventController{
		events:       events,
		reports:      reports,
		defaultLimit: defaultLimit,
	}
}

// UploadEventsRequest is the body of POST /api/v1/events.
type UploadEventsRequest struct {
	DeviceID uint `json:"deviceId" binding:"required"`
	services.UploadEventsRequest
}

func (ec *EventController) UploadEvents(c *gin.Context) {
	var req UploadEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if !isAdmin(c) {
		ok, err := ec.events.UserCanAccessDevice(ctx, c.GetUint(middleware.ContextUserID), req.DeviceID)
		if err != nil {
			logger.WithError(err, "event_controller").Error("Failed to check device access")
			respondError(c, http.StatusInternalServerError, "Failed to record events.")
			return
		}
		if !ok {
			respondError(c, http.StatusForbidden, "User is not authorized for this device.")
			return
		}
	}

	added, detailID, err := ec.events.UploadEvents(ctx, req.DeviceID, req.UploadEventsRequest)
	switch {
	case errors.Is(err, services.ErrNoDescription):
		respondError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrDeviceNotFound), errors.Is(err, services.ErrDetailNotFound):
		respondError(c, http.StatusNotFound, err.Error())
		return
	case err != nil:
		logger.WithError(err, "event_controller").Error("Failed to record events")
		respondError(c, http.StatusInternalServerError, "Failed to record events.", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"messages":      []string{"Added events."},
		"eventsAdded":   added,
		"eventDetailId": detailID,
	})
}

// GetErrors returns system errors in the window grouped per service into clusters.
func (ec *EventController) GetErrors(c *gin.Context) {
	query, err := ec.parseErrorQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := ec.reports.Build(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTimeRange) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.WithError(err, "event_controller").Error("Failed to build error report")
		respondError(c, http.StatusInternalServerError, "Failed to query errors.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": []string{"Completed query."},
		"limit":    query.Limit,
		"offset":   query.Offset,
		"rows":     report.Services,
	})
}

// QueryEvents returns one page of raw events, optionally of a single type.
func (ec *EventController) QueryEvents(c *gin.Context) {
	base, err := ec.parseErrorQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	query := services.EventQuery{ErrorQuery: base, Type: c.Query("type")}
	if v := c.Query("latest"); v != "" {
		if query.Latest, err = strconv.ParseBool(v); err != nil {
			respondError(c, http.StatusBadRequest, "latest must be a boolean")
			return
		}
	}

	rows, count, err := ec.events.QueryEvents(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEventType) || errors.Is(err, services.ErrInvalidTimeRange) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.WithError(err, "event_controller").Error("Failed to query events")
		respondError(c, http.StatusInternalServerError, "Failed to query events.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"messages": []string{"Completed query."},
		"limit":    query.Limit,
		"offset":   query.Offset,
		"count":    count,
		"rows":     rows,
	})
}

func (ec *EventController) parseErrorQuery(c *gin.Context) (services.ErrorQuery, error) {
	query := services.ErrorQuery{
		UserID: c.GetUint(middleware.ContextUserID),
		Admin:  isAdmin(c),
		Limit:  ec.defaultLimit,
	}

	var err error
	if query.StartTime, err = parseTimeParam(c, "startTime"); err != nil {
		return query, err
	}
	if query.EndTime, err = parseTimeParam(c, "endTime"); err != nil {
		return query, err
	}

	if v := c.Query("deviceId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return query, errors.New("deviceId must be a positive integer")
		}
		deviceID := uint(id)
		query.DeviceID = &deviceID
	}
	if query.Offset, err = parseIntParam(c, "offset", 0); err != nil {
		return query, err
	}
	if query.Limit, err = parseIntParam(c, "limit", query.Limit); err != nil {
		return query, err
	}

	return query, query.Validate()
}

var isoLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseTimeParam(c *gin.Context, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New(name + " must be an ISO 8601 date")
}

func parseIntParam(c *gin.Context, name string, fallback int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextUserRole) == string(models.RoleAdmin)
}
