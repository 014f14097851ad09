package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/devicewatch/backend/internal/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func uintPtr(v uint) *uint {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func TestUploadEvents_CreatesDetail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "devices" WHERE "devices"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_name", "group_id"}).AddRow(7, "pi-7", 1))
	mock.ExpectQuery(`SELECT \* FROM "detail_snapshots" WHERE type = \$1 AND details = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "detail_snapshots"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	added, detailID, err := svc.UploadEvents(context.Background(), 7, UploadEventsRequest{
		Description: &EventDescription{
			Type:    models.SystemErrorType,
			Details: models.JSONB{"unitName": "thermal-recorder", "logs": []interface{}{"boom"}},
		},
		DateTimes: []time.Time{
			time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 9, 9, 0, 0, 0, time.UTC),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, uint(42), detailID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadEvents_ReusesExistingDetail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "devices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_name", "group_id"}).AddRow(7, "pi-7", 1))
	mock.ExpectQuery(`SELECT \* FROM "detail_snapshots" WHERE "detail_snapshots"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type"}).AddRow(9, models.SystemErrorType))
	mock.ExpectQuery(`INSERT INTO "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	added, detailID, err := svc.UploadEvents(context.Background(), 7, UploadEventsRequest{
		EventDetailID: uintPtr(9),
		DateTimes:     []time.Time{time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, uint(9), detailID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadEvents_UnknownDevice(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "devices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, _, err := svc.UploadEvents(context.Background(), 99, UploadEventsRequest{
		EventDetailID: uintPtr(9),
		DateTimes:     []time.Time{time.Now()},
	})

	assert.ErrorIs(t, err, ErrDeviceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadEvents_UnknownDetail(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "devices"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_name", "group_id"}).AddRow(7, "pi-7", 1))
	mock.ExpectQuery(`SELECT \* FROM "detail_snapshots"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, _, err := svc.UploadEvents(context.Background(), 7, UploadEventsRequest{
		EventDetailID: uintPtr(404),
		DateTimes:     []time.Time{time.Now()},
	})

	assert.ErrorIs(t, err, ErrDetailNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadEvents_RequiresDescription(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	_, _, err := svc.UploadEvents(context.Background(), 7, UploadEventsRequest{DateTimes: []time.Time{time.Now()}})
	assert.ErrorIs(t, err, ErrNoDescription)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryErrors_DecodesRows(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	t1 := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 9, 8, 5, 0, 0, time.UTC)
	t3 := time.Date(2024, 3, 9, 8, 10, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT events.date_time, devices.device_name, detail_snapshots.details FROM "events" JOIN devices .* JOIN detail_snapshots .* WHERE detail_snapshots.type = .* AND events.date_time >= .* AND events.date_time < .* AND devices.group_id IN \(SELECT group_id FROM "group_users" WHERE user_id = .*\) ORDER BY events.date_time`).
		WillReturnRows(sqlmock.NewRows([]string{"date_time", "device_name", "details"}).
			AddRow(t1, "pi-1", []byte(`{"unitName":"power","logs":["the power has gone down"]}`)).
			AddRow(t2, "pi-2", []byte(`{not json`)).
			AddRow(t3, "pi-3", []byte(`{"unitName":"power"}`)))

	events, err := svc.QueryErrors(context.Background(), ErrorQuery{
		UserID:    3,
		StartTime: timePtr(t1),
		EndTime:   timePtr(t3.Add(time.Hour)),
	})

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "pi-1", events[0].DeviceName)
	assert.Equal(t, t1, events[0].Timestamp)
	require.NotNil(t, events[0].Details.UnitName)
	assert.Equal(t, "power", *events[0].Details.UnitName)
	assert.Equal(t, []string{"the power has gone down"}, events[0].Details.Logs)
	assert.Nil(t, events[1].Details.Logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryErrors_AdminWithDeviceAndLimit(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	mock.ExpectQuery(`FROM "events" .* WHERE detail_snapshots.type = \$1 AND events.device_id = \$2 ORDER BY events.date_time LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"date_time", "device_name", "details"}))

	events, err := svc.QueryErrors(context.Background(), ErrorQuery{
		Admin:    true,
		DeviceID: uintPtr(12),
		Limit:    50,
	})

	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryEvents_CountsAndPages(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	t1 := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "events" JOIN devices .* JOIN detail_snapshots .* WHERE detail_snapshots.type = \$1 AND events.date_time >= \$2 AND devices.group_id IN \(SELECT group_id FROM "group_users" WHERE user_id = \$3\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT events.id, events.date_time, events.device_id, devices.device_name, detail_snapshots.type, detail_snapshots.details FROM "events" .* ORDER BY events.date_time DESC LIMIT .* OFFSET`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_time", "device_id", "device_name", "type", "details"}).
			AddRow(9, t1, 12, "pi-12", "alert", []byte(`{"level":"high"}`)))

	records, count, err := svc.QueryEvents(context.Background(), EventQuery{
		ErrorQuery: ErrorQuery{UserID: 3, StartTime: timePtr(t1), Offset: 5, Limit: 2},
		Type:       "alert",
		Latest:     true,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	require.Len(t, records, 1)
	assert.Equal(t, uint(9), records[0].ID)
	assert.Equal(t, t1, records[0].DateTime)
	assert.Equal(t, uint(12), records[0].DeviceID)
	assert.Equal(t, "pi-12", records[0].DeviceName)
	assert.Equal(t, "alert", records[0].Type)
	assert.Equal(t, models.JSONB{"level": "high"}, records[0].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryEvents_AdminAnyType(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "events" JOIN devices .* JOIN detail_snapshots [^W]*$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`FROM "events" JOIN devices .* JOIN detail_snapshots .* ORDER BY events.date_time$`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "date_time", "device_id", "device_name", "type", "details"}))

	records, count, err := svc.QueryEvents(context.Background(), EventQuery{ErrorQuery: ErrorQuery{Admin: true}})

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventQueryValidate(t *testing.T) {
	start := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   EventQuery
		wantErr error
	}{
		{"any type", EventQuery{}, nil},
		{"letters", EventQuery{Type: "systemError"}, nil},
		{"digits", EventQuery{Type: "error2"}, ErrInvalidEventType},
		{"sql", EventQuery{Type: "x' OR 1=1"}, ErrInvalidEventType},
		{"reversed window", EventQuery{ErrorQuery: ErrorQuery{StartTime: timePtr(start), EndTime: timePtr(start)}}, ErrInvalidTimeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestErrorQueryValidate(t *testing.T) {
	start := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   ErrorQuery
		wantErr error
	}{
		{"open window", ErrorQuery{}, nil},
		{"start only", ErrorQuery{StartTime: timePtr(start)}, nil},
		{"ordered", ErrorQuery{StartTime: timePtr(start), EndTime: timePtr(start.Add(time.Minute))}, nil},
		{"equal bounds", ErrorQuery{StartTime: timePtr(start), EndTime: timePtr(start)}, ErrInvalidTimeRange},
		{"reversed", ErrorQuery{StartTime: timePtr(start), EndTime: timePtr(start.Add(-time.Minute))}, ErrInvalidTimeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	assert.Error(t, ErrorQuery{Limit: -1}.Validate())
}

func TestQueryErrors_RejectsInvalidRange(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	start := time.Date(2024, 3, 9, 8, 0, 0, 0, time.UTC)
	_, err := svc.QueryErrors(context.Background(), ErrorQuery{StartTime: timePtr(start), EndTime: timePtr(start)})

	assert.ErrorIs(t, err, ErrInvalidTimeRange)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCanAccessDevice(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewEventService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "devices" WHERE id = \$1 AND group_id IN \(SELECT group_id FROM "group_users" WHERE user_id = \$2\)`).
		WithArgs(12, 3).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "devices"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	ok, err := svc.UserCanAccessDevice(context.Background(), 3, 12)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.UserCanAccessDevice(context.Background(), 3, 13)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
