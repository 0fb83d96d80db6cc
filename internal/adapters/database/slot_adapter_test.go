package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint-health/appointments/backend/internal/adapters/database"
	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/postgres"
)

func TestSlotAdapter_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := database.NewSlotAdapter(postgres.NewClientFromDB(db))

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO "slots" .* ON CONFLICT \(doctor_id, time_label\) DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "doctor_id", "time_label", "created_at", "updated_at"}).
			AddRow("slot-1", "doc-1", "10:30 AM", now, now))

	slot, err := adapter.Upsert(context.Background(), &entities.Slot{
		DoctorID:  "doc-1",
		TimeLabel: "10:30 AM",
	})

	require.NoError(t, err)
	assert.Equal(t, "slot-1", slot.ID)
	assert.Equal(t, "10:30 AM", slot.TimeLabel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotAdapter_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := database.NewSlotAdapter(postgres.NewClientFromDB(db))

	// Absent rows are not an error.
	mock.ExpectExec(`DELETE FROM "slots"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.Delete(context.Background(), "slot-404"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityAdapter_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := database.NewAvailabilityAdapter(postgres.NewClientFromDB(db))

	day := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO "availability" .* ON CONFLICT \(doctor_id, day\) DO UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "doctor_id", "day", "available", "created_at", "updated_at"}).
			AddRow("av-1", "doc-1", day, true, now, now))

	stored, err := adapter.Upsert(context.Background(), &entities.Availability{
		DoctorID:  "doc-1",
		Day:       day,
		Available: true,
	})

	require.NoError(t, err)
	assert.True(t, stored.Available)
	assert.Equal(t, "doc-1", stored.DoctorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
