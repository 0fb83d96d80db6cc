package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/carepoint-health/appointments/backend/internal/domain/entities"
	"github.com/carepoint-health/appointments/backend/internal/domain/repositories"
	"github.com/carepoint-health/appointments/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/carepoint-health/appointments/backend/pkg/errors"
)

const dayFormat = "2006-01-02"

// Postgres error codes the booking transaction has to recognize.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// activeSlotConstraint is the partial unique index backstopping the
// occupancy pre-check inside the transaction.
const activeSlotConstraint = "ux_bookings_active_slot"

// maxBookAttempts bounds how often an aborted booking transaction is
// re-run whole before the conflict is surfaced to the caller.
const maxBookAttempts = 3

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Book runs the quota check, occupancy check, token assignment and
// insert as one serializable transaction. Serialization aborts re-run
// the whole sequence; business conflicts come back as typed errors.
func (a *BookingAdapter) Book(ctx context.Context, booking *entities.Booking, dailyLimit int) error {
	var lastErr error
	for attempt := 1; attempt <= maxBookAttempts; attempt++ {
		err := a.bookOnce(ctx, booking, dailyLimit)
		if err == nil {
			return nil
		}
		if !isRetryableTxError(err) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return apperrors.NewInternalError("booking aborted", ctx.Err())
		case <-time.After(time.Duration(attempt) * 20 * time.Millisecond):
		}
	}
	return apperrors.NewTxConflictError("booking conflicted with concurrent requests, please retry", lastErr)
}

func (a *BookingAdapter) bookOnce(ctx context.Context, booking *entities.Booking, dailyLimit int) error {
	day := booking.AppointmentAt.Format(dayFormat)

	tx, err := a.client.BeginSerializableTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin booking transaction", err)
	}
	defer tx.Rollback()

	// Daily quota: active bookings only, cancelled ones free the slot.
	count, err := a.countActiveByPatientDay(ctx, tx, booking.PatientID, day)
	if err != nil {
		return err
	}
	if count >= dailyLimit {
		return apperrors.NewDailyLimitError(fmt.Sprintf("you can only book %d appointments per day", dailyLimit))
	}

	taken, err := a.activeSlotExists(ctx, tx, booking.DoctorID, day, booking.SlotTime)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewSlotTakenError("this slot is already booked")
	}

	token, err := a.nextToken(ctx, tx, booking.DoctorID, day)
	if err != nil {
		return err
	}

	now := time.Now()
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.TokenNumber = token
	booking.Status = entities.BookingStatusBooked
	booking.CreatedAt = now
	booking.UpdatedAt = now

	record := goqu.Record{
		"id":              booking.ID,
		"doctor_id":       booking.DoctorID,
		"hospital_id":     booking.HospitalID,
		"patient_id":      booking.PatientID,
		"appointment_at":  booking.AppointmentAt,
		"appointment_day": day,
		"slot_time":       booking.SlotTime,
		"token_number":    booking.TokenNumber,
		"status":          booking.Status,
		"created_at":      booking.CreatedAt,
		"updated_at":      booking.UpdatedAt,
	}

	query, args, err := a.db.Insert("bookings").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isConstraintViolation(err, activeSlotConstraint) {
			// Lost the race between the pre-check and the insert; the
			// partial unique index closes that window.
			return apperrors.NewSlotTakenError("this slot is already booked")
		}
		return wrapTxError("failed to create booking", err)
	}

	// Serialization failures often surface only at commit.
	if err := tx.Commit(); err != nil {
		return wrapTxError("failed to commit booking", err)
	}

	return nil
}

func (a *BookingAdapter) countActiveByPatientDay(ctx context.Context, tx *sql.Tx, patientID, day string) (int, error) {
	query, args, err := a.db.From("bookings").
		Select(goqu.COUNT("*")).
		Where(
			goqu.Ex{"patient_id": patientID, "appointment_day": day},
			goqu.C("status").Neq(entities.BookingStatusCancelled),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build quota query", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, wrapTxError("failed to count patient bookings", err)
	}
	return count, nil
}

func (a *BookingAdapter) activeSlotExists(ctx context.Context, tx *sql.Tx, doctorID, day, slotTime string) (bool, error) {
	query, args, err := a.db.From("bookings").
		Select(goqu.L("1")).
		Where(
			goqu.Ex{"doctor_id": doctorID, "appointment_day": day, "slot_time": slotTime},
			goqu.C("status").Neq(entities.BookingStatusCancelled),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build occupancy query", err)
	}

	var one int
	err = tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, wrapTxError("failed to check slot occupancy", err)
	}
	return true, nil
}

// nextToken bumps the per-doctor-day counter row atomically. The counter
// only ever grows, so cancelled tokens are never reissued.
func (a *BookingAdapter) nextToken(ctx context.Context, tx *sql.Tx, doctorID, day string) (int, error) {
	query, args, err := a.db.Insert("booking_tokens").
		Rows(goqu.Record{"doctor_id": doctorID, "appointment_day": day, "next_token": 1}).
		OnConflict(goqu.DoUpdate(
			"doctor_id, appointment_day",
			goqu.Record{"next_token": goqu.L("booking_tokens.next_token + 1")},
		)).
		Returning("next_token").
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build token query", err)
	}

	var token int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&token); err != nil {
		return 0, wrapTxError("failed to assign token", err)
	}
	return token, nil
}

// GetOwned retrieves a booking scoped to its owning patient
func (a *BookingAdapter) GetOwned(ctx context.Context, id, patientID string) (*entities.Booking, error) {
	query, args, err := a.db.From("bookings").
		Select(bookingColumns()...).
		Where(goqu.Ex{"id": id, "patient_id": patientID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	booking := &entities.Booking{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&booking.DoctorID,
		&booking.HospitalID,
		&booking.PatientID,
		&booking.AppointmentAt,
		&booking.SlotTime,
		&booking.TokenNumber,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking %s not found for patient", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}
	return booking, nil
}

// Cancel marks a BOOKED booking owned by patientID as CANCELLED
func (a *BookingAdapter) Cancel(ctx context.Context, id, patientID string) (int64, error) {
	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{
			"status":     entities.BookingStatusCancelled,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{
			"id":         id,
			"patient_id": patientID,
			"status":     entities.BookingStatusBooked,
		}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build cancel query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to cancel booking", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return rowsAffected, nil
}

// ListUpcomingByPatient retrieves the patient's upcoming bookings
func (a *BookingAdapter) ListUpcomingByPatient(ctx context.Context, patientID string, startOfToday time.Time) ([]*entities.BookingListItem, error) {
	ds := a.listDataset().
		Where(
			goqu.I("b.patient_id").Eq(patientID),
			goqu.Or(
				goqu.I("b.status").Neq(entities.BookingStatusCompleted),
				goqu.And(
					goqu.I("b.status").Eq(entities.BookingStatusCompleted),
					goqu.I("b.appointment_at").Gte(startOfToday),
				),
			),
		).
		Order(goqu.I("b.appointment_at").Asc())

	return a.queryListItems(ctx, ds, false)
}

// ListHistoryByPatient retrieves past or no-longer-booked bookings
func (a *BookingAdapter) ListHistoryByPatient(ctx context.Context, patientID string, startOfToday time.Time) ([]*entities.BookingListItem, error) {
	ds := a.listDataset().
		Where(
			goqu.I("b.patient_id").Eq(patientID),
			goqu.Or(
				goqu.I("b.appointment_at").Lt(startOfToday),
				goqu.I("b.status").Neq(entities.BookingStatusBooked),
			),
		).
		Order(goqu.I("b.appointment_at").Desc())

	return a.queryListItems(ctx, ds, false)
}

// ListByHospital retrieves a hospital's bookings for display
func (a *BookingAdapter) ListByHospital(ctx context.Context, hospitalID string, startOfToday time.Time) ([]*entities.BookingListItem, error) {
	ds := a.listDataset().
		Join(goqu.T("users").As("p"), goqu.On(goqu.I("b.patient_id").Eq(goqu.I("p.id")))).
		SelectAppend(goqu.I("p.name").As("patient_name"), goqu.I("p.email").As("patient_email")).
		Where(
			goqu.I("b.hospital_id").Eq(hospitalID),
			goqu.Or(
				goqu.I("b.status").Neq(entities.BookingStatusCompleted),
				goqu.And(
					goqu.I("b.status").Eq(entities.BookingStatusCompleted),
					goqu.I("b.appointment_at").Gte(startOfToday),
				),
			),
		).
		Order(goqu.I("b.appointment_at").Asc())

	return a.queryListItems(ctx, ds, true)
}

// ListPatientsByHospital assembles the admin patient roster: one row
// per patient, carrying their most recent non-cancelled booking.
func (a *BookingAdapter) ListPatientsByHospital(ctx context.Context, hospitalID string) ([]*entities.HospitalPatient, error) {
	query, args, err := a.db.From(goqu.T("bookings").As("b")).
		Join(goqu.T("users").As("p"), goqu.On(goqu.I("b.patient_id").Eq(goqu.I("p.id")))).
		Distinct(goqu.I("b.patient_id")).
		Select(
			goqu.I("b.patient_id"),
			goqu.I("p.name"),
			goqu.I("p.email"),
			goqu.I("b.appointment_at").As("last_visit"),
			goqu.I("b.token_number"),
		).
		Where(
			goqu.I("b.hospital_id").Eq(hospitalID),
			goqu.I("b.status").Neq(entities.BookingStatusCancelled),
		).
		// DISTINCT ON keeps the first row per patient, so the newest
		// booking has to sort first within each patient.
		Order(goqu.I("b.patient_id").Asc(), goqu.I("b.appointment_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build patient roster query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	var patients []*entities.HospitalPatient
	for rows.Next() {
		patient := &entities.HospitalPatient{}
		if err := rows.Scan(&patient.PatientID, &patient.Name, &patient.Email, &patient.LastVisit, &patient.TokenNumber); err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate patients", err)
	}

	return patients, nil
}

// CountByHospitalBetween counts a hospital's bookings in a time range
func (a *BookingAdapter) CountByHospitalBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error) {
	query, args, err := a.db.From("bookings").
		Select(goqu.COUNT("*")).
		Where(
			goqu.Ex{"hospital_id": hospitalID},
			goqu.C("appointment_at").Gte(from),
			goqu.C("appointment_at").Lt(to),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count bookings", err)
	}
	return count, nil
}

// CountDistinctPatientsBetween counts unique patients with bookings in a range
func (a *BookingAdapter) CountDistinctPatientsBetween(ctx context.Context, hospitalID string, from, to time.Time) (int, error) {
	query, args, err := a.db.From("bookings").
		Select(goqu.COUNT(goqu.DISTINCT("patient_id"))).
		Where(
			goqu.Ex{"hospital_id": hospitalID},
			goqu.C("appointment_at").Gte(from),
			goqu.C("appointment_at").Lt(to),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count patients", err)
	}
	return count, nil
}

// CompleteElapsed transitions elapsed BOOKED bookings to COMPLETED
func (a *BookingAdapter) CompleteElapsed(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{
			"status":     entities.BookingStatusCompleted,
			"updated_at": time.Now(),
		}).
		Where(
			goqu.C("status").Eq(entities.BookingStatusBooked),
			goqu.C("appointment_at").Lt(cutoff),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build completion query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to complete bookings", err)
	}

	return result.RowsAffected()
}

func bookingColumns() []interface{} {
	return []interface{}{
		"id", "doctor_id", "hospital_id", "patient_id", "appointment_at",
		"slot_time", "token_number", "status", "created_at", "updated_at",
	}
}

func (a *BookingAdapter) listDataset() *goqu.SelectDataset {
	return a.db.From(goqu.T("bookings").As("b")).
		Join(goqu.T("doctors").As("d"), goqu.On(goqu.I("b.doctor_id").Eq(goqu.I("d.id")))).
		Join(goqu.T("hospitals").As("h"), goqu.On(goqu.I("b.hospital_id").Eq(goqu.I("h.id")))).
		Select(
			goqu.I("b.id"), goqu.I("b.doctor_id"), goqu.I("b.hospital_id"),
			goqu.I("b.patient_id"), goqu.I("b.appointment_at"), goqu.I("b.slot_time"),
			goqu.I("b.token_number"), goqu.I("b.status"), goqu.I("b.created_at"),
			goqu.I("b.updated_at"),
			goqu.I("d.name").As("doctor_name"),
			goqu.I("d.speciality").As("doctor_speciality"),
			goqu.I("h.name").As("hospital_name"),
		)
}

func (a *BookingAdapter) queryListItems(ctx context.Context, ds *goqu.SelectDataset, withPatient bool) ([]*entities.BookingListItem, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}
	defer rows.Close()

	var items []*entities.BookingListItem
	for rows.Next() {
		item := &entities.BookingListItem{}
		dest := []interface{}{
			&item.ID, &item.DoctorID, &item.HospitalID, &item.PatientID,
			&item.AppointmentAt, &item.SlotTime, &item.TokenNumber,
			&item.Status, &item.CreatedAt, &item.UpdatedAt,
			&item.DoctorName, &item.DoctorSpeciality, &item.HospitalName,
		}
		if withPatient {
			dest = append(dest, &item.PatientName, &item.PatientEmail)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate bookings", err)
	}

	return items, nil
}

// wrapTxError keeps serialization aborts distinguishable from plain
// query failures so Book can re-run the transaction.
func wrapTxError(message string, err error) error {
	if isSerializationError(err) {
		return &apperrors.AppError{
			Type:    apperrors.ErrorTypeInternal,
			Code:    apperrors.CodeTxConflict,
			Message: message,
			Err:     err,
		}
	}
	return apperrors.NewInternalError(message, err)
}

func isSerializationError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pgSerializationFailure || string(pqErr.Code) == pgDeadlockDetected
}

func isConstraintViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pgUniqueViolation && pqErr.Constraint == constraint
}

func isRetryableTxError(err error) bool {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return false
	}
	if appErr.Code == apperrors.CodeTxConflict {
		return true
	}
	return isSerializationError(appErr.Err)
}
