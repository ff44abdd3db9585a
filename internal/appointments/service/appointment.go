package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	appointmenterrors "medcal/internal/appointments/errors"
	"medcal/internal/appointments/repository"
	"medcal/internal/appointments/validator"
	"medcal/pkg/config"
	apperrors "medcal/pkg/errors"
	"medcal/pkg/model"
	"medcal/pkg/notify"
	"medcal/pkg/sanitizer"
)

const (
	ActorPatient      = "patient"
	ActorProfessional = "professional"
)

// AvailabilityChecker is the authoritative single-slot availability check,
// implemented by the availability service. The advisory read path and this
// write-path re-check run the same filtering.
type AvailabilityChecker interface {
	IsSlotAvailable(ctx context.Context, professionalID, date, timeStr string) (bool, error)
}

type AppointmentService interface {
	Create(ctx context.Context, appt *model.Appointment) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	List(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, int64, error)
	Review(ctx context.Context, id string, req *model.ReviewRequest) (*model.Appointment, error)
	Cancel(ctx context.Context, id, actorID string) (*model.Appointment, error)
	Complete(ctx context.Context, id, actorID string) (*model.Appointment, error)
	Stats(ctx context.Context, actorType, actorID, startDate, endDate string) (*model.AppointmentStats, error)
}

type appointmentService struct {
	repo         repository.AppointmentRepository
	lockRepo     repository.SlotLockRepository
	availability AvailabilityChecker
	validator    *validator.AppointmentValidator
	notifier     notify.Notifier
	cfg          *config.Config
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	lockRepo repository.SlotLockRepository,
	availability AvailabilityChecker,
	validator *validator.AppointmentValidator,
	notifier notify.Notifier,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:         repo,
		lockRepo:     lockRepo,
		availability: availability,
		validator:    validator,
		notifier:     notifier,
		cfg:          cfg,
	}
}

func (s *appointmentService) Create(ctx context.Context, appt *model.Appointment) error {
	s.sanitize(appt)
	s.applyDefaults(appt)

	if err := s.validator.Validate(appt); err != nil {
		s.cfg.Log.Warn("Appointment validation failed",
			"professional_id", appt.ProfessionalID,
			"patient_id", appt.PatientID,
			"error", err,
		)
		return apperrors.Validation("Appointment validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	// Advisory pre-check: tells most losers apart early with a precise error.
	free, err := s.availability.IsSlotAvailable(ctx, appt.ProfessionalID, appt.AppointmentDate, appt.AppointmentTime)
	if err != nil {
		s.cfg.Log.Error("Failed to check slot availability",
			"professional_id", appt.ProfessionalID,
			"date", appt.AppointmentDate,
			"time", appt.AppointmentTime,
			"error", err,
		)
		return apperrors.Internal("Failed to verify slot availability", err)
	}
	if !free {
		return apperrors.Conflict("The requested time slot is not available. Please refresh availability and pick another slot.")
	}

	lockID, err := s.acquireSlotLock(ctx, appt.ProfessionalID, appt.AppointmentDate, appt.AppointmentTime)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		booked, err := s.repo.FindBookedSlots(sessCtx, appt.ProfessionalID, appt.AppointmentDate, appt.AppointmentDate)
		if err != nil {
			return apperrors.Internal("Failed to re-check booked slots", err)
		}
		for _, b := range booked {
			if b.Date == appt.AppointmentDate && b.Time == appt.AppointmentTime {
				return apperrors.Conflict("The requested time slot was just booked. Please refresh availability and pick another slot.")
			}
		}

		if err := s.repo.Create(sessCtx, appt); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return apperrors.Conflict("The requested time slot was just booked. Please refresh availability and pick another slot.")
			}
			return apperrors.Internal("Failed to create appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create appointment",
			"professional_id", appt.ProfessionalID,
			"patient_id", appt.PatientID,
			"date", appt.AppointmentDate,
			"time", appt.AppointmentTime,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Appointment created successfully",
		"id", appt.ID,
		"professional_id", appt.ProfessionalID,
		"patient_id", appt.PatientID,
		"date", appt.AppointmentDate,
		"time", appt.AppointmentTime,
		"urgency", appt.UrgencyLevel,
	)

	s.notifier.Notify(ctx, notify.EventAppointmentRequested, s.eventFor(appt))
	return nil
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmenterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmenterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		s.cfg.Log.Error("Failed to get appointment by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}

	return appt, nil
}

func (s *appointmentService) List(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if filter.ProfessionalID == "" && filter.PatientID == "" && filter.OrganizationID == "" {
		return nil, 0, apperrors.InvalidInput("At least one of professional_id, patient_id, or organization_id must be provided")
	}

	sharedCtx, cancel := context.WithTimeout(ctx, s.cfg.ReadTimeout)
	defer cancel()

	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByFilter(sharedCtx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count appointments", "error", errCount)
			errCount = apperrors.Internal("Failed to count appointments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		appointments, errFind = s.repo.FindByFilter(sharedCtx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list appointments",
				"limit", limit,
				"offset", offset,
				"error", errFind,
			)
			errFind = apperrors.Internal("Failed to retrieve appointments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return appointments, count, nil
}

// Review applies an approve, reject, or reschedule decision. Only requested
// appointments accept a review; the transition is a compare-and-swap so two
// concurrent reviewers cannot both win.
func (s *appointmentService) Review(ctx context.Context, id string, req *model.ReviewRequest) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	s.sanitizeReview(req)
	if err := s.validator.ValidateReview(req); err != nil {
		s.cfg.Log.Warn("Review validation failed", "id", id, "action", req.Action, "error", err)
		return nil, apperrors.Validation("Review validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.isReviewer(appt, req.ActorID) {
		return nil, apperrors.Forbidden("Only the assigned professional or the booking organization may review this appointment")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	update := model.StatusUpdate{
		ProfNotes:  req.ProfNotes,
		ReviewedAt: &now,
	}

	var eventType string
	switch req.Action {
	case model.ActionApprove:
		update.Status = model.StatusApproved
		eventType = notify.EventAppointmentApproved
	case model.ActionReject:
		update.Status = model.StatusRejected
		update.RejectionReason = req.RejectionReason
		eventType = notify.EventAppointmentRejected
	case model.ActionReschedule:
		update.Status = model.StatusRescheduled
		update.SuggestedTimes = req.SuggestedTimes
		eventType = notify.EventAppointmentRescheduled
	}

	matched, err := s.repo.UpdateStatusIf(ctx, id, []model.AppointmentStatus{model.StatusRequested}, update)
	if err != nil {
		s.cfg.Log.Error("Failed to apply review transition", "id", id, "action", req.Action, "error", err)
		return nil, apperrors.Internal("Failed to update appointment", err)
	}
	if !matched {
		// Lost the race or the appointment was never requested; refetch to
		// report its actual status.
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"Appointment cannot be reviewed: current status is %q, expected %q",
			current.Status, model.StatusRequested,
		))
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment reviewed",
		"id", id,
		"action", req.Action,
		"status", updated.Status,
		"actor_id", req.ActorID,
	)

	s.notifier.Notify(ctx, eventType, s.eventFor(updated))
	return updated, nil
}

// Cancel moves a non-terminal appointment to cancelled. Allowed to the
// patient, the assigned professional, or the booking organization.
func (s *appointmentService) Cancel(ctx context.Context, id, actorID string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	actorID = sanitizer.NormalizeID(actorID)
	if actorID == "" {
		return nil, apperrors.InvalidInput("Actor ID cannot be empty")
	}

	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actorID != appt.PatientID && !s.isReviewer(appt, actorID) {
		return nil, apperrors.Forbidden("Only the patient, the assigned professional, or the booking organization may cancel this appointment")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	matched, err := s.repo.UpdateStatusIf(ctx, id, model.CancellableStatuses, model.StatusUpdate{
		Status:     model.StatusCancelled,
		ReviewedAt: &now,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to cancel appointment", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to cancel appointment", err)
	}
	if !matched {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"Appointment cannot be cancelled from terminal status %q", current.Status,
		))
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment cancelled", "id", id, "actor_id", actorID)

	s.notifier.Notify(ctx, notify.EventAppointmentCancelled, s.eventFor(updated))
	return updated, nil
}

// Complete marks an approved appointment whose scheduled time has elapsed.
func (s *appointmentService) Complete(ctx context.Context, id, actorID string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}
	actorID = sanitizer.NormalizeID(actorID)
	if actorID == "" {
		return nil, apperrors.InvalidInput("Actor ID cannot be empty")
	}

	appt, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.isReviewer(appt, actorID) {
		return nil, apperrors.Forbidden("Only the assigned professional or the booking organization may complete this appointment")
	}

	scheduled, err := time.Parse("2006-01-02 15:04", appt.AppointmentDate+" "+appt.AppointmentTime)
	if err != nil {
		return nil, apperrors.Internal("Appointment carries a malformed date or time", err)
	}
	if time.Now().UTC().Before(scheduled) {
		return nil, apperrors.InvalidState("Appointment cannot be completed before its scheduled time has elapsed")
	}

	matched, err := s.repo.UpdateStatusIf(ctx, id, []model.AppointmentStatus{model.StatusApproved}, model.StatusUpdate{
		Status: model.StatusCompleted,
	})
	if err != nil {
		s.cfg.Log.Error("Failed to complete appointment", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to complete appointment", err)
	}
	if !matched {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.InvalidState(fmt.Sprintf(
			"Appointment cannot be completed: current status is %q, expected %q",
			current.Status, model.StatusApproved,
		))
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Appointment completed", "id", id, "actor_id", actorID)

	s.notifier.Notify(ctx, notify.EventAppointmentCompleted, s.eventFor(updated))
	return updated, nil
}

// Stats rolls up appointment counts by status for one actor. Total always
// equals the sum of the individual status counts.
func (s *appointmentService) Stats(ctx context.Context, actorType, actorID, startDate, endDate string) (*model.AppointmentStats, error) {
	actorID = sanitizer.NormalizeID(actorID)
	if actorID == "" {
		return nil, apperrors.InvalidInput("Actor ID cannot be empty")
	}

	filter := model.AppointmentFilter{
		StartDate: startDate,
		EndDate:   endDate,
	}
	switch actorType {
	case ActorPatient:
		filter.PatientID = actorID
	case ActorProfessional:
		filter.ProfessionalID = actorID
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"actor_type must be %q or %q", ActorPatient, ActorProfessional,
		))
	}

	counts, err := s.repo.CountsByStatus(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate appointment stats",
			"actor_type", actorType,
			"actor_id", actorID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to aggregate appointment statistics", err)
	}

	stats := &model.AppointmentStats{
		Requested:   counts[model.StatusRequested],
		Approved:    counts[model.StatusApproved],
		Completed:   counts[model.StatusCompleted],
		Rejected:    counts[model.StatusRejected],
		Cancelled:   counts[model.StatusCancelled],
		Rescheduled: counts[model.StatusRescheduled],
	}
	stats.Total = stats.Requested + stats.Approved + stats.Completed +
		stats.Rejected + stats.Cancelled + stats.Rescheduled

	return stats, nil
}

// isReviewer reports whether the actor may act on the professional side of
// the appointment.
func (s *appointmentService) isReviewer(appt *model.Appointment, actorID string) bool {
	if actorID == "" {
		return false
	}
	if actorID == appt.ProfessionalID {
		return true
	}
	return appt.OrganizationID != "" && actorID == appt.OrganizationID
}

func (s *appointmentService) sanitize(appt *model.Appointment) {
	appt.PatientID = sanitizer.NormalizeID(appt.PatientID)
	appt.ProfessionalID = sanitizer.NormalizeID(appt.ProfessionalID)
	appt.OrganizationID = sanitizer.NormalizeID(appt.OrganizationID)
	appt.Reason = sanitizer.NormalizeReason(appt.Reason)
	appt.PatientNotes = sanitizer.NormalizeNotes(appt.PatientNotes)
	appt.Department = sanitizer.NormalizeDepartment(appt.Department)
}

func (s *appointmentService) sanitizeReview(req *model.ReviewRequest) {
	req.ActorID = sanitizer.NormalizeID(req.ActorID)
	req.ProfNotes = sanitizer.NormalizeNotes(req.ProfNotes)
	req.RejectionReason = sanitizer.NormalizeNotes(req.RejectionReason)
}

func (s *appointmentService) applyDefaults(appt *model.Appointment) {
	appt.Status = model.StatusRequested
	if appt.DurationMin == 0 {
		appt.DurationMin = s.cfg.DefaultAppointmentDurationMin
	}
	if appt.UrgencyLevel == "" {
		appt.UrgencyLevel = model.UrgencyRoutine
	}
	if appt.Type == "" {
		if appt.OrganizationID != "" {
			appt.Type = model.TypeThroughOrganization
		} else {
			appt.Type = model.TypeDirect
		}
	}
}

// acquireSlotLock creates an advisory lock to serialize concurrent bookings
// of the same slot. Returns the lock ID, or a conflict error when another
// request holds it.
func (s *appointmentService) acquireSlotLock(ctx context.Context, professionalID, date, timeStr string) (string, error) {
	lockID := fmt.Sprintf("slot_lock_%s_%s_%s", professionalID, date, timeStr)

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *appointmentService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func (s *appointmentService) eventFor(appt *model.Appointment) notify.Event {
	return notify.Event{
		AppointmentID:   appt.ID,
		PatientID:       appt.PatientID,
		ProfessionalID:  appt.ProfessionalID,
		OrganizationID:  appt.OrganizationID,
		AppointmentDate: appt.AppointmentDate,
		AppointmentTime: appt.AppointmentTime,
		Status:          appt.Status,
		RejectionReason: appt.RejectionReason,
		SuggestedTimes:  appt.SuggestedTimes,
	}
}
