package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	appointmenterrors "medcal/internal/appointments/errors"
	"medcal/internal/appointments/validator"
	"medcal/pkg/config"
	mongotx "medcal/pkg/db/mongo"
	apperrors "medcal/pkg/errors"
	"medcal/pkg/logger"
	"medcal/pkg/model"
	"medcal/pkg/notify"
)

type mockAppointmentRepository struct {
	createFunc          func(ctx context.Context, appt *model.Appointment) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Appointment, error)
	findByFilterFunc    func(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, error)
	countByFilterFunc   func(ctx context.Context, filter model.AppointmentFilter) (int64, error)
	findBookedSlotsFunc func(ctx context.Context, professionalID, startDate, endDate string) ([]model.BookedSlot, error)
	updateStatusIfFunc  func(ctx context.Context, id string, expected []model.AppointmentStatus, update model.StatusUpdate) (bool, error)
	countsByStatusFunc  func(ctx context.Context, filter model.AppointmentFilter) (map[model.AppointmentStatus]int64, error)
}

func (m *mockAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, appt)
	}
	appt.ID = "507f1f77bcf86cd799439011"
	return nil
}

func (m *mockAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, appointmenterrors.ErrNotFound
}

func (m *mockAppointmentRepository) FindByFilter(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, error) {
	if m.findByFilterFunc != nil {
		return m.findByFilterFunc(ctx, filter, limit, offset)
	}
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentRepository) CountByFilter(ctx context.Context, filter model.AppointmentFilter) (int64, error) {
	if m.countByFilterFunc != nil {
		return m.countByFilterFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockAppointmentRepository) FindBookedSlots(ctx context.Context, professionalID, startDate, endDate string) ([]model.BookedSlot, error) {
	if m.findBookedSlotsFunc != nil {
		return m.findBookedSlotsFunc(ctx, professionalID, startDate, endDate)
	}
	return nil, nil
}

func (m *mockAppointmentRepository) UpdateStatusIf(ctx context.Context, id string, expected []model.AppointmentStatus, update model.StatusUpdate) (bool, error) {
	if m.updateStatusIfFunc != nil {
		return m.updateStatusIfFunc(ctx, id, expected, update)
	}
	return true, nil
}

func (m *mockAppointmentRepository) CountsByStatus(ctx context.Context, filter model.AppointmentFilter) (map[model.AppointmentStatus]int64, error) {
	if m.countsByStatusFunc != nil {
		return m.countsByStatusFunc(ctx, filter)
	}
	return map[model.AppointmentStatus]int64{}, nil
}

func (m *mockAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockSlotLockRepository struct {
	mu    sync.Mutex
	held  map[string]bool
	fail  error
	freed []string
}

func (m *mockSlotLockRepository) Create(ctx context.Context, lock *model.SlotLock) (*model.SlotLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	if m.held == nil {
		m.held = map[string]bool{}
	}
	if m.held[lock.ID] {
		return nil, mongo.WriteException{
			WriteErrors: []mongo.WriteError{{Code: 11000}},
		}
	}
	m.held[lock.ID] = true
	return lock, nil
}

func (m *mockSlotLockRepository) Delete(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, lockID)
	m.freed = append(m.freed, lockID)
	return nil
}

type mockAvailabilityChecker struct {
	free bool
	err  error
}

func (m *mockAvailabilityChecker) IsSlotAvailable(ctx context.Context, professionalID, date, timeStr string) (bool, error) {
	return m.free, m.err
}

func testConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})

	return &config.Config{
		Log:                           log,
		ReadTimeout:                   5 * time.Second,
		WriteTimeout:                  5 * time.Second,
		DefaultAppointmentDurationMin: 30,
		SlotLockTTL:                   10 * time.Second,
	}
}

func newTestService(repo *mockAppointmentRepository, locks *mockSlotLockRepository, checker *mockAvailabilityChecker, cfg *config.Config) AppointmentService {
	return NewAppointmentService(
		repo, locks, checker,
		validator.NewAppointmentValidator(cfg.Log),
		notify.NewNoopNotifier(),
		cfg,
	)
}

func validAppointment() *model.Appointment {
	return &model.Appointment{
		PatientID:       "patient-1",
		ProfessionalID:  "prof-1",
		AppointmentDate: "2025-03-03",
		AppointmentTime: "10:00",
		Reason:          "persistent headaches",
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	cfg := testConfig()
	repo := &mockAppointmentRepository{}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{free: true}, cfg)

	appt := validAppointment()
	if err := svc.Create(context.Background(), appt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if appt.Status != model.StatusRequested {
		t.Errorf("expected status requested, got %s", appt.Status)
	}
	if appt.DurationMin != 30 {
		t.Errorf("expected default duration 30, got %d", appt.DurationMin)
	}
	if appt.UrgencyLevel != model.UrgencyRoutine {
		t.Errorf("expected default urgency routine, got %s", appt.UrgencyLevel)
	}
	if appt.Type != model.TypeDirect {
		t.Errorf("expected direct type without organization, got %s", appt.Type)
	}
}

func TestCreateOrganizationBookingType(t *testing.T) {
	cfg := testConfig()
	svc := newTestService(&mockAppointmentRepository{}, &mockSlotLockRepository{}, &mockAvailabilityChecker{free: true}, cfg)

	appt := validAppointment()
	appt.OrganizationID = "org-1"
	if err := svc.Create(context.Background(), appt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Type != model.TypeThroughOrganization {
		t.Errorf("expected through_organization type, got %s", appt.Type)
	}
}

func TestCreateValidationFailures(t *testing.T) {
	cfg := testConfig()
	svc := newTestService(&mockAppointmentRepository{}, &mockSlotLockRepository{}, &mockAvailabilityChecker{free: true}, cfg)

	tests := []struct {
		name   string
		mutate func(appt *model.Appointment)
	}{
		{"empty reason", func(a *model.Appointment) { a.Reason = "  " }},
		{"missing patient", func(a *model.Appointment) { a.PatientID = "" }},
		{"malformed date", func(a *model.Appointment) { a.AppointmentDate = "03/03/2025" }},
		{"malformed time", func(a *model.Appointment) { a.AppointmentTime = "10am" }},
		{"bad urgency", func(a *model.Appointment) { a.UrgencyLevel = "asap" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := validAppointment()
			tt.mutate(appt)
			err := svc.Create(context.Background(), appt)
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.Code != apperrors.CodeValidation {
				t.Errorf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestCreateUnavailableSlotConflicts(t *testing.T) {
	cfg := testConfig()
	svc := newTestService(&mockAppointmentRepository{}, &mockSlotLockRepository{}, &mockAvailabilityChecker{free: false}, cfg)

	err := svc.Create(context.Background(), validAppointment())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT, got %v", err)
	}
}

func TestCreateInTransactionRecheckConflicts(t *testing.T) {
	cfg := testConfig()
	repo := &mockAppointmentRepository{
		findBookedSlotsFunc: func(ctx context.Context, professionalID, startDate, endDate string) ([]model.BookedSlot, error) {
			return []model.BookedSlot{{Date: "2025-03-03", Time: "10:00"}}, nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{free: true}, cfg)

	err := svc.Create(context.Background(), validAppointment())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT from in-transaction re-check, got %v", err)
	}
}

func TestCreateDuplicateKeyConflicts(t *testing.T) {
	cfg := testConfig()
	repo := &mockAppointmentRepository{
		createFunc: func(ctx context.Context, appt *model.Appointment) error {
			return mongo.WriteException{
				WriteErrors: []mongo.WriteError{{Code: 11000}},
			}
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{free: true}, cfg)

	err := svc.Create(context.Background(), validAppointment())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected CONFLICT from unique index, got %v", err)
	}
}

// Two concurrent bookings of the same free slot: exactly one wins the
// advisory lock, the other gets a conflict.
func TestCreateConcurrentSameSlot(t *testing.T) {
	cfg := testConfig()

	locks := &mockSlotLockRepository{}
	created := 0
	var mu sync.Mutex
	gate := make(chan struct{})

	repo := &mockAppointmentRepository{
		createFunc: func(ctx context.Context, appt *model.Appointment) error {
			// Hold the lock long enough for the second caller to collide.
			<-gate
			mu.Lock()
			created++
			mu.Unlock()
			appt.ID = "507f1f77bcf86cd799439011"
			return nil
		},
	}
	svc := newTestService(repo, locks, &mockAvailabilityChecker{free: true}, cfg)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Create(context.Background(), validAppointment())
		}()
	}

	// Let both goroutines reach the lock before either insert completes.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		if appErr := apperrors.AsAppError(err); appErr != nil && appErr.Code == apperrors.CodeConflict {
			conflicts++
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Errorf("expected exactly one success and one conflict, got %d successes, %d conflicts", successes, conflicts)
	}
	mu.Lock()
	defer mu.Unlock()
	if created != 1 {
		t.Errorf("expected exactly one insert, got %d", created)
	}
}

func TestCreateReleasesLock(t *testing.T) {
	cfg := testConfig()
	locks := &mockSlotLockRepository{}
	svc := newTestService(&mockAppointmentRepository{}, locks, &mockAvailabilityChecker{free: true}, cfg)

	if err := svc.Create(context.Background(), validAppointment()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locks.freed) != 1 {
		t.Errorf("expected lock to be released once, released %d times", len(locks.freed))
	}
}

func requestedAppointment() *model.Appointment {
	return &model.Appointment{
		ID:              "507f1f77bcf86cd799439011",
		PatientID:       "patient-1",
		ProfessionalID:  "prof-1",
		OrganizationID:  "org-1",
		AppointmentDate: "2025-03-03",
		AppointmentTime: "10:00",
		DurationMin:     30,
		Status:          model.StatusRequested,
		UrgencyLevel:    model.UrgencyRoutine,
		Reason:          "persistent headaches",
		Type:            model.TypeThroughOrganization,
	}
}

func TestReviewRejectWithoutReason(t *testing.T) {
	cfg := testConfig()
	svc := newTestService(&mockAppointmentRepository{}, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	_, err := svc.Review(context.Background(), "507f1f77bcf86cd799439011", &model.ReviewRequest{
		Action:  model.ActionReject,
		ActorID: "prof-1",
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestReviewRescheduleWithoutSuggestions(t *testing.T) {
	cfg := testConfig()
	svc := newTestService(&mockAppointmentRepository{}, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	_, err := svc.Review(context.Background(), "507f1f77bcf86cd799439011", &model.ReviewRequest{
		Action:  model.ActionReschedule,
		ActorID: "prof-1",
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestReviewByStranger(t *testing.T) {
	cfg := testConfig()
	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return requestedAppointment(), nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	_, err := svc.Review(context.Background(), "507f1f77bcf86cd799439011", &model.ReviewRequest{
		Action:  model.ActionApprove,
		ActorID: "someone-else",
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}
}

func TestReviewApprove(t *testing.T) {
	cfg := testConfig()

	state := requestedAppointment()
	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			copy := *state
			return &copy, nil
		},
		updateStatusIfFunc: func(ctx context.Context, id string, expected []model.AppointmentStatus, update model.StatusUpdate) (bool, error) {
			for _, e := range expected {
				if state.Status == e {
					state.Status = update.Status
					state.ReviewedAt = update.ReviewedAt
					return true, nil
				}
			}
			return false, nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	appt, err := svc.Review(context.Background(), state.ID, &model.ReviewRequest{
		Action:  model.ActionApprove,
		ActorID: "prof-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != model.StatusApproved {
		t.Errorf("expected approved, got %s", appt.Status)
	}
	if appt.ReviewedAt == nil {
		t.Error("expected reviewed_at to be set")
	}
}

// Two reviewers acting on the same requested appointment: the second
// compare-and-swap misses and surfaces the actual status.
func TestReviewLosesRace(t *testing.T) {
	cfg := testConfig()

	state := requestedAppointment()
	state.Status = model.StatusApproved

	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			copy := *state
			return &copy, nil
		},
		updateStatusIfFunc: func(ctx context.Context, id string, expected []model.AppointmentStatus, update model.StatusUpdate) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	_, err := svc.Review(context.Background(), state.ID, &model.ReviewRequest{
		Action:          model.ActionReject,
		ActorID:         "prof-1",
		RejectionReason: "double booked",
	})
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidState {
		t.Errorf("expected INVALID_STATE, got %v", err)
	}
}

func TestCancelByPatient(t *testing.T) {
	cfg := testConfig()

	state := requestedAppointment()
	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			copy := *state
			return &copy, nil
		},
		updateStatusIfFunc: func(ctx context.Context, id string, expected []model.AppointmentStatus, update model.StatusUpdate) (bool, error) {
			state.Status = update.Status
			return true, nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	appt, err := svc.Cancel(context.Background(), state.ID, "patient-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != model.StatusCancelled {
		t.Errorf("expected cancelled, got %s", appt.Status)
	}
}

func TestCancelByStranger(t *testing.T) {
	cfg := testConfig()
	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			return requestedAppointment(), nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	_, err := svc.Cancel(context.Background(), "507f1f77bcf86cd799439011", "someone-else")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected FORBIDDEN, got %v", err)
	}
}

func TestCancelTerminalAppointment(t *testing.T) {
	cfg := testConfig()

	state := requestedAppointment()
	state.Status = model.StatusCompleted

	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			copy := *state
			return &copy, nil
		},
		updateStatusIfFunc: func(ctx context.Context, id string, expected []model.AppointmentStatus, update model.StatusUpdate) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	_, err := svc.Cancel(context.Background(), state.ID, "patient-1")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidState {
		t.Errorf("expected INVALID_STATE, got %v", err)
	}
}

func TestCompleteBeforeScheduledTime(t *testing.T) {
	cfg := testConfig()

	state := requestedAppointment()
	state.Status = model.StatusApproved
	state.AppointmentDate = time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")

	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			copy := *state
			return &copy, nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	_, err := svc.Complete(context.Background(), state.ID, "prof-1")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidState {
		t.Errorf("expected INVALID_STATE for future appointment, got %v", err)
	}
}

func TestCompleteElapsedAppointment(t *testing.T) {
	cfg := testConfig()

	state := requestedAppointment()
	state.Status = model.StatusApproved
	state.AppointmentDate = "2024-01-08"

	repo := &mockAppointmentRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Appointment, error) {
			copy := *state
			return &copy, nil
		},
		updateStatusIfFunc: func(ctx context.Context, id string, expected []model.AppointmentStatus, update model.StatusUpdate) (bool, error) {
			if len(expected) != 1 || expected[0] != model.StatusApproved {
				t.Errorf("expected CAS guard on approved only, got %v", expected)
			}
			state.Status = update.Status
			return true, nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	appt, err := svc.Complete(context.Background(), state.ID, "prof-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.Status != model.StatusCompleted {
		t.Errorf("expected completed, got %s", appt.Status)
	}
}

func TestListRequiresActorFilter(t *testing.T) {
	cfg := testConfig()
	svc := newTestService(&mockAppointmentRepository{}, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	_, _, err := svc.List(context.Background(), model.AppointmentFilter{}, 10, 0)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestListFansOutCountAndFind(t *testing.T) {
	cfg := testConfig()
	repo := &mockAppointmentRepository{
		countByFilterFunc: func(ctx context.Context, filter model.AppointmentFilter) (int64, error) {
			time.Sleep(10 * time.Millisecond)
			return 3, nil
		},
		findByFilterFunc: func(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, error) {
			time.Sleep(10 * time.Millisecond)
			return []*model.Appointment{requestedAppointment()}, nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	appointments, count, err := svc.List(context.Background(), model.AppointmentFilter{ProfessionalID: "prof-1"}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	if len(appointments) != 1 {
		t.Errorf("expected 1 appointment, got %d", len(appointments))
	}
}

func TestStatsTotalEqualsSum(t *testing.T) {
	cfg := testConfig()
	repo := &mockAppointmentRepository{
		countsByStatusFunc: func(ctx context.Context, filter model.AppointmentFilter) (map[model.AppointmentStatus]int64, error) {
			return map[model.AppointmentStatus]int64{
				model.StatusRequested:   2,
				model.StatusApproved:    5,
				model.StatusCompleted:   7,
				model.StatusRejected:    1,
				model.StatusCancelled:   3,
				model.StatusRescheduled: 1,
			}, nil
		},
	}
	svc := newTestService(repo, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	stats, err := svc.Stats(context.Background(), ActorProfessional, "prof-1", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := stats.Requested + stats.Approved + stats.Completed +
		stats.Rejected + stats.Cancelled + stats.Rescheduled
	if stats.Total != sum {
		t.Errorf("total %d does not equal sum %d", stats.Total, sum)
	}
	if stats.Total != 19 {
		t.Errorf("expected total 19, got %d", stats.Total)
	}
}

func TestStatsRejectsUnknownActorType(t *testing.T) {
	cfg := testConfig()
	svc := newTestService(&mockAppointmentRepository{}, &mockSlotLockRepository{}, &mockAvailabilityChecker{}, cfg)

	_, err := svc.Stats(context.Background(), "organization", "org-1", "", "")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}
