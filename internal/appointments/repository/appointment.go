package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appointmenterrors "medcal/internal/appointments/errors"
	"medcal/pkg/config"
	mongotx "medcal/pkg/db/mongo"
	"medcal/pkg/model"
)

const (
	CollectionName = "Appointments"
)

type mongoAppointmentRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	FindByFilter(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, error)
	CountByFilter(ctx context.Context, filter model.AppointmentFilter) (int64, error)
	FindBookedSlots(ctx context.Context, professionalID, startDate, endDate string) ([]model.BookedSlot, error)
	UpdateStatusIf(ctx context.Context, id string, expected []model.AppointmentStatus, update model.StatusUpdate) (bool, error)
	CountsByStatus(ctx context.Context, filter model.AppointmentFilter) (map[model.AppointmentStatus]int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel function, as wrapping a SessionContext would
// break transaction semantics.
func (r *mongoAppointmentRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining > timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

// Create inserts the appointment. The collection carries a partial unique
// index over (professional_id, appointment_date, appointment_time) scoped to
// slot-holding statuses, so a concurrent duplicate insert surfaces as a
// duplicate key error for the caller to map.
func (r *mongoAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	appt.SubmittedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, appt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		appt.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appointmenterrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}

	var appt model.Appointment
	err = r.collection.FindOne(ctx, filter).Decode(&appt)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", appointmenterrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}

	return &appt, nil
}

func buildFilter(f model.AppointmentFilter) bson.M {
	filter := bson.M{}
	if f.ProfessionalID != "" {
		filter["professional_id"] = f.ProfessionalID
	}
	if f.PatientID != "" {
		filter["patient_id"] = f.PatientID
	}
	if f.OrganizationID != "" {
		filter["organization_id"] = f.OrganizationID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	dateRange := bson.M{}
	if f.StartDate != "" {
		dateRange["$gte"] = f.StartDate
	}
	if f.EndDate != "" {
		dateRange["$lte"] = f.EndDate
	}
	if len(dateRange) > 0 {
		filter["appointment_date"] = dateRange
	}

	return filter
}

func (r *mongoAppointmentRepository) FindByFilter(ctx context.Context, filter model.AppointmentFilter, limit int, offset int64) ([]*model.Appointment, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{
			{Key: "appointment_date", Value: 1},
			{Key: "appointment_time", Value: 1},
		})

	cursor, err := r.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var appointments []*model.Appointment
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

func (r *mongoAppointmentRepository) CountByFilter(ctx context.Context, filter model.AppointmentFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

// FindBookedSlots returns the (date, time) pairs held by slot-holding
// appointments for one professional in the inclusive date range.
func (r *mongoAppointmentRepository) FindBookedSlots(ctx context.Context, professionalID, startDate, endDate string) ([]model.BookedSlot, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"professional_id":  professionalID,
		"appointment_date": bson.M{"$gte": startDate, "$lte": endDate},
		"status":           bson.M{"$in": model.SlotHoldingStatuses},
	}

	opts := options.Find().SetProjection(bson.M{
		"appointment_date": 1,
		"appointment_time": 1,
	})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked slots: %w", err)
	}
	defer cursor.Close(ctx)

	var slots []model.BookedSlot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("failed to decode booked slots: %w", err)
	}
	return slots, nil
}

// UpdateStatusIf applies the status transition only when the current status
// is one of the expected set (optimistic concurrency). Returns false when no
// document matched, which means either the appointment does not exist or a
// concurrent writer already moved it; callers refetch to tell the two apart.
func (r *mongoAppointmentRepository) UpdateStatusIf(ctx context.Context, id string, expected []model.AppointmentStatus, update model.StatusUpdate) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", appointmenterrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": bson.M{"$in": expected},
	}

	set := bson.M{"status": update.Status}
	if update.ProfNotes != "" {
		set["professional_notes"] = update.ProfNotes
	}
	if update.RejectionReason != "" {
		set["rejection_reason"] = update.RejectionReason
	}
	if len(update.SuggestedTimes) > 0 {
		set["suggested_times"] = update.SuggestedTimes
	}
	if update.ReviewedAt != nil {
		set["reviewed_at"] = update.ReviewedAt
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update appointment status: %w", err)
	}

	return result.MatchedCount > 0, nil
}

// CountsByStatus groups appointments matching the filter by status in a
// single aggregation pass.
func (r *mongoAppointmentRepository) CountsByStatus(ctx context.Context, filter model.AppointmentFilter) (map[model.AppointmentStatus]int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(filter)}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate appointment counts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status model.AppointmentStatus `bson:"_id"`
		Count  int64                   `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode appointment counts: %w", err)
	}

	counts := make(map[model.AppointmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
