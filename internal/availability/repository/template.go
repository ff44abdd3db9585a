package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	availabilityerrors "medcal/internal/availability/errors"
	"medcal/pkg/config"
	"medcal/pkg/model"
)

const (
	CollectionName = "Availability_templates"
)

type mongoTemplateRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

type TemplateRepository interface {
	Upsert(ctx context.Context, tmpl *model.AvailabilityTemplate) error
	FindByProfessionalID(ctx context.Context, professionalID string) (*model.AvailabilityTemplate, error)
}

func NewMongoTemplateRepository(cfg *config.Config) TemplateRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTemplateRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// When inside a transaction (SessionContext), returns the original context
// unchanged with a no-op cancel function.
func (r *mongoTemplateRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

// Upsert writes the template keyed by professional_id. A professional has at
// most one template, so a replacing upsert is the natural write.
func (r *mongoTemplateRepository) Upsert(ctx context.Context, tmpl *model.AvailabilityTemplate) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	tmpl.UpdatedAt = now

	filter := bson.M{"professional_id": tmpl.ProfessionalID}
	update := bson.M{
		"$set": bson.M{
			"days":       tmpl.Days,
			"updated_at": tmpl.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"professional_id": tmpl.ProfessionalID,
			"created_at":      now,
		},
	}

	opts := options.Update().SetUpsert(true)
	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert availability template: %w", err)
	}

	if result.UpsertedCount > 0 {
		tmpl.CreatedAt = now
	}
	return nil
}

func (r *mongoTemplateRepository) FindByProfessionalID(ctx context.Context, professionalID string) (*model.AvailabilityTemplate, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"professional_id": professionalID}

	var tmpl model.AvailabilityTemplate
	err := r.collection.FindOne(ctx, filter).Decode(&tmpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", availabilityerrors.ErrNotFound, professionalID)
		}
		return nil, fmt.Errorf("failed to find availability template: %w", err)
	}

	return &tmpl, nil
}
