package service

import (
	"context"
	"errors"

	availabilityerrors "medcal/internal/availability/errors"
	"medcal/internal/availability/repository"
	"medcal/internal/availability/validator"
	"medcal/pkg/config"
	apperrors "medcal/pkg/errors"
	"medcal/pkg/model"
	"medcal/pkg/sanitizer"
)

// BookedSlotSource reports the (date, time) pairs already held by
// slot-holding appointments for a professional. The appointments store
// implements it; keeping it an interface here avoids a package cycle.
type BookedSlotSource interface {
	FindBookedSlots(ctx context.Context, professionalID, startDate, endDate string) ([]model.BookedSlot, error)
}

type AvailabilityService interface {
	GetTemplate(ctx context.Context, professionalID string) (*model.AvailabilityTemplate, error)
	SetTemplate(ctx context.Context, professionalID string, days []model.DayAvailability) (*model.AvailabilityTemplate, error)
	Available(ctx context.Context, professionalID, startDate, endDate string) ([]model.DaySlots, error)
	IsSlotAvailable(ctx context.Context, professionalID, date, timeStr string) (bool, error)
}

type availabilityService struct {
	repo      repository.TemplateRepository
	booked    BookedSlotSource
	validator *validator.TemplateValidator
	cfg       *config.Config
}

func NewAvailabilityService(
	repo repository.TemplateRepository,
	booked BookedSlotSource,
	validator *validator.TemplateValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		repo:      repo,
		booked:    booked,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *availabilityService) GetTemplate(ctx context.Context, professionalID string) (*model.AvailabilityTemplate, error) {
	professionalID = sanitizer.NormalizeID(professionalID)
	if professionalID == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	tmpl, err := s.repo.FindByProfessionalID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability template", professionalID)
		}
		s.cfg.Log.Error("Failed to get availability template",
			"professional_id", professionalID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability template", err)
	}

	return tmpl, nil
}

func (s *availabilityService) SetTemplate(ctx context.Context, professionalID string, days []model.DayAvailability) (*model.AvailabilityTemplate, error) {
	professionalID = sanitizer.NormalizeID(professionalID)
	if professionalID == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	tmpl := &model.AvailabilityTemplate{
		ProfessionalID: professionalID,
		Days:           days,
	}

	if err := s.validator.Validate(tmpl); err != nil {
		s.cfg.Log.Warn("Availability template validation failed",
			"professional_id", professionalID,
			"error", err,
		)
		return nil, apperrors.Validation("Availability template validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Upsert(ctx, tmpl); err != nil {
		s.cfg.Log.Error("Failed to save availability template",
			"professional_id", professionalID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to save availability template", err)
	}

	s.cfg.Log.Info("Availability template saved",
		"professional_id", professionalID,
	)
	return tmpl, nil
}

// Available expands the professional's template over the range and subtracts
// every slot-holding booking. The result is advisory: the appointment write
// path re-checks under its own uniqueness guard.
func (s *availabilityService) Available(ctx context.Context, professionalID, startDate, endDate string) ([]model.DaySlots, error) {
	professionalID = sanitizer.NormalizeID(professionalID)
	if professionalID == "" {
		return nil, apperrors.InvalidInput("Professional ID cannot be empty")
	}

	tmpl, err := s.repo.FindByProfessionalID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability template", professionalID)
		}
		s.cfg.Log.Error("Failed to load availability template",
			"professional_id", professionalID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability template", err)
	}

	candidates, err := expandTemplate(tmpl, startDate, endDate, s.cfg.SlotGranularityMin, s.cfg.MaxQueryRangeDays)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	bookedSlots, err := s.booked.FindBookedSlots(ctx, professionalID, startDate, endDate)
	if err != nil {
		s.cfg.Log.Error("Failed to fetch booked slots",
			"professional_id", professionalID,
			"start_date", startDate,
			"end_date", endDate,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve booked slots", err)
	}

	booked := make(map[string]struct{}, len(bookedSlots))
	for _, b := range bookedSlots {
		booked[b.Date+" "+b.Time] = struct{}{}
	}

	var out []model.DaySlots
	for _, day := range candidates {
		times := make([]string, 0, len(day.Times))
		for _, t := range day.Times {
			if _, taken := booked[day.Date+" "+t]; taken {
				continue
			}
			times = append(times, t)
		}
		if len(times) == 0 {
			continue
		}
		out = append(out, model.DaySlots{Date: day.Date, Times: times})
	}

	s.cfg.Log.Debug("Availability computed",
		"professional_id", professionalID,
		"start_date", startDate,
		"end_date", endDate,
		"dates_with_slots", len(out),
	)
	return out, nil
}

// IsSlotAvailable is the authoritative single-slot check run inside the
// booking write path.
func (s *availabilityService) IsSlotAvailable(ctx context.Context, professionalID, date, timeStr string) (bool, error) {
	available, err := s.Available(ctx, professionalID, date, date)
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr != nil && appErr.Code == apperrors.CodeNotFound {
			return false, nil
		}
		return false, err
	}

	for _, day := range available {
		if day.Date != date {
			continue
		}
		for _, t := range day.Times {
			if t == timeStr {
				return true, nil
			}
		}
	}
	return false, nil
}
