package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	availabilityvalidator "medcal/internal/availability/validator"
	"medcal/pkg/logger"
	"medcal/pkg/model"
)

type ValidationError = availabilityvalidator.ValidationError

type ValidationErrors = availabilityvalidator.ValidationErrors

type AppointmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	v := validator.New()

	if err := v.RegisterValidation("time_hhmm", availabilityvalidator.ValidateTimeHHMM); err != nil {
		log.Fatal("Failed to register 'time_hhmm' validator", "error", err)
	}
	if err := v.RegisterValidation("date_ymd", validateDateYMD); err != nil {
		log.Fatal("Failed to register 'date_ymd' validator", "error", err)
	}

	log.Info("Appointment validator initialized successfully")

	return &AppointmentValidator{
		validate: v,
		logger:   log,
	}
}

func validateDateYMD(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func (v *AppointmentValidator) Validate(appt *model.Appointment) error {
	if err := v.validate.Struct(appt); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

// ValidateReview checks the per-action payload rules: a rejection carries a
// reason, a reschedule carries at least one suggested time.
func (v *AppointmentValidator) ValidateReview(req *model.ReviewRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	var validationErrors ValidationErrors

	switch req.Action {
	case model.ActionReject:
		if strings.TrimSpace(req.RejectionReason) == "" {
			validationErrors = append(validationErrors, ValidationError{
				Field:   "rejection_reason",
				Message: "rejection_reason is required when rejecting an appointment",
			})
		}
	case model.ActionReschedule:
		if len(req.SuggestedTimes) == 0 {
			validationErrors = append(validationErrors, ValidationError{
				Field:   "suggested_times",
				Message: "suggested_times must contain at least one alternative when rescheduling",
			})
		}
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

func (v *AppointmentValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "time_hhmm":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		case "date_ymd":
			message = fmt.Sprintf("%s must be in YYYY-MM-DD format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
