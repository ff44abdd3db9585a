package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"medcal/pkg/logger"
	"medcal/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

var weekdayNames = []string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

type TemplateValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTemplateValidator(log *logger.Logger) *TemplateValidator {
	v := validator.New()

	if err := v.RegisterValidation("time_hhmm", ValidateTimeHHMM); err != nil {
		log.Fatal("Failed to register 'time_hhmm' validator", "error", err)
	}

	log.Info("Availability template validator initialized successfully")

	return &TemplateValidator{
		validate: v,
		logger:   log,
	}
}

// ValidateTimeHHMM accepts zone-naive "HH:MM" 24-hour strings.
func ValidateTimeHHMM(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" {
		return true
	}
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

func (v *TemplateValidator) Validate(tmpl *model.AvailabilityTemplate) error {
	if err := v.validate.Struct(tmpl); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateWindows(tmpl.Days)
}

// validateWindows enforces the cross-field rules struct tags cannot express:
// each active window needs both bounds with start strictly before end, and a
// day's morning window must close before its evening window opens.
func (v *TemplateValidator) validateWindows(days []model.DayAvailability) error {
	var validationErrors ValidationErrors

	for i, day := range days {
		dayName := weekdayNames[i%len(weekdayNames)]

		if msg := windowError(day.Morning); msg != "" {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fmt.Sprintf("days.%s.morning", dayName),
				Message: msg,
			})
		}
		if msg := windowError(day.Evening); msg != "" {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fmt.Sprintf("days.%s.evening", dayName),
				Message: msg,
			})
		}

		if day.Morning.IsActive && day.Evening.IsActive &&
			windowError(day.Morning) == "" && windowError(day.Evening) == "" {
			if day.Morning.EndTime > day.Evening.StartTime {
				validationErrors = append(validationErrors, ValidationError{
					Field:   fmt.Sprintf("days.%s", dayName),
					Message: "morning window must end no later than the evening window starts",
				})
			}
		}
	}

	if len(validationErrors) > 0 {
		return validationErrors
	}
	return nil
}

func windowError(w model.Window) string {
	if !w.IsActive {
		return ""
	}
	if w.StartTime == "" || w.EndTime == "" {
		return "active window requires both start_time and end_time"
	}
	if w.StartTime >= w.EndTime {
		return "start_time must be strictly before end_time"
	}
	return ""
}

func (v *TemplateValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "len":
			message = fmt.Sprintf("%s must contain exactly %s entries", err.Field(), err.Param())
		case "time_hhmm":
			message = fmt.Sprintf("%s must be in HH:MM 24-hour format", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
