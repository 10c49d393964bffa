package workflow

import (
	"path/filepath"
	"strings"
	"time"

	"sales-forecast-client/internal/apperror"
	"sales-forecast-client/internal/dto"
	"sales-forecast-client/internal/pkg/validation"
)

const dateLayout = "2006-01-02"

func ValidateUploadFile(fileName string) error {
	if !strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return apperror.Validation("please select a CSV file")
	}
	return nil
}

// ValidatePrediction checks the request shape, then that date is not before
// today and, when horizonDays > 0, not after today + horizonDays.
func ValidatePrediction(req *dto.PredictRequest, now time.Time, horizonDays int) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	target, err := time.ParseInLocation(dateLayout, req.Date, now.Location())
	if err != nil {
		return apperror.Validation("date must be a date in YYYY-MM-DD format")
	}

	today := civilDate(now)
	day := civilDate(target)
	if day.Before(today) {
		return apperror.Validation("please choose today or a later date")
	}
	if horizonDays > 0 && day.After(today.AddDate(0, 0, horizonDays)) {
		return apperror.Validation("predictions are available up to %d days ahead", horizonDays)
	}
	return nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
