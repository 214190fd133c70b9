package athlete

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/athlos-club/athlos/core"
)

// Athlete is the training profile behind an athlete user account.
// Measurement and performance logs hang off the athlete, not the user.
type Athlete struct {
	ID     int `json:"id"`
	UserID int `json:"user_id"`

	// denormalized from the user account
	Name     string `json:"name"`
	BranchID int    `json:"branch_id"`
	Approved bool   `json:"approved"`
}

// MeasurementLog is a dated body-measurement snapshot. All measurements are
// optional; a snapshot records only what was measured that day.
type MeasurementLog struct {
	ID        int          `json:"id"`
	AthleteID int          `json:"athlete_id"`
	HeightCm  null.Float64 `json:"height_cm"`
	WeightKg  null.Float64 `json:"weight_kg"`
	ArmCm     null.Float64 `json:"arm_cm"`
	LegCm     null.Float64 `json:"leg_cm"`
	BodyFat   null.Float64 `json:"body_fat"`
	MuscleKg  null.Float64 `json:"muscle_kg"`
	CreatedAt time.Time    `json:"created_at"` // UTC
}

// PerformanceLog is a recorded result at a meet.
type PerformanceLog struct {
	ID        int    `json:"id"`
	AthleteID int    `json:"athlete_id"`
	MeetName  string `json:"meet_name"`
	MeetDate  string `json:"meet_date"` // YYYY-MM-DD
	EventName string `json:"event_name"`
	// ResultTime is free-form ("1:02.45", "58.3"); formats vary per event.
	ResultTime string    `json:"result_time"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

type NewMeasurement struct {
	HeightCm *float64 `json:"height_cm" validate:"omitempty,gt=0"`
	WeightKg *float64 `json:"weight_kg" validate:"omitempty,gt=0"`
	ArmCm    *float64 `json:"arm_cm" validate:"omitempty,gt=0"`
	LegCm    *float64 `json:"leg_cm" validate:"omitempty,gt=0"`
	BodyFat  *float64 `json:"body_fat" validate:"omitempty,gt=0,max=100"`
	MuscleKg *float64 `json:"muscle_kg" validate:"omitempty,gt=0"`
}

func (nm NewMeasurement) Validate(validate *validator.Validate) error {
	if err := validate.Struct(nm); err != nil {
		return err
	}
	if nm.HeightCm == nil && nm.WeightKg == nil && nm.ArmCm == nil &&
		nm.LegCm == nil && nm.BodyFat == nil && nm.MuscleKg == nil {
		return core.NewValidationError(errors.New("at least one measurement is required"))
	}
	return nil
}

func (nm NewMeasurement) log() MeasurementLog {
	return MeasurementLog{
		HeightCm: null.Float64FromPtr(nm.HeightCm),
		WeightKg: null.Float64FromPtr(nm.WeightKg),
		ArmCm:    null.Float64FromPtr(nm.ArmCm),
		LegCm:    null.Float64FromPtr(nm.LegCm),
		BodyFat:  null.Float64FromPtr(nm.BodyFat),
		MuscleKg: null.Float64FromPtr(nm.MuscleKg),
	}
}

type NewPerformance struct {
	MeetName   string `json:"meet_name" validate:"required,max=100"`
	MeetDate   string `json:"meet_date" validate:"required,datetime=2006-01-02"`
	EventName  string `json:"event_name" validate:"required,max=100"`
	ResultTime string `json:"result_time" validate:"required,max=50"`
}

func (np *NewPerformance) Validate(validate *validator.Validate) error {
	np.MeetName = core.CleanString(np.MeetName)
	np.EventName = core.CleanString(np.EventName)
	np.ResultTime = core.CleanString(np.ResultTime)
	return validate.Struct(np)
}
