package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

// Attendance statuses. A record seeded for the sheet but not yet marked has a
// NULL status; unmarked is a distinct state, not absence.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Record is one athlete's attendance for one session date. At most one record
// exists per (athlete, session date); marking again overwrites.
type Record struct {
	ID        int    `json:"id"`
	AthleteID int    `json:"athlete_id"`
	BranchID  int    `json:"branch_id"` // the athlete's home branch at marking time
	// SessionDate is a local calendar date, YYYY-MM-DD.
	SessionDate string      `json:"session_date"`
	Status      null.String `json:"status"`
	Notes       null.String `json:"notes"`
	// RecordedBy is the staff user who seeded or last marked the record.
	RecordedBy int       `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Entry is a sheet row: a roster athlete joined with their record for the date.
type Entry struct {
	RecordID    int         `json:"record_id"`
	AthleteID   int         `json:"athlete_id"`
	AthleteName string      `json:"athlete_name"`
	SessionDate string      `json:"session_date"`
	Status      null.String `json:"status"`
	Notes       null.String `json:"notes"`
}

// AthleteSummary aggregates an athlete's attendance over a period.
type AthleteSummary struct {
	AthleteID   int    `json:"athlete_id"`
	AthleteName string `json:"athlete_name"`
	Present     int    `json:"present"`
	Absent      int    `json:"absent"`
	Unmarked    int    `json:"unmarked"`
}

type MarkAttendance struct {
	AthleteID   int    `json:"athlete_id" validate:"required"`
	SessionDate string `json:"session_date" validate:"required,datetime=2006-01-02"`
	Status      string `json:"status" validate:"required,oneof=present absent"`
	Notes       string `json:"notes" validate:"max=255"`
}

func (ma MarkAttendance) Validate(validate *validator.Validate) error {
	return validate.Struct(ma)
}
