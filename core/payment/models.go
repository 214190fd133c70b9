package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
)

// Payment is an athlete's monthly fee record. At most one payment exists per
// (athlete, due date); marking again overwrites. DueDate is always the first
// of the month, YYYY-MM-01.
type Payment struct {
	ID        int          `json:"id"`
	AthleteID int          `json:"athlete_id"`
	BranchID  int          `json:"branch_id"`
	DueDate   string       `json:"due_date"`
	Paid      bool         `json:"paid"`
	Amount    null.Float64 `json:"amount"`
	// ConfirmedBy is the staff user who recorded the payment.
	ConfirmedBy int       `json:"confirmed_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// AthleteStatus is a summary row: one roster athlete's payment state for one
// due date of the branch.
type AthleteStatus struct {
	AthleteID   int          `json:"athlete_id"`
	AthleteName string       `json:"athlete_name"`
	DueDate     string       `json:"due_date"`
	Paid        bool         `json:"paid"`
	Amount      null.Float64 `json:"amount"`
}

type MarkPayment struct {
	AthleteID int `json:"athlete_id" validate:"required"`
	// SessionDate is any date within the month being paid for; the due date
	// is normalized to the first of that month.
	SessionDate string   `json:"session_date" validate:"required,datetime=2006-01-02"`
	Paid        bool     `json:"paid"`
	Amount      *float64 `json:"amount" validate:"omitempty,gt=0"`
}

func (mp MarkPayment) Validate(validate *validator.Validate) error {
	return validate.Struct(mp)
}

// DueDate normalizes the session date to the first of its month.
func (mp MarkPayment) DueDate() string {
	t, err := time.Parse("2006-01-02", mp.SessionDate)
	if err != nil {
		return ""
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}
