package branch

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/athlos-club/athlos/core"
)

type Branch struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	// VideoURL points at the branch's intro/training video.
	VideoURL string `json:"video_url"`
	// PracticeDays is a free-form weekly schedule, comma-separated entries of
	// the form "Monday: 18:00-20:00". Day names are matched loosely; see
	// SessionDates.
	PracticeDays string    `json:"practice_days"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// PublicBranch is the registration-time view of a branch: no contact details.
type PublicBranch struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (b Branch) Public() PublicBranch {
	return PublicBranch{ID: b.ID, Name: b.Name}
}

type NewBranch struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Address      string `json:"address" validate:"max=255"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	VideoURL     string `json:"video_url" validate:"omitempty,url"`
	PracticeDays string `json:"practice_days" validate:"max=255"`
}

func (nb *NewBranch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	nb.Address = core.CleanString(nb.Address)
	nb.Phone = core.NormalizePhone(nb.Phone)
	nb.VideoURL = core.CleanString(nb.VideoURL)
	nb.PracticeDays = core.CleanString(nb.PracticeDays)
	return validate.Struct(nb)
}

type UpdateBranch struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Address      string `json:"address" validate:"max=255"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	VideoURL     string `json:"video_url" validate:"omitempty,url"`
	PracticeDays string `json:"practice_days" validate:"max=255"`
}

func (ub *UpdateBranch) Validate(validate *validator.Validate) error {
	ub.Name = core.CleanString(ub.Name)
	ub.Address = core.CleanString(ub.Address)
	ub.Phone = core.NormalizePhone(ub.Phone)
	ub.VideoURL = core.CleanString(ub.VideoURL)
	ub.PracticeDays = core.CleanString(ub.PracticeDays)
	return validate.Struct(ub)
}
