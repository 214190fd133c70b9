package thread

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/athlos-club/athlos/core"
)

// GearThreadTitle is reserved for the branch's gear-announcement thread; it
// cannot be taken by a regular discussion thread.
const GearThreadTitle = "gear"

type Thread struct {
	ID       int    `json:"id"`
	BranchID int    `json:"branch_id"`
	Title    string `json:"title"`
	// CreatedBy is 0 for auto-created threads (general, gear).
	CreatedBy int       `json:"created_by"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// IsGear reports whether this is the branch's gear thread.
func (t Thread) IsGear() bool { return t.Title == GearThreadTitle }

type Post struct {
	ID       int `json:"id"`
	ThreadID int `json:"thread_id"`
	AuthorID int `json:"author_id"`
	// AuthorName is denormalized from the author's user account.
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// GeneralThreadTitle renders the auto-created default thread title of a branch.
func GeneralThreadTitle(branchName string) string {
	return fmt.Sprintf("Branch: %s General", branchName)
}

type NewThread struct {
	Title string `json:"title" validate:"required,min=2,max=100"`
}

func (nt *NewThread) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	if err := validate.Struct(nt); err != nil {
		return err
	}
	if core.CleanString(nt.Title, true /* lower */) == GearThreadTitle {
		return ErrReservedTitle
	}
	return nil
}

type NewPost struct {
	Body string `json:"body" validate:"required,max=2000"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Body = core.CleanString(np.Body)
	return validate.Struct(np)
}
