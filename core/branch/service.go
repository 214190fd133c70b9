package branch

import (
	"context"
	"time"

	"github.com/athlos-club/athlos/core"
)

var (
	// ErrNotFound is returned when a requested branch does not exist.
	ErrNotFound = core.NewNotFoundError("branch not found")

	// ErrPracticeDaysNotSet is returned when a branch's schedule is empty or
	// contains no recognizable day names.
	ErrPracticeDaysNotSet = core.NewConfigurationError("practice days are not configured for this branch")
)

type Repository interface {
	QueryBranches(ctx context.Context, exec ...core.DBExecutor) ([]Branch, error)
	GetBranchByID(ctx context.Context, id int, exec ...core.DBExecutor) (Branch, error)
	CreateBranch(ctx context.Context, b Branch, exec ...core.DBExecutor) (Branch, error)
	UpdateBranch(ctx context.Context, b Branch, exec ...core.DBExecutor) (Branch, error)
	DeleteBranch(ctx context.Context, id int, exec ...core.DBExecutor) error
}

type Service struct {
	repo Repository

	// now is the clock used to anchor session dates; overridable in tests.
	// Session dates are resolved in the server's local timezone.
	now func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (svc *Service) Query(ctx context.Context) ([]Branch, error) {
	return svc.repo.QueryBranches(ctx)
}

// QueryPublic lists branches in the registration-time view.
func (svc *Service) QueryPublic(ctx context.Context) ([]PublicBranch, error) {
	branches, err := svc.repo.QueryBranches(ctx)
	if err != nil {
		return nil, err
	}
	public := make([]PublicBranch, len(branches))
	for i, b := range branches {
		public[i] = b.Public()
	}
	return public, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (Branch, error) {
	return svc.repo.GetBranchByID(ctx, id)
}

func (svc *Service) Create(ctx context.Context, nb NewBranch) (Branch, error) {
	b := Branch{
		Name:         nb.Name,
		Address:      nb.Address,
		Phone:        nb.Phone,
		VideoURL:     nb.VideoURL,
		PracticeDays: nb.PracticeDays,
	}
	return svc.repo.CreateBranch(ctx, b)
}

func (svc *Service) Update(ctx context.Context, id int, ub UpdateBranch) (Branch, error) {
	b, err := svc.repo.GetBranchByID(ctx, id)
	if err != nil {
		return Branch{}, err
	}
	b.Name = ub.Name
	b.Address = ub.Address
	b.Phone = ub.Phone
	b.VideoURL = ub.VideoURL
	b.PracticeDays = ub.PracticeDays
	return svc.repo.UpdateBranch(ctx, b)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteBranch(ctx, id)
}

// SessionDates returns the branch's session dates for the current training
// week (see SessionDates in schedule.go).
func (svc *Service) SessionDates(ctx context.Context, branchID int) ([]string, error) {
	b, err := svc.repo.GetBranchByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if core.CleanString(b.PracticeDays) == "" {
		return nil, ErrPracticeDaysNotSet
	}
	dates := SessionDates(b.PracticeDays, svc.now())
	if len(dates) == 0 {
		return nil, ErrPracticeDaysNotSet
	}
	return dates, nil
}
