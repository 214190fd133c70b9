package payment

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/access"
	"github.com/athlos-club/athlos/core/athlete"
	"github.com/athlos-club/athlos/core/user"
)

type Repository interface {
	// UpsertPayment inserts or overwrites the payment keyed (athlete, due date).
	UpsertPayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
	QueryAthletePayments(ctx context.Context, athleteID int, exec ...core.DBExecutor) ([]Payment, error)
	// QueryBranchStatus returns a row per (roster athlete, due date) pair for
	// every due date the branch has any payment for, ordered by due date then
	// athlete name. Athletes without a payment for a due date appear unpaid.
	QueryBranchStatus(ctx context.Context, branchID int, exec ...core.DBExecutor) ([]AthleteStatus, error)
}

type Service struct {
	repo     Repository
	athletes athlete.Repository
}

func NewService(repo Repository, athletes athlete.Repository) *Service {
	return &Service{repo: repo, athletes: athletes}
}

// Mark records an athlete's fee for the month of the given session date,
// overwriting any previous record for that month.
func (svc *Service) Mark(ctx context.Context, actor user.User, mp MarkPayment) (Payment, error) {
	ath, err := svc.athletes.GetAthleteByID(ctx, mp.AthleteID)
	if err != nil {
		return Payment{}, err
	}
	if err = access.CanManageBranch(actor, ath.BranchID); err != nil {
		return Payment{}, err
	}
	return svc.repo.UpsertPayment(ctx, Payment{
		AthleteID:   ath.ID,
		BranchID:    ath.BranchID,
		DueDate:     mp.DueDate(),
		Paid:        mp.Paid,
		Amount:      null.Float64FromPtr(mp.Amount),
		ConfirmedBy: actor.ID,
	})
}

// ForAthlete returns an athlete's payment history, newest due date first.
func (svc *Service) ForAthlete(ctx context.Context, actor user.User, athleteID int) ([]Payment, error) {
	ath, err := svc.athletes.GetAthleteByID(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if err = access.CanAccessAthlete(actor, ath.UserID, ath.BranchID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAthletePayments(ctx, ath.ID)
}

// BranchStatus returns the payment summary grid of a branch: every roster
// athlete against every due date the branch has payments for.
func (svc *Service) BranchStatus(ctx context.Context, actor user.User, branchID int) ([]AthleteStatus, error) {
	if err := access.CanManageBranch(actor, branchID); err != nil {
		return nil, err
	}
	return svc.repo.QueryBranchStatus(ctx, branchID)
}
