package attendance

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/access"
	"github.com/athlos-club/athlos/core/athlete"
	"github.com/athlos-club/athlos/core/branch"
	"github.com/athlos-club/athlos/core/user"
)

type Repository interface {
	// SeedRecords inserts an unmarked record, attributed to recorderID, for
	// every (athlete, date) pair that has none yet; existing records, marked
	// or not, are left untouched.
	SeedRecords(ctx context.Context, branchID int, date string, athleteIDs []int, recorderID int, exec ...core.DBExecutor) error
	// QueryDayEntries returns a sheet row per approved roster athlete for the
	// date, ordered by athlete name.
	QueryDayEntries(ctx context.Context, branchID int, date string, exec ...core.DBExecutor) ([]Entry, error)
	// UpsertRecord inserts or overwrites the record keyed (athlete, session date).
	UpsertRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
	QueryAthleteRecords(ctx context.Context, athleteID int, dates []string, exec ...core.DBExecutor) ([]Record, error)
	// QueryMonthEntries returns all sheet rows of a branch within the month,
	// ordered by session date then athlete name. month is "YYYY-MM".
	QueryMonthEntries(ctx context.Context, branchID int, month string, exec ...core.DBExecutor) ([]Entry, error)
	// QueryMonthSummary aggregates per-athlete counts over the month.
	QueryMonthSummary(ctx context.Context, branchID int, month string, exec ...core.DBExecutor) ([]AthleteSummary, error)
}

type Service struct {
	repo      Repository
	athletes  athlete.Repository
	branchSvc *branch.Service
	tx        core.Transactor
}

func NewService(repo Repository, athletes athlete.Repository, branchSvc *branch.Service, tx core.Transactor) *Service {
	return &Service{
		repo:      repo,
		athletes:  athletes,
		branchSvc: branchSvc,
		tx:        tx,
	}
}

// Day returns the attendance sheet of a branch for one session date,
// reconciled against the current roster: every approved athlete of the branch
// gets a row, seeding unmarked records for athletes that have none yet.
// Reconciliation is idempotent and never touches existing marks.
func (svc *Service) Day(ctx context.Context, actor user.User, branchID int, date string) ([]Entry, error) {
	if err := access.CanManageBranch(actor, branchID); err != nil {
		return nil, err
	}

	var entries []Entry
	err := svc.tx.InTransaction(ctx, func(exec core.DBExecutor) error {
		roster, err := svc.athletes.QueryBranchRoster(ctx, branchID, exec)
		if err != nil {
			return err
		}
		ids := make([]int, len(roster))
		for i, ath := range roster {
			ids[i] = ath.ID
		}
		if err = svc.repo.SeedRecords(ctx, branchID, date, ids, actor.ID, exec); err != nil {
			return err
		}
		entries, err = svc.repo.QueryDayEntries(ctx, branchID, date, exec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Mark sets an athlete's attendance for a session date, overwriting any
// previous mark. The record is scoped to the athlete's home branch, so a
// coach can only mark athletes of their active branch.
func (svc *Service) Mark(ctx context.Context, actor user.User, ma MarkAttendance) (Record, error) {
	ath, err := svc.athletes.GetAthleteByID(ctx, ma.AthleteID)
	if err != nil {
		return Record{}, err
	}
	if err = access.CanManageBranch(actor, ath.BranchID); err != nil {
		return Record{}, err
	}
	return svc.repo.UpsertRecord(ctx, Record{
		AthleteID:   ath.ID,
		BranchID:    ath.BranchID,
		SessionDate: ma.SessionDate,
		Status:      null.StringFrom(ma.Status),
		Notes:       null.NewString(ma.Notes, ma.Notes != ""),
		RecordedBy:  actor.ID,
	})
}

// Week returns the athlete's records for the current training week, one per
// scheduled session date of their branch.
func (svc *Service) Week(ctx context.Context, actor user.User, athleteID int) ([]Record, error) {
	ath, err := svc.athletes.GetAthleteByID(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if err = access.CanAccessAthlete(actor, ath.UserID, ath.BranchID); err != nil {
		return nil, err
	}
	dates, err := svc.branchSvc.SessionDates(ctx, ath.BranchID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryAthleteRecords(ctx, ath.ID, dates)
}

// Month returns all sheet rows of a branch within a month ("YYYY-MM").
func (svc *Service) Month(ctx context.Context, actor user.User, branchID int, month string) ([]Entry, error) {
	if err := access.CanManageBranch(actor, branchID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMonthEntries(ctx, branchID, month)
}

// MonthSummary aggregates per-athlete attendance counts over a month.
func (svc *Service) MonthSummary(ctx context.Context, actor user.User, branchID int, month string) ([]AthleteSummary, error) {
	if err := access.CanManageBranch(actor, branchID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMonthSummary(ctx, branchID, month)
}
