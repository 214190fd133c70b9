package athlete

import (
	"context"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/access"
	"github.com/athlos-club/athlos/core/user"
)

// ErrNotFound is returned when a requested athlete profile does not exist.
var ErrNotFound = core.NewNotFoundError("athlete not found")

type Repository interface {
	GetAthleteByID(ctx context.Context, id int, exec ...core.DBExecutor) (Athlete, error)
	GetAthleteByUserID(ctx context.Context, userID int, exec ...core.DBExecutor) (Athlete, error)
	// QueryBranchRoster returns the approved athletes of a branch ordered by name.
	QueryBranchRoster(ctx context.Context, branchID int, exec ...core.DBExecutor) ([]Athlete, error)

	CreateMeasurementLog(ctx context.Context, ml MeasurementLog, exec ...core.DBExecutor) (MeasurementLog, error)
	QueryMeasurementLogs(ctx context.Context, athleteID int, exec ...core.DBExecutor) ([]MeasurementLog, error)

	CreatePerformanceLog(ctx context.Context, pl PerformanceLog, exec ...core.DBExecutor) (PerformanceLog, error)
	QueryPerformanceLogs(ctx context.Context, athleteID int, exec ...core.DBExecutor) ([]PerformanceLog, error)
	DeletePerformanceLogs(ctx context.Context, athleteID int, exec ...core.DBExecutor) error
}

type Service struct {
	repo Repository
	tx   core.Transactor
}

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

func (svc *Service) GetByUserID(ctx context.Context, userID int) (Athlete, error) {
	return svc.repo.GetAthleteByUserID(ctx, userID)
}

// Roster lists the approved athletes of a branch, ordered by name.
func (svc *Service) Roster(ctx context.Context, actor user.User, branchID int) ([]Athlete, error) {
	if err := access.CanViewBranch(actor, branchID); err != nil {
		return nil, err
	}
	return svc.repo.QueryBranchRoster(ctx, branchID)
}

func (svc *Service) LogMeasurement(ctx context.Context, actor user.User, athleteID int, nm NewMeasurement) (MeasurementLog, error) {
	ath, err := svc.authorized(ctx, actor, athleteID)
	if err != nil {
		return MeasurementLog{}, err
	}
	ml := nm.log()
	ml.AthleteID = ath.ID
	return svc.repo.CreateMeasurementLog(ctx, ml)
}

func (svc *Service) Measurements(ctx context.Context, actor user.User, athleteID int) ([]MeasurementLog, error) {
	ath, err := svc.authorized(ctx, actor, athleteID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryMeasurementLogs(ctx, ath.ID)
}

func (svc *Service) PerformanceLogs(ctx context.Context, actor user.User, athleteID int) ([]PerformanceLog, error) {
	ath, err := svc.authorized(ctx, actor, athleteID)
	if err != nil {
		return nil, err
	}
	return svc.repo.QueryPerformanceLogs(ctx, ath.ID)
}

// ReplaceAllPerformanceLogs replaces the athlete's performance history with
// the given entries, atomically. The frontend edits the history as a whole.
func (svc *Service) ReplaceAllPerformanceLogs(ctx context.Context, actor user.User, athleteID int, entries []NewPerformance) ([]PerformanceLog, error) {
	ath, err := svc.authorized(ctx, actor, athleteID)
	if err != nil {
		return nil, err
	}

	logs := make([]PerformanceLog, 0, len(entries))
	err = svc.tx.InTransaction(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeletePerformanceLogs(ctx, ath.ID, exec); err != nil {
			return err
		}
		for _, np := range entries {
			pl, err := svc.repo.CreatePerformanceLog(ctx, PerformanceLog{
				AthleteID:  ath.ID,
				MeetName:   np.MeetName,
				MeetDate:   np.MeetDate,
				EventName:  np.EventName,
				ResultTime: np.ResultTime,
			}, exec)
			if err != nil {
				return err
			}
			logs = append(logs, pl)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// authorized loads the athlete and checks the actor may act on their records.
func (svc *Service) authorized(ctx context.Context, actor user.User, athleteID int) (Athlete, error) {
	ath, err := svc.repo.GetAthleteByID(ctx, athleteID)
	if err != nil {
		return Athlete{}, err
	}
	if err := access.CanAccessAthlete(actor, ath.UserID, ath.BranchID); err != nil {
		return Athlete{}, err
	}
	return ath, nil
}
