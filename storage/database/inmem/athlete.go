package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/athlete"
)

type athleteRepository struct {
	db *DB

	measurements map[int]athlete.MeasurementLog
	performances map[int]athlete.PerformanceLog
}

var _ athlete.Repository = (*athleteRepository)(nil) // interface compliance check

func NewAthleteRepository(db *DB) *athleteRepository {
	return &athleteRepository{
		db:           db,
		measurements: make(map[int]athlete.MeasurementLog),
		performances: make(map[int]athlete.PerformanceLog),
	}
}

// get must be called with the read lock held.
func (repo *athleteRepository) get(id int) (athlete.Athlete, bool) {
	userID, ok := repo.db.athletes[id]
	if !ok {
		return athlete.Athlete{}, false
	}
	usr, ok := repo.db.users[userID]
	if !ok {
		return athlete.Athlete{}, false
	}
	return athlete.Athlete{
		ID:       id,
		UserID:   usr.ID,
		Name:     usr.Name,
		BranchID: usr.BranchID,
		Approved: usr.Approved,
	}, true
}

func (repo *athleteRepository) GetAthleteByID(_ context.Context, id int, _ ...core.DBExecutor) (athlete.Athlete, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ath, ok := repo.get(id); ok {
		return ath, nil
	}
	return athlete.Athlete{}, athlete.ErrNotFound
}

func (repo *athleteRepository) GetAthleteByUserID(_ context.Context, userID int, _ ...core.DBExecutor) (athlete.Athlete, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for id, uid := range repo.db.athletes {
		if uid == userID {
			if ath, ok := repo.get(id); ok {
				return ath, nil
			}
		}
	}
	return athlete.Athlete{}, athlete.ErrNotFound
}

func (repo *athleteRepository) QueryBranchRoster(_ context.Context, branchID int, _ ...core.DBExecutor) ([]athlete.Athlete, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var roster []athlete.Athlete
	for id := range repo.db.athletes {
		if ath, ok := repo.get(id); ok && ath.BranchID == branchID && ath.Approved {
			roster = append(roster, ath)
		}
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].Name < roster[j].Name })
	return roster, nil
}

func (repo *athleteRepository) CreateMeasurementLog(_ context.Context, ml athlete.MeasurementLog, _ ...core.DBExecutor) (athlete.MeasurementLog, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	ml.ID = repo.db.nextID("measurement_logs")
	ml.CreatedAt = time.Now().UTC()
	repo.measurements[ml.ID] = ml
	return ml, nil
}

func (repo *athleteRepository) QueryMeasurementLogs(_ context.Context, athleteID int, _ ...core.DBExecutor) ([]athlete.MeasurementLog, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var logs []athlete.MeasurementLog
	for _, ml := range repo.measurements {
		if ml.AthleteID == athleteID {
			logs = append(logs, ml)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].ID > logs[j].ID })
	return logs, nil
}

func (repo *athleteRepository) CreatePerformanceLog(_ context.Context, pl athlete.PerformanceLog, _ ...core.DBExecutor) (athlete.PerformanceLog, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	pl.ID = repo.db.nextID("performance_logs")
	pl.CreatedAt = time.Now().UTC()
	repo.performances[pl.ID] = pl
	return pl, nil
}

func (repo *athleteRepository) QueryPerformanceLogs(_ context.Context, athleteID int, _ ...core.DBExecutor) ([]athlete.PerformanceLog, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var logs []athlete.PerformanceLog
	for _, pl := range repo.performances {
		if pl.AthleteID == athleteID {
			logs = append(logs, pl)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].MeetDate != logs[j].MeetDate {
			return logs[i].MeetDate > logs[j].MeetDate
		}
		return logs[i].ID > logs[j].ID
	})
	return logs, nil
}

func (repo *athleteRepository) DeletePerformanceLogs(_ context.Context, athleteID int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, pl := range repo.performances {
		if pl.AthleteID == athleteID {
			delete(repo.performances, id)
		}
	}
	return nil
}
