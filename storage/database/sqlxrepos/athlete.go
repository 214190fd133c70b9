package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/athlete"
)

type athleteRepository struct {
	exec core.DBExecutor
}

var _ athlete.Repository = (*athleteRepository)(nil) // interface compliance check

func NewAthleteRepository(exec core.DBExecutor) *athleteRepository {
	return &athleteRepository{exec: exec}
}

func (repo athleteRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

type athleteRow struct {
	ID       int      `db:"id"`
	UserID   int      `db:"user_id"`
	Name     string   `db:"name"`
	BranchID null.Int `db:"branch_id"`
	Approved bool     `db:"approved"`
}

func (r athleteRow) athlete() athlete.Athlete {
	return athlete.Athlete{
		ID:       r.ID,
		UserID:   r.UserID,
		Name:     r.Name,
		BranchID: r.BranchID.Int,
		Approved: r.Approved,
	}
}

const athleteSelect = `
	SELECT a.id, a.user_id, u.name, u.branch_id, u.approved
	FROM athletes a
	JOIN users u ON u.id = a.user_id`

func (repo athleteRepository) GetAthleteByID(ctx context.Context, id int, exec ...core.DBExecutor) (athlete.Athlete, error) {
	var row athleteRow
	err := repo.getExec(exec).GetContext(ctx, &row, athleteSelect+` WHERE a.id = $1`, id)
	if err != nil {
		return athlete.Athlete{}, trapNoRowsErrAs(err, athlete.ErrNotFound, "finding athlete by ID")
	}
	return row.athlete(), nil
}

func (repo athleteRepository) GetAthleteByUserID(ctx context.Context, userID int, exec ...core.DBExecutor) (athlete.Athlete, error) {
	var row athleteRow
	err := repo.getExec(exec).GetContext(ctx, &row, athleteSelect+` WHERE a.user_id = $1`, userID)
	if err != nil {
		return athlete.Athlete{}, trapNoRowsErrAs(err, athlete.ErrNotFound, "finding athlete by user ID")
	}
	return row.athlete(), nil
}

func (repo athleteRepository) QueryBranchRoster(ctx context.Context, branchID int, exec ...core.DBExecutor) ([]athlete.Athlete, error) {
	var rows []athleteRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		athleteSelect+` WHERE u.branch_id = $1 AND u.approved ORDER BY u.name`,
		branchID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying branch roster")
	}
	athletes := make([]athlete.Athlete, len(rows))
	for i, r := range rows {
		athletes[i] = r.athlete()
	}
	return athletes, nil
}

// measurement logs

type measurementRow struct {
	ID        int          `db:"id"`
	AthleteID int          `db:"athlete_id"`
	HeightCm  null.Float64 `db:"height_cm"`
	WeightKg  null.Float64 `db:"weight_kg"`
	ArmCm     null.Float64 `db:"arm_cm"`
	LegCm     null.Float64 `db:"leg_cm"`
	BodyFat   null.Float64 `db:"body_fat"`
	MuscleKg  null.Float64 `db:"muscle_kg"`
	CreatedAt time.Time    `db:"created_at"`
}

const measurementColumns = `id, athlete_id, height_cm, weight_kg, arm_cm, leg_cm, body_fat, muscle_kg, created_at`

func (repo athleteRepository) CreateMeasurementLog(ctx context.Context, ml athlete.MeasurementLog, exec ...core.DBExecutor) (athlete.MeasurementLog, error) {
	var row measurementRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		INSERT INTO measurement_logs (athlete_id, height_cm, weight_kg, arm_cm, leg_cm, body_fat, muscle_kg)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+measurementColumns,
		ml.AthleteID, ml.HeightCm, ml.WeightKg, ml.ArmCm, ml.LegCm, ml.BodyFat, ml.MuscleKg,
	)
	if err != nil {
		return athlete.MeasurementLog{}, errors.Wrap(err, "inserting measurement log")
	}
	return athlete.MeasurementLog(row), nil
}

func (repo athleteRepository) QueryMeasurementLogs(ctx context.Context, athleteID int, exec ...core.DBExecutor) ([]athlete.MeasurementLog, error) {
	var rows []measurementRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+measurementColumns+` FROM measurement_logs
		WHERE athlete_id = $1 ORDER BY created_at DESC`,
		athleteID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying measurement logs")
	}
	logs := make([]athlete.MeasurementLog, len(rows))
	for i, r := range rows {
		logs[i] = athlete.MeasurementLog(r)
	}
	return logs, nil
}

// performance logs

type performanceRow struct {
	ID         int       `db:"id"`
	AthleteID  int       `db:"athlete_id"`
	MeetName   string    `db:"meet_name"`
	MeetDate   time.Time `db:"meet_date"`
	EventName  string    `db:"event_name"`
	ResultTime string    `db:"result_time"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r performanceRow) log() athlete.PerformanceLog {
	return athlete.PerformanceLog{
		ID:         r.ID,
		AthleteID:  r.AthleteID,
		MeetName:   r.MeetName,
		MeetDate:   r.MeetDate.Format("2006-01-02"),
		EventName:  r.EventName,
		ResultTime: r.ResultTime,
		CreatedAt:  r.CreatedAt,
	}
}

const performanceColumns = `id, athlete_id, meet_name, meet_date, event_name, result_time, created_at`

func (repo athleteRepository) CreatePerformanceLog(ctx context.Context, pl athlete.PerformanceLog, exec ...core.DBExecutor) (athlete.PerformanceLog, error) {
	var row performanceRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		INSERT INTO performance_logs (athlete_id, meet_name, meet_date, event_name, result_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+performanceColumns,
		pl.AthleteID, pl.MeetName, pl.MeetDate, pl.EventName, pl.ResultTime,
	)
	if err != nil {
		return athlete.PerformanceLog{}, errors.Wrap(err, "inserting performance log")
	}
	return row.log(), nil
}

func (repo athleteRepository) QueryPerformanceLogs(ctx context.Context, athleteID int, exec ...core.DBExecutor) ([]athlete.PerformanceLog, error) {
	var rows []performanceRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+performanceColumns+` FROM performance_logs
		WHERE athlete_id = $1 ORDER BY meet_date DESC, id DESC`,
		athleteID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying performance logs")
	}
	logs := make([]athlete.PerformanceLog, len(rows))
	for i, r := range rows {
		logs[i] = r.log()
	}
	return logs, nil
}

func (repo athleteRepository) DeletePerformanceLogs(ctx context.Context, athleteID int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM performance_logs WHERE athlete_id = $1`, athleteID)
	return errors.Wrap(err, "deleting performance logs")
}
