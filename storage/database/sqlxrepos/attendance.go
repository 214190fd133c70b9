package sqlxrepos

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/attendance"
)

type attendanceRepository struct {
	exec core.DBExecutor
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{exec: exec}
}

func (repo attendanceRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

type recordRow struct {
	ID          int         `db:"id"`
	AthleteID   int         `db:"athlete_id"`
	BranchID    int         `db:"branch_id"`
	SessionDate time.Time   `db:"session_date"`
	Status      null.String `db:"status"`
	Notes       null.String `db:"notes"`
	RecordedBy  null.Int    `db:"recorded_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r recordRow) record() attendance.Record {
	return attendance.Record{
		ID:          r.ID,
		AthleteID:   r.AthleteID,
		BranchID:    r.BranchID,
		SessionDate: r.SessionDate.Format("2006-01-02"),
		Status:      r.Status,
		Notes:       r.Notes,
		RecordedBy:  r.RecordedBy.Int,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type entryRow struct {
	RecordID    int         `db:"record_id"`
	AthleteID   int         `db:"athlete_id"`
	AthleteName string      `db:"athlete_name"`
	SessionDate time.Time   `db:"session_date"`
	Status      null.String `db:"status"`
	Notes       null.String `db:"notes"`
}

func (r entryRow) entry() attendance.Entry {
	return attendance.Entry{
		RecordID:    r.RecordID,
		AthleteID:   r.AthleteID,
		AthleteName: r.AthleteName,
		SessionDate: r.SessionDate.Format("2006-01-02"),
		Status:      r.Status,
		Notes:       r.Notes,
	}
}

func entries(rows []entryRow) []attendance.Entry {
	ents := make([]attendance.Entry, len(rows))
	for i, r := range rows {
		ents[i] = r.entry()
	}
	return ents
}

const recordColumns = `id, athlete_id, branch_id, session_date, status, notes, recorded_by, created_at, updated_at`

func (repo attendanceRepository) SeedRecords(ctx context.Context, branchID int, date string, athleteIDs []int, recorderID int, exec ...core.DBExecutor) error {
	if len(athleteIDs) == 0 {
		return nil
	}
	// unnest seeds all missing rows in one statement; existing marks survive
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO attendance_records (athlete_id, branch_id, session_date, recorded_by)
		SELECT unnest($1::int[]), $2, $3::date, $4
		ON CONFLICT (athlete_id, session_date) DO NOTHING`,
		pq.Array(athleteIDs), branchID, date, recorderID,
	)
	return errors.Wrap(err, "seeding attendance records")
}

func (repo attendanceRepository) QueryDayEntries(ctx context.Context, branchID int, date string, exec ...core.DBExecutor) ([]attendance.Entry, error) {
	// roster-driven: every approved athlete of the branch gets a row, with
	// their record for the date when one exists
	var rows []entryRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT COALESCE(ar.id, 0) AS record_id, a.id AS athlete_id,
		       u.name AS athlete_name, $2::date AS session_date,
		       ar.status, ar.notes
		FROM athletes a
		JOIN users u ON u.id = a.user_id
		LEFT JOIN attendance_records ar
		       ON ar.athlete_id = a.id AND ar.session_date = $2::date
		WHERE u.branch_id = $1 AND u.approved
		ORDER BY u.name`,
		branchID, date,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying day entries")
	}
	return entries(rows), nil
}

func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	var row recordRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		INSERT INTO attendance_records (athlete_id, branch_id, session_date, status, notes, recorded_by)
		VALUES ($1, $2, $3::date, $4, $5, $6)
		ON CONFLICT (athlete_id, session_date)
		DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes,
		              recorded_by = EXCLUDED.recorded_by,
		              branch_id = EXCLUDED.branch_id, updated_at = now()
		RETURNING `+recordColumns,
		rec.AthleteID, rec.BranchID, rec.SessionDate, rec.Status, rec.Notes,
		null.NewInt(rec.RecordedBy, rec.RecordedBy != 0),
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
	}
	return row.record(), nil
}

func (repo attendanceRepository) QueryAthleteRecords(ctx context.Context, athleteID int, dates []string, exec ...core.DBExecutor) ([]attendance.Record, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var rows []recordRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+recordColumns+` FROM attendance_records
		WHERE athlete_id = $1 AND session_date = ANY ($2::date[])
		ORDER BY session_date`,
		athleteID, pq.Array(dates),
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying athlete records")
	}
	records := make([]attendance.Record, len(rows))
	for i, r := range rows {
		records[i] = r.record()
	}
	return records, nil
}

func (repo attendanceRepository) QueryMonthEntries(ctx context.Context, branchID int, month string, exec ...core.DBExecutor) ([]attendance.Entry, error) {
	var rows []entryRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT ar.id AS record_id, ar.athlete_id, u.name AS athlete_name,
		       ar.session_date, ar.status, ar.notes
		FROM attendance_records ar
		JOIN athletes a ON a.id = ar.athlete_id
		JOIN users u ON u.id = a.user_id
		WHERE ar.branch_id = $1 AND to_char(ar.session_date, 'YYYY-MM') = $2 AND u.approved
		ORDER BY ar.session_date, u.name`,
		branchID, month,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying month entries")
	}
	return entries(rows), nil
}

func (repo attendanceRepository) QueryMonthSummary(ctx context.Context, branchID int, month string, exec ...core.DBExecutor) ([]attendance.AthleteSummary, error) {
	var rows []struct {
		AthleteID   int    `db:"athlete_id"`
		AthleteName string `db:"athlete_name"`
		Present     int    `db:"present"`
		Absent      int    `db:"absent"`
		Unmarked    int    `db:"unmarked"`
	}
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT ar.athlete_id, u.name AS athlete_name,
		       COUNT(*) FILTER (WHERE ar.status = 'present') AS present,
		       COUNT(*) FILTER (WHERE ar.status = 'absent') AS absent,
		       COUNT(*) FILTER (WHERE ar.status IS NULL) AS unmarked
		FROM attendance_records ar
		JOIN athletes a ON a.id = ar.athlete_id
		JOIN users u ON u.id = a.user_id
		WHERE ar.branch_id = $1 AND to_char(ar.session_date, 'YYYY-MM') = $2 AND u.approved
		GROUP BY ar.athlete_id, u.name
		ORDER BY u.name`,
		branchID, month,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying month summary")
	}

	summaries := make([]attendance.AthleteSummary, len(rows))
	for i, r := range rows {
		summaries[i] = attendance.AthleteSummary(r)
	}
	return summaries, nil
}
