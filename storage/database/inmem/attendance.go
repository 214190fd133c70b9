package inmem

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// athleteName must be called with the read lock held.
func (repo *attendanceRepository) athleteName(athleteID int) (string, bool) {
	userID, ok := repo.db.athletes[athleteID]
	if !ok {
		return "", false
	}
	usr, ok := repo.db.users[userID]
	if !ok || !usr.Approved {
		return "", false
	}
	return usr.Name, true
}

func (repo *attendanceRepository) SeedRecords(_ context.Context, branchID int, date string, athleteIDs []int, recorderID int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	existing := make(map[int]bool)
	for _, rec := range repo.db.records {
		if rec.SessionDate == date {
			existing[rec.AthleteID] = true
		}
	}
	now := time.Now().UTC()
	for _, id := range athleteIDs {
		if existing[id] {
			continue
		}
		rec := attendance.Record{
			ID:          repo.db.nextID("attendance_records"),
			AthleteID:   id,
			BranchID:    branchID,
			SessionDate: date,
			RecordedBy:  recorderID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		repo.db.records[rec.ID] = rec
	}
	return nil
}

func (repo *attendanceRepository) QueryDayEntries(_ context.Context, branchID int, date string, _ ...core.DBExecutor) ([]attendance.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	// roster-driven: one row per approved athlete of the branch, joined with
	// their record for the date when one exists
	var entries []attendance.Entry
	for athID, userID := range repo.db.athletes {
		usr, ok := repo.db.users[userID]
		if !ok || usr.BranchID != branchID || !usr.Approved {
			continue
		}
		entry := attendance.Entry{
			AthleteID:   athID,
			AthleteName: usr.Name,
			SessionDate: date,
		}
		for _, rec := range repo.db.records {
			if rec.AthleteID == athID && rec.SessionDate == date {
				entry.RecordID = rec.ID
				entry.Status = rec.Status
				entry.Notes = rec.Notes
				break
			}
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].AthleteName < entries[j].AthleteName })
	return entries, nil
}

func (repo *attendanceRepository) UpsertRecord(_ context.Context, rec attendance.Record, _ ...core.DBExecutor) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	now := time.Now().UTC()
	for id, curr := range repo.db.records {
		if curr.AthleteID == rec.AthleteID && curr.SessionDate == rec.SessionDate {
			curr.Status = rec.Status
			curr.Notes = rec.Notes
			curr.RecordedBy = rec.RecordedBy
			curr.BranchID = rec.BranchID
			curr.UpdatedAt = now
			repo.db.records[id] = curr
			return curr, nil
		}
	}
	rec.ID = repo.db.nextID("attendance_records")
	rec.CreatedAt, rec.UpdatedAt = now, now
	repo.db.records[rec.ID] = rec
	return rec, nil
}

func (repo *attendanceRepository) QueryAthleteRecords(_ context.Context, athleteID int, dates []string, _ ...core.DBExecutor) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[string]bool, len(dates))
	for _, d := range dates {
		wanted[d] = true
	}
	var records []attendance.Record
	for _, rec := range repo.db.records {
		if rec.AthleteID == athleteID && wanted[rec.SessionDate] {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].SessionDate < records[j].SessionDate })
	return records, nil
}

func (repo *attendanceRepository) QueryMonthEntries(_ context.Context, branchID int, month string, _ ...core.DBExecutor) ([]attendance.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var entries []attendance.Entry
	for _, rec := range repo.db.records {
		if rec.BranchID != branchID || !strings.HasPrefix(rec.SessionDate, month) {
			continue
		}
		name, ok := repo.athleteName(rec.AthleteID)
		if !ok {
			continue
		}
		entries = append(entries, attendance.Entry{
			RecordID:    rec.ID,
			AthleteID:   rec.AthleteID,
			AthleteName: name,
			SessionDate: rec.SessionDate,
			Status:      rec.Status,
			Notes:       rec.Notes,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SessionDate != entries[j].SessionDate {
			return entries[i].SessionDate < entries[j].SessionDate
		}
		return entries[i].AthleteName < entries[j].AthleteName
	})
	return entries, nil
}

func (repo *attendanceRepository) QueryMonthSummary(_ context.Context, branchID int, month string, _ ...core.DBExecutor) ([]attendance.AthleteSummary, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	byAthlete := make(map[int]*attendance.AthleteSummary)
	for _, rec := range repo.db.records {
		if rec.BranchID != branchID || !strings.HasPrefix(rec.SessionDate, month) {
			continue
		}
		name, ok := repo.athleteName(rec.AthleteID)
		if !ok {
			continue
		}
		summary, ok := byAthlete[rec.AthleteID]
		if !ok {
			summary = &attendance.AthleteSummary{AthleteID: rec.AthleteID, AthleteName: name}
			byAthlete[rec.AthleteID] = summary
		}
		switch rec.Status.String {
		case attendance.StatusPresent:
			summary.Present++
		case attendance.StatusAbsent:
			summary.Absent++
		default:
			summary.Unmarked++
		}
	}

	summaries := make([]attendance.AthleteSummary, 0, len(byAthlete))
	for _, s := range byAthlete {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].AthleteName < summaries[j].AthleteName })
	return summaries, nil
}
