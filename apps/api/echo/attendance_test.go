package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/athlos-club/athlos/core/attendance"
	"github.com/athlos-club/athlos/core/branch"
	"github.com/athlos-club/athlos/core/user"
)

func Test_attendanceApi_daySheet(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "Monday: 18:00, Wednesday: 18:00")
	other := env.createBranch(t, "Uptown", "")

	_, athA := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	_, athB := env.createAthlete(t, "Bob", "bob@test.cd", b.ID, true)
	env.createAthlete(t, "Pending", "pending@test.cd", b.ID, false)

	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	otherCoach := env.createUser(t, "Other Coach", "other@test.cd", user.RoleCoach, other.ID, true)
	token := env.getToken(t, coach)

	const date = "2026-08-21"

	t.Run("athletes denied", func(t *testing.T) {
		athToken := env.getToken(t, env.createUser(t, "Ath", "a@test.cd", user.RoleAthlete, b.ID, true))
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/sheet?date="+date, athToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("bad date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/sheet?date=21-08-2026", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("seeds one unmarked row per approved athlete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/sheet?date="+date, token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var entries []attendance.Entry
		decodeBody(t, rec, &entries)
		if len(entries) != 2 {
			t.Fatalf("len(entries) = %d, want 2", len(entries))
		}
		// ordered by athlete name, all unmarked
		if entries[0].AthleteID != athA.ID || entries[1].AthleteID != athB.ID {
			t.Errorf("entries = %+v, want [%d %d]", entries, athA.ID, athB.ID)
		}
		for _, e := range entries {
			if e.Status.Valid {
				t.Errorf("entry %d: status = %v, want unmarked", e.AthleteID, e.Status)
			}
		}
	})

	t.Run("reconciliation keeps existing marks", func(t *testing.T) {
		mark := marchallObj(t, attendance.MarkAttendance{
			AthleteID:   athA.ID,
			SessionDate: date,
			Status:      attendance.StatusPresent,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/marks", token, mark)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}

		// roster grew; re-fetching the sheet seeds the new athlete only
		_, athC := env.createAthlete(t, "Carol", "carol@test.cd", b.ID, true)
		req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/sheet?date="+date, token)
		env.app.ServeHTTP(rec, req)
		var entries []attendance.Entry
		decodeBody(t, rec, &entries)
		if len(entries) != 3 {
			t.Fatalf("len(entries) = %d, want 3", len(entries))
		}
		for _, e := range entries {
			switch e.AthleteID {
			case athA.ID:
				if e.Status.String != attendance.StatusPresent {
					t.Errorf("athlete %d: status = %v, want present", e.AthleteID, e.Status)
				}
			case athB.ID, athC.ID:
				if e.Status.Valid {
					t.Errorf("athlete %d: status = %v, want unmarked", e.AthleteID, e.Status)
				}
			}
		}
	})

	t.Run("marking again overwrites", func(t *testing.T) {
		mark := marchallObj(t, attendance.MarkAttendance{
			AthleteID:   athA.ID,
			SessionDate: date,
			Status:      attendance.StatusAbsent,
			Notes:       "sick",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/marks", token, mark)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var rec2 attendance.Record
		decodeBody(t, rec, &rec2)
		if rec2.Status.String != attendance.StatusAbsent || rec2.Notes.String != "sick" {
			t.Errorf("record = %+v, want absent/sick", rec2)
		}
		if rec2.RecordedBy != coach.ID {
			t.Errorf("rec2.RecordedBy = %d, want %d", rec2.RecordedBy, coach.ID)
		}
	})

	t.Run("cross-branch mark denied", func(t *testing.T) {
		mark := marchallObj(t, attendance.MarkAttendance{
			AthleteID:   athA.ID,
			SessionDate: date,
			Status:      attendance.StatusPresent,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/marks", env.getToken(t, otherCoach), mark)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_attendanceApi_week(t *testing.T) {
	env := setup(t)
	const practiceDays = "Monday: 18:00-20:00, Wednesday: 18:00-20:00, Friday: 17:00-19:00"
	b := env.createBranch(t, "Downtown", practiceDays)
	noSchedule := env.createBranch(t, "Uptown", "")

	usr, ath := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	_, otherAth := env.createAthlete(t, "Other", "other@test.cd", noSchedule.ID, true)

	dates := branch.SessionDates(practiceDays, time.Now())
	if len(dates) != 3 {
		t.Fatalf("len(dates) = %d, want 3", len(dates))
	}

	// mark one session
	mark := marchallObj(t, attendance.MarkAttendance{
		AthleteID:   ath.ID,
		SessionDate: dates[0],
		Status:      attendance.StatusPresent,
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/marks", env.getToken(t, coach), mark)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
	}

	t.Run("athlete sees own week", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/athletes/"+itoa(ath.ID)+"/week", env.getToken(t, usr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var records []attendance.Record
		decodeBody(t, rec, &records)
		if len(records) != 1 || records[0].SessionDate != dates[0] {
			t.Errorf("records = %+v, want one on %s", records, dates[0])
		}
		if records[0].RecordedBy != coach.ID {
			t.Errorf("records[0].RecordedBy = %d, want %d", records[0].RecordedBy, coach.ID)
		}
	})

	t.Run("athlete cannot see another athlete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/athletes/"+itoa(otherAth.ID)+"/week", env.getToken(t, usr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("no schedule configured", func(t *testing.T) {
		head := env.createUser(t, "Head", "head@test.cd", user.RoleHeadCoach, 0, true)
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/athletes/"+itoa(otherAth.ID)+"/week", env.getToken(t, head))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_attendanceApi_monthSummary(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")
	_, ath := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	token := env.getToken(t, coach)

	marks := []attendance.MarkAttendance{
		{AthleteID: ath.ID, SessionDate: "2026-08-03", Status: attendance.StatusPresent},
		{AthleteID: ath.ID, SessionDate: "2026-08-05", Status: attendance.StatusPresent},
		{AthleteID: ath.ID, SessionDate: "2026-08-07", Status: attendance.StatusAbsent},
		{AthleteID: ath.ID, SessionDate: "2026-09-02", Status: attendance.StatusPresent}, // next month
	}
	for _, m := range marks {
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/marks", token, marchallObj(t, m))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	}

	t.Run("bad month", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/month/summary?month=08-2026", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("summary", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/month/summary?month=2026-08", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var summary []attendance.AthleteSummary
		decodeBody(t, rec, &summary)
		if len(summary) != 1 {
			t.Fatalf("len(summary) = %d, want 1", len(summary))
		}
		s := summary[0]
		if s.Present != 2 || s.Absent != 1 || s.Unmarked != 0 {
			t.Errorf("summary = %+v, want 2 present, 1 absent", s)
		}
	})
}
