package echoapi

import (
	"net/http"
	"testing"

	"github.com/athlos-club/athlos/core/athlete"
	"github.com/athlos-club/athlos/core/user"
)

func measurementsPath(athleteID int) string {
	return "/v1/athletes/" + itoa(athleteID) + "/measurements"
}

func performancesPath(athleteID int) string {
	return "/v1/athletes/" + itoa(athleteID) + "/performances"
}

func Test_athleteApi_roster(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")
	other := env.createBranch(t, "Uptown", "")

	athUsr, ath := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	env.createAthlete(t, "Pending", "pending@test.cd", b.ID, false)
	env.createAthlete(t, "Elsewhere", "else@test.cd", other.ID, true)
	head := env.createUser(t, "Head", "head@test.cd", user.RoleHeadCoach, 0, true)

	t.Run("defaults to own branch, approved only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/athletes", env.getToken(t, athUsr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var roster []athlete.Athlete
		decodeBody(t, rec, &roster)
		if len(roster) != 1 || roster[0].ID != ath.ID {
			t.Errorf("roster = %+v, want only %d", roster, ath.ID)
		}
	})

	t.Run("cross-branch roster denied", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/athletes?branch_id="+itoa(other.ID), env.getToken(t, athUsr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("head coach picks a branch", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/athletes?branch_id="+itoa(other.ID), env.getToken(t, head))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var roster []athlete.Athlete
		decodeBody(t, rec, &roster)
		if len(roster) != 1 || roster[0].Name != "Elsewhere" {
			t.Errorf("roster = %+v, want only the other branch's athlete", roster)
		}
	})

	t.Run("me", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/athletes/me", env.getToken(t, athUsr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var me athlete.Athlete
		decodeBody(t, rec, &me)
		if me.ID != ath.ID || me.UserID != athUsr.ID {
			t.Errorf("me = %+v, want athlete %d", me, ath.ID)
		}
	})
}

func Test_athleteApi_measurements(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")

	athUsr, ath := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	otherUsr, _ := env.createAthlete(t, "Bob", "bob@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	athToken := env.getToken(t, athUsr)

	t.Run("empty snapshot rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, measurementsPath(ath.ID), athToken, marchallObj(t, athlete.NewMeasurement{}))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("athlete logs own snapshot", func(t *testing.T) {
		height, weight := 172.5, 64.0
		body := marchallObj(t, athlete.NewMeasurement{HeightCm: &height, WeightKg: &weight})
		req, rec := newAuthRequest(http.MethodPost, measurementsPath(ath.ID), athToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var ml athlete.MeasurementLog
		decodeBody(t, rec, &ml)
		if ml.HeightCm.Float64 != height || ml.WeightKg.Float64 != weight || ml.ArmCm.Valid {
			t.Errorf("log = %+v, want height/weight only", ml)
		}
	})

	t.Run("coach reads history", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, measurementsPath(ath.ID), env.getToken(t, coach))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var logs []athlete.MeasurementLog
		decodeBody(t, rec, &logs)
		if len(logs) != 1 {
			t.Errorf("len(logs) = %d, want 1", len(logs))
		}
	})

	t.Run("another athlete denied", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, measurementsPath(ath.ID), env.getToken(t, otherUsr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_athleteApi_performances(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")

	athUsr, ath := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	athToken := env.getToken(t, athUsr)

	replace := func(t *testing.T, entries []athlete.NewPerformance) []athlete.PerformanceLog {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPut, performancesPath(ath.ID), athToken, marchallObj(t, entries))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var logs []athlete.PerformanceLog
		decodeBody(t, rec, &logs)
		return logs
	}

	logs := replace(t, []athlete.NewPerformance{
		{MeetName: "City Open", MeetDate: "2026-06-14", EventName: "100m Free", ResultTime: "1:02.45"},
		{MeetName: "City Open", MeetDate: "2026-06-14", EventName: "50m Free", ResultTime: "28.93"},
	})
	if len(logs) != 2 {
		t.Fatalf("len(logs) = %d, want 2", len(logs))
	}

	// a replace is total: the history becomes exactly the submitted entries
	logs = replace(t, []athlete.NewPerformance{
		{MeetName: "Regional Champs", MeetDate: "2026-07-20", EventName: "100m Free", ResultTime: "1:01.80"},
	})
	if len(logs) != 1 || logs[0].MeetName != "Regional Champs" {
		t.Fatalf("logs = %+v, want only the new entry", logs)
	}

	req, rec := newAuthRequest(http.MethodGet, performancesPath(ath.ID), athToken)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var fetched []athlete.PerformanceLog
	decodeBody(t, rec, &fetched)
	if len(fetched) != 1 || fetched[0].ResultTime != "1:01.80" {
		t.Errorf("fetched = %+v, want the replaced history", fetched)
	}

	t.Run("invalid entry rejected", func(t *testing.T) {
		body := marchallObj(t, []athlete.NewPerformance{
			{MeetName: "City Open", MeetDate: "14/06/2026", EventName: "100m Free", ResultTime: "1:02.45"},
		})
		req, rec := newAuthRequest(http.MethodPut, performancesPath(ath.ID), athToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}
