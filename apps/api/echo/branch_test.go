package echoapi

import (
	"net/http"
	"testing"

	"github.com/athlos-club/athlos/core/branch"
	"github.com/athlos-club/athlos/core/user"
)

func Test_branchApi_queryPublic(t *testing.T) {
	env := setup(t)
	b1 := env.createBranch(t, "Downtown", "Monday: 18:00")
	b2 := env.createBranch(t, "Uptown", "")

	// no token; only id and name are exposed
	req, rec := newRequest(http.MethodGet, "/v1/branches/public")
	env.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, []branch.PublicBranch{
			{ID: b1.ID, Name: b1.Name},
			{ID: b2.ID, Name: b2.Name},
		}),
	}, rec)
}

func Test_branchApi_crud(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")

	athUsr, _ := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	head := env.createUser(t, "Head", "head@test.cd", user.RoleHeadCoach, 0, true)
	athToken := env.getToken(t, athUsr)
	coachToken := env.getToken(t, coach)
	headToken := env.getToken(t, head)

	newBranch := marchallObj(t, branch.NewBranch{
		Name:         "Riverside",
		Address:      "12 Quay Street",
		PracticeDays: "Tuesday: 17:00-19:00",
	})

	t.Run("staff listing denied to athletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/branches", athToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("create denied to coaches", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/branches", coachToken, newBranch)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("create validates", func(t *testing.T) {
		body := marchallObj(t, branch.NewBranch{Name: "R"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/branches", headToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	var created branch.Branch
	t.Run("head coach creates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/branches", headToken, newBranch)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		decodeBody(t, rec, &created)
		if created.Name != "Riverside" {
			t.Errorf("name = %q, want Riverside", created.Name)
		}
	})

	t.Run("athlete sees own branch only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/branches/"+itoa(b.ID), athToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/branches/"+itoa(created.ID), athToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("head coach updates", func(t *testing.T) {
		body := marchallObj(t, branch.UpdateBranch{
			Name:         "Riverside East",
			PracticeDays: "Tuesday: 17:00-19:00, Thursday: 17:00-19:00",
		})
		req, rec := newAuthRequest(http.MethodPut, "/v1/branches/"+itoa(created.ID), headToken, body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var updated branch.Branch
		decodeBody(t, rec, &updated)
		if updated.Name != "Riverside East" {
			t.Errorf("name = %q, want Riverside East", updated.Name)
		}
	})

	t.Run("head coach deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/branches/"+itoa(created.ID), headToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/branches/"+itoa(created.ID), headToken)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_branchApi_sessionDates(t *testing.T) {
	env := setup(t)
	scheduled := env.createBranch(t, "Downtown", "Monday: 18:00, Wednesday: 18:00, Friday: 17:00")
	unscheduled := env.createBranch(t, "Uptown", "")

	head := env.createUser(t, "Head", "head@test.cd", user.RoleHeadCoach, 0, true)
	token := env.getToken(t, head)

	t.Run("ok", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/branches/"+itoa(scheduled.ID)+"/session-dates", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res SessionDatesResponse
		decodeBody(t, rec, &res)
		if len(res.Dates) != 3 {
			t.Errorf("len(dates) = %d, want 3", len(res.Dates))
		}
	})

	t.Run("own branch shortcut", func(t *testing.T) {
		usr, _ := env.createAthlete(t, "Alice", "alice@test.cd", scheduled.ID, true)
		req, rec := newAuthRequest(http.MethodGet, "/v1/branches/me/session-dates", env.getToken(t, usr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var res SessionDatesResponse
		decodeBody(t, rec, &res)
		if len(res.Dates) != 3 {
			t.Errorf("len(dates) = %d, want 3", len(res.Dates))
		}
	})

	t.Run("no schedule", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/branches/"+itoa(unscheduled.ID)+"/session-dates", token)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}
