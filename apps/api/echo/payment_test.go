package echoapi

import (
	"net/http"
	"testing"

	"github.com/athlos-club/athlos/core/payment"
	"github.com/athlos-club/athlos/core/user"
)

func Test_paymentApi_mark(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")
	other := env.createBranch(t, "Uptown", "")

	athUsr, ath := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	otherCoach := env.createUser(t, "Other Coach", "other@test.cd", user.RoleCoach, other.ID, true)
	coachToken := env.getToken(t, coach)

	amount := 50.0
	mark := marchallObj(t, payment.MarkPayment{
		AthleteID:   ath.ID,
		SessionDate: "2026-08-21",
		Paid:        true,
		Amount:      &amount,
	})

	t.Run("athletes denied", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/payments", env.getToken(t, athUsr), mark)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("cross-branch coach denied", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/payments", env.getToken(t, otherCoach), mark)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("due date normalized to first of month", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/payments", coachToken, mark)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var p payment.Payment
		decodeBody(t, rec, &p)
		if p.DueDate != "2026-08-01" {
			t.Errorf("due_date = %s, want 2026-08-01", p.DueDate)
		}
		if !p.Paid || p.Amount.Float64 != amount || p.ConfirmedBy != coach.ID {
			t.Errorf("payment = %+v, want paid %v confirmed by %d", p, amount, coach.ID)
		}
	})

	t.Run("marking again overwrites the month", func(t *testing.T) {
		remark := marchallObj(t, payment.MarkPayment{
			AthleteID:   ath.ID,
			SessionDate: "2026-08-05", // same month, different session
			Paid:        false,
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/payments", coachToken, remark)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var p payment.Payment
		decodeBody(t, rec, &p)
		if p.Paid || p.Amount.Valid {
			t.Errorf("payment = %+v, want unpaid with no amount", p)
		}

		// still a single record for the month
		req, rec = newAuthRequest(http.MethodGet, "/v1/payments/athletes/"+itoa(ath.ID), coachToken)
		env.app.ServeHTTP(rec, req)
		var payments []payment.Payment
		decodeBody(t, rec, &payments)
		if len(payments) != 1 {
			t.Errorf("len(payments) = %d, want 1", len(payments))
		}
	})
}

func Test_paymentApi_forAthlete(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")

	athUsr, ath := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	otherUsr, _ := env.createAthlete(t, "Bob", "bob@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)

	for _, date := range []string{"2026-07-10", "2026-08-10"} {
		body := marchallObj(t, payment.MarkPayment{AthleteID: ath.ID, SessionDate: date, Paid: true})
		req, rec := newAuthRequest(http.MethodPost, "/v1/payments", env.getToken(t, coach), body)
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	}

	t.Run("athlete sees own history newest first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/payments/athletes/"+itoa(ath.ID), env.getToken(t, athUsr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var payments []payment.Payment
		decodeBody(t, rec, &payments)
		if len(payments) != 2 {
			t.Fatalf("len(payments) = %d, want 2", len(payments))
		}
		if payments[0].DueDate != "2026-08-01" || payments[1].DueDate != "2026-07-01" {
			t.Errorf("payments = %+v, want newest first", payments)
		}
	})

	t.Run("athlete cannot see another athlete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/payments/athletes/"+itoa(ath.ID), env.getToken(t, otherUsr))
		env.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_paymentApi_branchStatus(t *testing.T) {
	env := setup(t)
	b := env.createBranch(t, "Downtown", "")

	_, athA := env.createAthlete(t, "Alice", "alice@test.cd", b.ID, true)
	env.createAthlete(t, "Bob", "bob@test.cd", b.ID, true)
	coach := env.createUser(t, "Coach", "coach@test.cd", user.RoleCoach, b.ID, true)
	token := env.getToken(t, coach)

	body := marchallObj(t, payment.MarkPayment{AthleteID: athA.ID, SessionDate: "2026-08-21", Paid: true})
	req, rec := newAuthRequest(http.MethodPost, "/v1/payments", token, body)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
	}

	// every roster athlete appears for the due date; unmarked ones unpaid
	req, rec = newAuthRequest(http.MethodGet, "/v1/payments/status", token)
	env.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; body = %s", rec.Code, rec.Body.String())
	}
	var status []payment.AthleteStatus
	decodeBody(t, rec, &status)
	if len(status) != 2 {
		t.Fatalf("len(status) = %d, want 2", len(status))
	}
	for _, row := range status {
		if row.DueDate != "2026-08-01" {
			t.Errorf("due_date = %s, want 2026-08-01", row.DueDate)
		}
		if paid := row.AthleteID == athA.ID; row.Paid != paid {
			t.Errorf("athlete %d: paid = %v, want %v", row.AthleteID, row.Paid, paid)
		}
	}
}
