package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) *paymentRepository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) UpsertPayment(_ context.Context, p payment.Payment, _ ...core.DBExecutor) (payment.Payment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	now := time.Now().UTC()
	for id, curr := range repo.db.payments {
		if curr.AthleteID == p.AthleteID && curr.DueDate == p.DueDate {
			curr.Paid = p.Paid
			curr.Amount = p.Amount
			curr.ConfirmedBy = p.ConfirmedBy
			curr.BranchID = p.BranchID
			curr.UpdatedAt = now
			repo.db.payments[id] = curr
			return curr, nil
		}
	}
	p.ID = repo.db.nextID("payments")
	p.CreatedAt, p.UpdatedAt = now, now
	repo.db.payments[p.ID] = p
	return p, nil
}

func (repo *paymentRepository) QueryAthletePayments(_ context.Context, athleteID int, _ ...core.DBExecutor) ([]payment.Payment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var payments []payment.Payment
	for _, p := range repo.db.payments {
		if p.AthleteID == athleteID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].DueDate > payments[j].DueDate })
	return payments, nil
}

func (repo *paymentRepository) QueryBranchStatus(_ context.Context, branchID int, _ ...core.DBExecutor) ([]payment.AthleteStatus, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	// due dates the branch has payments for
	dueDates := make(map[string]bool)
	for _, p := range repo.db.payments {
		if p.BranchID == branchID {
			dueDates[p.DueDate] = true
		}
	}

	// approved roster
	type rosterAthlete struct {
		id   int
		name string
	}
	var roster []rosterAthlete
	for athID, userID := range repo.db.athletes {
		if usr, ok := repo.db.users[userID]; ok && usr.BranchID == branchID && usr.Approved {
			roster = append(roster, rosterAthlete{id: athID, name: usr.Name})
		}
	}

	var statuses []payment.AthleteStatus
	for due := range dueDates {
		for _, ath := range roster {
			status := payment.AthleteStatus{AthleteID: ath.id, AthleteName: ath.name, DueDate: due}
			for _, p := range repo.db.payments {
				if p.AthleteID == ath.id && p.DueDate == due {
					status.Paid = p.Paid
					status.Amount = p.Amount
					break
				}
			}
			statuses = append(statuses, status)
		}
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].DueDate != statuses[j].DueDate {
			return statuses[i].DueDate > statuses[j].DueDate
		}
		return statuses[i].AthleteName < statuses[j].AthleteName
	})
	return statuses, nil
}
