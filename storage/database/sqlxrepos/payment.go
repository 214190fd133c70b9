package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/payment"
)

type paymentRepository struct {
	exec core.DBExecutor
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(exec core.DBExecutor) *paymentRepository {
	return &paymentRepository{exec: exec}
}

func (repo paymentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

type paymentRow struct {
	ID          int          `db:"id"`
	AthleteID   int          `db:"athlete_id"`
	BranchID    int          `db:"branch_id"`
	DueDate     time.Time    `db:"due_date"`
	Paid        bool         `db:"paid"`
	Amount      null.Float64 `db:"amount"`
	ConfirmedBy null.Int     `db:"confirmed_by"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

func (r paymentRow) payment() payment.Payment {
	return payment.Payment{
		ID:          r.ID,
		AthleteID:   r.AthleteID,
		BranchID:    r.BranchID,
		DueDate:     r.DueDate.Format("2006-01-02"),
		Paid:        r.Paid,
		Amount:      r.Amount,
		ConfirmedBy: r.ConfirmedBy.Int,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const paymentColumns = `id, athlete_id, branch_id, due_date, paid, amount, confirmed_by, created_at, updated_at`

func (repo paymentRepository) UpsertPayment(ctx context.Context, p payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	var row paymentRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		INSERT INTO payments (athlete_id, branch_id, due_date, paid, amount, confirmed_by)
		VALUES ($1, $2, $3::date, $4, $5, $6)
		ON CONFLICT (athlete_id, due_date)
		DO UPDATE SET paid = EXCLUDED.paid, amount = EXCLUDED.amount,
		              confirmed_by = EXCLUDED.confirmed_by, branch_id = EXCLUDED.branch_id,
		              updated_at = now()
		RETURNING `+paymentColumns,
		p.AthleteID, p.BranchID, p.DueDate, p.Paid, p.Amount,
		null.NewInt(p.ConfirmedBy, p.ConfirmedBy != 0),
	)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "upserting payment")
	}
	return row.payment(), nil
}

func (repo paymentRepository) QueryAthletePayments(ctx context.Context, athleteID int, exec ...core.DBExecutor) ([]payment.Payment, error) {
	var rows []paymentRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+paymentColumns+` FROM payments
		WHERE athlete_id = $1 ORDER BY due_date DESC`,
		athleteID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying athlete payments")
	}
	payments := make([]payment.Payment, len(rows))
	for i, r := range rows {
		payments[i] = r.payment()
	}
	return payments, nil
}

func (repo paymentRepository) QueryBranchStatus(ctx context.Context, branchID int, exec ...core.DBExecutor) ([]payment.AthleteStatus, error) {
	// grid: every approved roster athlete against every due date the branch
	// has a payment for; missing cells read as unpaid
	var rows []struct {
		AthleteID   int          `db:"athlete_id"`
		AthleteName string       `db:"athlete_name"`
		DueDate     time.Time    `db:"due_date"`
		Paid        bool         `db:"paid"`
		Amount      null.Float64 `db:"amount"`
	}
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT a.id AS athlete_id, u.name AS athlete_name, d.due_date,
		       COALESCE(p.paid, FALSE) AS paid, p.amount
		FROM athletes a
		JOIN users u ON u.id = a.user_id
		CROSS JOIN (SELECT DISTINCT due_date FROM payments WHERE branch_id = $1) d
		LEFT JOIN payments p ON p.athlete_id = a.id AND p.due_date = d.due_date
		WHERE u.branch_id = $1 AND u.approved
		ORDER BY d.due_date DESC, u.name`,
		branchID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying branch payment status")
	}

	statuses := make([]payment.AthleteStatus, len(rows))
	for i, r := range rows {
		statuses[i] = payment.AthleteStatus{
			AthleteID:   r.AthleteID,
			AthleteName: r.AthleteName,
			DueDate:     r.DueDate.Format("2006-01-02"),
			Paid:        r.Paid,
			Amount:      r.Amount,
		}
	}
	return statuses, nil
}
