package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/branch"
)

type branchRepository struct {
	exec core.DBExecutor
}

var _ branch.Repository = (*branchRepository)(nil) // interface compliance check

func NewBranchRepository(exec core.DBExecutor) *branchRepository {
	return &branchRepository{exec: exec}
}

func (repo branchRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

type branchRow struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Address      string    `db:"address"`
	Phone        string    `db:"phone"`
	VideoURL     string    `db:"video_url"`
	PracticeDays string    `db:"practice_days"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r branchRow) branch() branch.Branch {
	return branch.Branch(r)
}

const branchColumns = `id, name, address, phone, video_url, practice_days, created_at, updated_at`

func (repo branchRepository) QueryBranches(ctx context.Context, exec ...core.DBExecutor) ([]branch.Branch, error) {
	var rows []branchRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `SELECT `+branchColumns+` FROM branches ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying branches")
	}
	branches := make([]branch.Branch, len(rows))
	for i, r := range rows {
		branches[i] = r.branch()
	}
	return branches, nil
}

func (repo branchRepository) GetBranchByID(ctx context.Context, id int, exec ...core.DBExecutor) (branch.Branch, error) {
	var row branchRow
	err := repo.getExec(exec).GetContext(ctx, &row, `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id)
	if err != nil {
		return branch.Branch{}, trapNoRowsErrAs(err, branch.ErrNotFound, "finding branch by ID")
	}
	return row.branch(), nil
}

func (repo branchRepository) CreateBranch(ctx context.Context, b branch.Branch, exec ...core.DBExecutor) (branch.Branch, error) {
	var row branchRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		INSERT INTO branches (name, address, phone, video_url, practice_days)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+branchColumns,
		b.Name, b.Address, b.Phone, b.VideoURL, b.PracticeDays,
	)
	if err != nil {
		return branch.Branch{}, errors.Wrap(err, "inserting branch")
	}
	return row.branch(), nil
}

func (repo branchRepository) UpdateBranch(ctx context.Context, b branch.Branch, exec ...core.DBExecutor) (branch.Branch, error) {
	var row branchRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		UPDATE branches
		SET name = $2, address = $3, phone = $4, video_url = $5, practice_days = $6, updated_at = now()
		WHERE id = $1
		RETURNING `+branchColumns,
		b.ID, b.Name, b.Address, b.Phone, b.VideoURL, b.PracticeDays,
	)
	if err != nil {
		return branch.Branch{}, trapNoRowsErrAs(err, branch.ErrNotFound, "updating branch")
	}
	return row.branch(), nil
}

func (repo branchRepository) DeleteBranch(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM branches WHERE id = $1`, id)
	return errors.Wrap(err, "deleting branch")
}
