package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/branch"
)

type branchRepository struct {
	db *DB
}

var _ branch.Repository = (*branchRepository)(nil) // interface compliance check

func NewBranchRepository(db *DB) *branchRepository {
	return &branchRepository{db: db}
}

func (repo *branchRepository) QueryBranches(_ context.Context, _ ...core.DBExecutor) ([]branch.Branch, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	branches := make([]branch.Branch, 0, len(repo.db.branches))
	for _, b := range repo.db.branches {
		branches = append(branches, b)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

func (repo *branchRepository) GetBranchByID(_ context.Context, id int, _ ...core.DBExecutor) (branch.Branch, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if b, ok := repo.db.branches[id]; ok {
		return b, nil
	}
	return branch.Branch{}, branch.ErrNotFound
}

func (repo *branchRepository) CreateBranch(_ context.Context, b branch.Branch, _ ...core.DBExecutor) (branch.Branch, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	b.ID = repo.db.nextID("branches")
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	repo.db.branches[b.ID] = b
	return b, nil
}

func (repo *branchRepository) UpdateBranch(_ context.Context, b branch.Branch, _ ...core.DBExecutor) (branch.Branch, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.branches[b.ID]
	if !ok {
		return branch.Branch{}, branch.ErrNotFound
	}
	b.CreatedAt = curr.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	repo.db.branches[b.ID] = b
	return b, nil
}

func (repo *branchRepository) DeleteBranch(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.branches, id)
	return nil
}
