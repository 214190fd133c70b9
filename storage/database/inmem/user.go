package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email != email {
			continue
		}
		excluded := false
		for _, excl := range excludedUsers {
			if excl.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = repo.db.nextID("users")
	now := time.Now().UTC()
	usr.CreatedAt, usr.UpdatedAt = now, now
	repo.db.users[usr.ID] = usr

	if usr.Role == user.RoleAthlete {
		repo.db.athletes[repo.db.nextID("athletes")] = usr.ID
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryPendingUsers(_ context.Context, branchID int, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var users []user.User
	for _, usr := range repo.db.users {
		if usr.Role == user.RoleAthlete && !usr.Approved && (branchID == 0 || usr.BranchID == branchID) {
			users = append(users, usr)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (repo *userRepository) QueryCoaches(_ context.Context, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var users []user.User
	for _, usr := range repo.db.users {
		if usr.Role == user.RoleCoach {
			users = append(users, usr)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	curr, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	curr.Name = usr.Name
	curr.Email = usr.Email
	curr.Phone = usr.Phone
	curr.PasswordHash = usr.PasswordHash
	curr.UpdatedAt = time.Now().UTC()
	repo.db.users[curr.ID] = curr
	return curr, nil
}

func (repo *userRepository) SetUserApproved(_ context.Context, id int, approved bool, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.Approved = approved
	usr.UpdatedAt = time.Now().UTC()
	repo.db.users[id] = usr
	return usr, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	delete(repo.db.users, id)
	for athID, userID := range repo.db.athletes {
		if userID == id {
			delete(repo.db.athletes, athID)
		}
	}
	return nil
}

func (repo *userRepository) SetActiveBranch(_ context.Context, userID, branchID int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	usr.BranchID = branchID
	usr.UpdatedAt = time.Now().UTC()
	repo.db.users[userID] = usr
	return nil
}

func (repo *userRepository) UpdateLastLogin(_ context.Context, id int, t time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.LastLogin = t
	repo.db.users[id] = usr
	return nil
}

// assignments

func (repo *userRepository) CreateAssignment(_ context.Context, coachID, branchID, assignedBy int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, row := range repo.db.assignments {
		if row.coachID == coachID && row.assignment.BranchID == branchID {
			return nil // idempotent
		}
	}
	var branchName string
	if b, ok := repo.db.branches[branchID]; ok {
		branchName = b.Name
	}
	repo.db.assignments = append(repo.db.assignments, assignmentRow{
		coachID: coachID,
		assignment: user.BranchAssignment{
			BranchID:   branchID,
			BranchName: branchName,
			AssignedBy: assignedBy,
			AssignedAt: time.Now().UTC(),
		},
	})
	return nil
}

func (repo *userRepository) DeleteAssignment(_ context.Context, coachID, branchID int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rows := repo.db.assignments[:0]
	for _, row := range repo.db.assignments {
		if !(row.coachID == coachID && row.assignment.BranchID == branchID) {
			rows = append(rows, row)
		}
	}
	repo.db.assignments = rows
	return nil
}

func (repo *userRepository) QueryAssignments(_ context.Context, coachID int, _ ...core.DBExecutor) ([]user.BranchAssignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var assignments []user.BranchAssignment
	for _, row := range repo.db.assignments {
		if row.coachID == coachID {
			assignments = append(assignments, row.assignment)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].BranchName < assignments[j].BranchName })
	return assignments, nil
}

func (repo *userRepository) QueryAssignedBranchIDs(_ context.Context, coachID int, _ ...core.DBExecutor) ([]int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var ids []int
	for _, row := range repo.db.assignments {
		if row.coachID == coachID {
			ids = append(ids, row.assignment.BranchID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (repo *userRepository) GetAssignmentStats(_ context.Context, _ ...core.DBExecutor) (user.AssignmentStats, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var stats user.AssignmentStats
	for _, usr := range repo.db.users {
		if usr.Role == user.RoleCoach {
			stats.TotalCoaches++
		}
	}
	counts := make(map[int]int)
	for _, row := range repo.db.assignments {
		counts[row.coachID]++
	}
	stats.AssignedCoaches = len(counts)
	stats.UnassignedCoaches = stats.TotalCoaches - stats.AssignedCoaches
	for _, n := range counts {
		if n > 1 {
			stats.MultiBranchCoaches++
		}
	}
	return stats, nil
}

// password reset codes

func (repo *userRepository) CreateResetCode(_ context.Context, rc user.ResetCode, _ ...core.DBExecutor) (user.ResetCode, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rc.ID = repo.db.nextID("reset_codes")
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = time.Now().UTC()
	}
	repo.db.resetCodes[rc.ID] = rc
	return rc, nil
}

func (repo *userRepository) GetValidResetCode(_ context.Context, userID int, code string, now time.Time, _ ...core.DBExecutor) (user.ResetCode, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var latest user.ResetCode
	for _, rc := range repo.db.resetCodes {
		if rc.UserID == userID && rc.Code == code && !rc.Used && rc.ExpiresAt.After(now) {
			if latest.ID == 0 || rc.CreatedAt.After(latest.CreatedAt) {
				latest = rc
			}
		}
	}
	if latest.ID == 0 {
		return user.ResetCode{}, user.ErrNotFound
	}
	return latest, nil
}

func (repo *userRepository) MarkResetCodeUsed(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rc, ok := repo.db.resetCodes[id]
	if !ok {
		return user.ErrNotFound
	}
	rc.Used = true
	repo.db.resetCodes[id] = rc
	return nil
}

// invite links

func (repo *userRepository) CreateInvite(_ context.Context, inv user.Invite, _ ...core.DBExecutor) (user.Invite, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	inv.ID = repo.db.nextID("invites")
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	repo.db.invites[inv.ID] = inv
	return inv, nil
}

func (repo *userRepository) InvalidateInvites(_ context.Context, userID int, now time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, inv := range repo.db.invites {
		if inv.UserID == userID && !inv.Used && inv.InvalidatedAt == nil {
			t := now
			inv.InvalidatedAt = &t
			repo.db.invites[id] = inv
		}
	}
	return nil
}

func (repo *userRepository) GetValidInvite(_ context.Context, token string, now time.Time, _ ...core.DBExecutor) (user.Invite, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, inv := range repo.db.invites {
		if inv.Token == token && !inv.Used && inv.InvalidatedAt == nil && inv.ExpiresAt.After(now) {
			return inv, nil
		}
	}
	return user.Invite{}, user.ErrNotFound
}

func (repo *userRepository) MarkInviteUsed(_ context.Context, id int, now time.Time, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	inv, ok := repo.db.invites[id]
	if !ok {
		return user.ErrNotFound
	}
	inv.Used = true
	t := now
	inv.UsedAt = &t
	repo.db.invites[id] = inv
	return nil
}
