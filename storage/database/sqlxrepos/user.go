package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/user"
)

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

type userRow struct {
	ID           int       `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	Role         string    `db:"role"`
	Approved     bool      `db:"approved"`
	BranchID     null.Int  `db:"branch_id"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Role:         r.Role,
		Approved:     r.Approved,
		BranchID:     r.BranchID.Int,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func users(rows []userRow) []user.User {
	usrs := make([]user.User, len(rows))
	for i, r := range rows {
		usrs[i] = r.user()
	}
	return usrs
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	return trapNoRowsErrAs(err, user.ErrNotFound, msg)
}

const userColumns = `id, name, email, phone, role, approved, branch_id, password_hash, created_at, updated_at, last_login`

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = ? AND id NOT IN (?))`
	excludedIDs := []int{0}
	for _, usr := range excludedUsers {
		excludedIDs = append(excludedIDs, usr.ID)
	}
	query, args, err := sqlx.In(query, email, excludedIDs)
	if err != nil {
		return errors.Wrap(err, "binding uniqueness query")
	}

	var exists bool
	if err = repo.exec.GetContext(ctx, &exists, repo.exec.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	exe := repo.getExec(exec)

	var row userRow
	err := exe.GetContext(ctx, &row, `
		INSERT INTO users (name, email, phone, role, approved, branch_id, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		usr.Name, usr.Email, usr.Phone, usr.Role, usr.Approved,
		null.NewInt(usr.BranchID, usr.BranchID != 0), usr.PasswordHash,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}

	if usr.Role == user.RoleAthlete {
		if _, err = exe.ExecContext(ctx, `INSERT INTO athletes (user_id) VALUES ($1)`, row.ID); err != nil {
			return user.User{}, errors.Wrap(err, "inserting athlete profile")
		}
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	err := repo.getExec(exec).GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, "finding user by ID")
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	err := repo.getExec(exec).GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, "finding user by email")
	}
	return row.user(), nil
}

func (repo userRepository) QueryPendingUsers(ctx context.Context, branchID int, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+userColumns+` FROM users
		WHERE role = $1 AND NOT approved AND ($2 = 0 OR branch_id = $2)
		ORDER BY created_at`,
		user.RoleAthlete, branchID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending users")
	}
	return users(rows), nil
}

func (repo userRepository) QueryCoaches(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY name`,
		user.RoleCoach,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying coaches")
	}
	return users(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		UPDATE users
		SET name = $2, email = $3, phone = $4, password_hash = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		usr.ID, usr.Name, usr.Email, usr.Phone, usr.PasswordHash,
	)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, "updating user")
	}
	return row.user(), nil
}

func (repo userRepository) SetUserApproved(ctx context.Context, id int, approved bool, exec ...core.DBExecutor) (user.User, error) {
	var row userRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		UPDATE users SET approved = $2, updated_at = now() WHERE id = $1
		RETURNING `+userColumns,
		id, approved,
	)
	if err != nil {
		return user.User{}, trapNoRowsErr(err, "updating user approval")
	}
	return row.user(), nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return errors.Wrap(err, "deleting user")
}

func (repo userRepository) SetActiveBranch(ctx context.Context, userID, branchID int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE users SET branch_id = $2, updated_at = now() WHERE id = $1`,
		userID, null.NewInt(branchID, branchID != 0),
	)
	return errors.Wrap(err, "setting active branch")
}

func (repo userRepository) UpdateLastLogin(ctx context.Context, id int, t time.Time, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, t)
	return errors.Wrap(err, "updating last login")
}

// assignments

func (repo userRepository) CreateAssignment(ctx context.Context, coachID, branchID, assignedBy int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO coach_assignments (coach_id, branch_id, assigned_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (coach_id, branch_id) DO NOTHING`,
		coachID, branchID, assignedBy,
	)
	return errors.Wrap(err, "inserting coach assignment")
}

func (repo userRepository) DeleteAssignment(ctx context.Context, coachID, branchID int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`DELETE FROM coach_assignments WHERE coach_id = $1 AND branch_id = $2`,
		coachID, branchID,
	)
	return errors.Wrap(err, "deleting coach assignment")
}

func (repo userRepository) QueryAssignments(ctx context.Context, coachID int, exec ...core.DBExecutor) ([]user.BranchAssignment, error) {
	var rows []struct {
		BranchID   int       `db:"branch_id"`
		BranchName string    `db:"branch_name"`
		AssignedBy null.Int  `db:"assigned_by"`
		AssignedAt time.Time `db:"assigned_at"`
	}
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT ca.branch_id, b.name AS branch_name, ca.assigned_by, ca.assigned_at
		FROM coach_assignments ca
		JOIN branches b ON b.id = ca.branch_id
		WHERE ca.coach_id = $1
		ORDER BY b.name`,
		coachID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying coach assignments")
	}

	assignments := make([]user.BranchAssignment, len(rows))
	for i, r := range rows {
		assignments[i] = user.BranchAssignment{
			BranchID:   r.BranchID,
			BranchName: r.BranchName,
			AssignedBy: r.AssignedBy.Int,
			AssignedAt: r.AssignedAt,
		}
	}
	return assignments, nil
}

func (repo userRepository) QueryAssignedBranchIDs(ctx context.Context, coachID int, exec ...core.DBExecutor) ([]int, error) {
	var ids []int
	err := repo.getExec(exec).SelectContext(ctx, &ids,
		`SELECT branch_id FROM coach_assignments WHERE coach_id = $1 ORDER BY branch_id`,
		coachID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying assigned branch IDs")
	}
	return ids, nil
}

func (repo userRepository) GetAssignmentStats(ctx context.Context, exec ...core.DBExecutor) (user.AssignmentStats, error) {
	var row struct {
		Total       int `db:"total"`
		Assigned    int `db:"assigned"`
		MultiBranch int `db:"multi_branch"`
	}
	err := repo.getExec(exec).GetContext(ctx, &row, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = $1) AS total,
			(SELECT COUNT(DISTINCT coach_id) FROM coach_assignments) AS assigned,
			(SELECT COUNT(*) FROM (
				SELECT coach_id FROM coach_assignments GROUP BY coach_id HAVING COUNT(*) > 1
			) multi) AS multi_branch`,
		user.RoleCoach,
	)
	if err != nil {
		return user.AssignmentStats{}, errors.Wrap(err, "querying assignment stats")
	}
	return user.AssignmentStats{
		TotalCoaches:       row.Total,
		AssignedCoaches:    row.Assigned,
		UnassignedCoaches:  row.Total - row.Assigned,
		MultiBranchCoaches: row.MultiBranch,
	}, nil
}

// password reset codes

func (repo userRepository) CreateResetCode(ctx context.Context, rc user.ResetCode, exec ...core.DBExecutor) (user.ResetCode, error) {
	err := repo.getExec(exec).GetContext(ctx, &rc.ID, `
		INSERT INTO password_reset_codes (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		rc.UserID, rc.Code, rc.ExpiresAt,
	)
	if err != nil {
		return user.ResetCode{}, errors.Wrap(err, "inserting reset code")
	}
	return rc, nil
}

func (repo userRepository) GetValidResetCode(ctx context.Context, userID int, code string, now time.Time, exec ...core.DBExecutor) (user.ResetCode, error) {
	var row struct {
		ID        int       `db:"id"`
		UserID    int       `db:"user_id"`
		Code      string    `db:"code"`
		Used      bool      `db:"used"`
		ExpiresAt time.Time `db:"expires_at"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := repo.getExec(exec).GetContext(ctx, &row, `
		SELECT id, user_id, code, used, expires_at, created_at
		FROM password_reset_codes
		WHERE user_id = $1 AND code = $2 AND NOT used AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1`,
		userID, code, now,
	)
	if err != nil {
		return user.ResetCode{}, trapNoRowsErr(err, "finding reset code")
	}
	return user.ResetCode(row), nil
}

func (repo userRepository) MarkResetCodeUsed(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `UPDATE password_reset_codes SET used = TRUE WHERE id = $1`, id)
	return errors.Wrap(err, "marking reset code used")
}

// invite links

type inviteRow struct {
	ID            int       `db:"id"`
	UserID        int       `db:"user_id"`
	Token         string    `db:"token"`
	Used          bool      `db:"used"`
	UsedAt        null.Time `db:"used_at"`
	InvalidatedAt null.Time `db:"invalidated_at"`
	ExpiresAt     time.Time `db:"expires_at"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r inviteRow) invite() user.Invite {
	return user.Invite{
		ID:            r.ID,
		UserID:        r.UserID,
		Token:         r.Token,
		Used:          r.Used,
		UsedAt:        r.UsedAt.Ptr(),
		InvalidatedAt: r.InvalidatedAt.Ptr(),
		ExpiresAt:     r.ExpiresAt,
		CreatedAt:     r.CreatedAt,
	}
}

const inviteColumns = `id, user_id, token, used, used_at, invalidated_at, expires_at, created_at`

func (repo userRepository) CreateInvite(ctx context.Context, inv user.Invite, exec ...core.DBExecutor) (user.Invite, error) {
	var row inviteRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		INSERT INTO invite_links (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING `+inviteColumns,
		inv.UserID, inv.Token, inv.ExpiresAt,
	)
	if err != nil {
		return user.Invite{}, errors.Wrap(err, "inserting invite")
	}
	return row.invite(), nil
}

func (repo userRepository) InvalidateInvites(ctx context.Context, userID int, now time.Time, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		UPDATE invite_links SET invalidated_at = $2
		WHERE user_id = $1 AND NOT used AND invalidated_at IS NULL`,
		userID, now,
	)
	return errors.Wrap(err, "invalidating invites")
}

func (repo userRepository) GetValidInvite(ctx context.Context, token string, now time.Time, exec ...core.DBExecutor) (user.Invite, error) {
	var row inviteRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		SELECT `+inviteColumns+` FROM invite_links
		WHERE token = $1 AND NOT used AND invalidated_at IS NULL AND expires_at > $2`,
		token, now,
	)
	if err != nil {
		return user.Invite{}, trapNoRowsErr(err, "finding invite")
	}
	return row.invite(), nil
}

func (repo userRepository) MarkInviteUsed(ctx context.Context, id int, now time.Time, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE invite_links SET used = TRUE, used_at = $2 WHERE id = $1`,
		id, now,
	)
	return errors.Wrap(err, "marking invite used")
}
