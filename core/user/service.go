package user

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core"
)

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = core.NewNotFoundError("user not found")

	// ErrEmailExists is returned on registration with a taken email address.
	ErrEmailExists = fieldErr("email", "a user with this email already exists")

	// ErrInvalidResetCode is returned when a password-reset code is unknown,
	// expired or already used.
	ErrInvalidResetCode = fieldErr("code", "invalid or expired reset code")

	// ErrInviteInvalid is returned when an invite token is unknown, expired,
	// invalidated or already used.
	ErrInviteInvalid = fieldErr("invite_token", "invalid or expired invite link")

	// ErrNotACoach is returned when an assignment operation targets a user
	// that is not a coach.
	ErrNotACoach = fieldErr("coach_id", "user is not a coach")
)

func fieldErr(field, msg string) error {
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: field, Error: msg})
}

type Repository interface {
	CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
	// CreateUser persists a new user; for athlete accounts it also creates the
	// athlete profile row in the same transaction.
	CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (User, error)
	GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (User, error)
	// QueryPendingUsers returns unapproved athletes; branchID 0 means all branches.
	QueryPendingUsers(ctx context.Context, branchID int, exec ...core.DBExecutor) ([]User, error)
	QueryCoaches(ctx context.Context, exec ...core.DBExecutor) ([]User, error)
	UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	SetUserApproved(ctx context.Context, id int, approved bool, exec ...core.DBExecutor) (User, error)
	DeleteUser(ctx context.Context, id int, exec ...core.DBExecutor) error
	SetActiveBranch(ctx context.Context, userID, branchID int, exec ...core.DBExecutor) error
	UpdateLastLogin(ctx context.Context, id int, t time.Time, exec ...core.DBExecutor) error

	CreateAssignment(ctx context.Context, coachID, branchID, assignedBy int, exec ...core.DBExecutor) error
	DeleteAssignment(ctx context.Context, coachID, branchID int, exec ...core.DBExecutor) error
	QueryAssignments(ctx context.Context, coachID int, exec ...core.DBExecutor) ([]BranchAssignment, error)
	QueryAssignedBranchIDs(ctx context.Context, coachID int, exec ...core.DBExecutor) ([]int, error)
	GetAssignmentStats(ctx context.Context, exec ...core.DBExecutor) (AssignmentStats, error)

	CreateResetCode(ctx context.Context, code ResetCode, exec ...core.DBExecutor) (ResetCode, error)
	GetValidResetCode(ctx context.Context, userID int, code string, now time.Time, exec ...core.DBExecutor) (ResetCode, error)
	MarkResetCodeUsed(ctx context.Context, id int, exec ...core.DBExecutor) error

	CreateInvite(ctx context.Context, inv Invite, exec ...core.DBExecutor) (Invite, error)
	// InvalidateInvites soft-deletes all unused invites of the user.
	InvalidateInvites(ctx context.Context, userID int, now time.Time, exec ...core.DBExecutor) error
	GetValidInvite(ctx context.Context, token string, now time.Time, exec ...core.DBExecutor) (Invite, error)
	MarkInviteUsed(ctx context.Context, id int, now time.Time, exec ...core.DBExecutor) error
}

type Service struct {
	repo    Repository
	tx      core.Transactor
	mailSvc core.EmailService
	conf    *core.Config
}

func NewService(repo Repository, tx core.Transactor, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		tx:      tx,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *Service) CheckEmailUniqueness(email string, exclUsers ...User) error {
	return svc.repo.CheckEmailUniqueness(context.Background(), email, exclUsers...)
}

// RegisterAthlete creates a new unapproved athlete account bound to a branch.
func (svc *Service) RegisterAthlete(ctx context.Context, na NewAthlete) (User, error) {
	usr := User{
		Name:     na.Name,
		Email:    na.Email,
		Phone:    na.Phone,
		Role:     RoleAthlete,
		BranchID: na.BranchID,
	}
	if err := usr.SetPassword(na.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// CreateStaff creates an approved coach or head-coach account.
func (svc *Service) CreateStaff(ctx context.Context, ns NewStaff) (User, error) {
	usr := User{
		Name:     ns.Name,
		Email:    ns.Email,
		Phone:    ns.Phone,
		Role:     ns.Role,
		Approved: true,
		BranchID: ns.BranchID,
	}
	if err := usr.SetPassword(ns.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, email)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) error {
	return svc.repo.UpdateLastLogin(ctx, usr.ID, time.Now().UTC())
}

// PendingRegistrations lists unapproved athletes; branchID 0 means all branches.
func (svc *Service) PendingRegistrations(ctx context.Context, branchID int) ([]User, error) {
	return svc.repo.QueryPendingUsers(ctx, branchID)
}

// Approve marks an athlete registration approved and notifies the athlete.
func (svc *Service) Approve(ctx context.Context, id int) (User, error) {
	usr, err := svc.repo.SetUserApproved(ctx, id, true)
	if err != nil {
		return User{}, err
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("Welcome to %s!", svc.conf.AppName),
		Body:    fmt.Sprintf("Hi %s,\n\nYour registration has been approved. You can now log in.", usr.Name),
	})
	return usr, nil
}

// Reject deletes an unapproved registration.
func (svc *Service) Reject(ctx context.Context, id int) error {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if usr.Approved {
		return fieldErr("user_id", "cannot reject an approved account")
	}
	return svc.repo.DeleteUser(ctx, id)
}

func (svc *Service) UpdateProfile(ctx context.Context, usr User, up UpdateProfile) (User, error) {
	usr.Name = up.Name
	usr.Email = up.Email
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) ChangePassword(ctx context.Context, usr User, cp ChangePassword) error {
	if err := usr.CheckPassword(cp.OldPassword); err != nil {
		return fieldErr("old_password", "old password is incorrect")
	}
	if err := usr.SetPassword(cp.NewPassword); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	_, err := svc.repo.UpdateUser(ctx, usr)
	return err
}

// RequestPasswordReset emails a short-lived numeric reset code to the user.
// Unknown emails are not an error: the caller must respond the same either way.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return err
	}

	code, err := generateResetCode()
	if err != nil {
		return errors.Wrap(err, "generating reset code")
	}
	now := time.Now().UTC()
	rc := ResetCode{
		UserID:    usr.ID,
		Code:      code,
		ExpiresAt: now.Add(svc.conf.Server.PasswordResetTimeout),
		CreatedAt: now,
	}
	if _, err = svc.repo.CreateResetCode(ctx, rc); err != nil {
		return err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject: fmt.Sprintf("%s - Password Reset Code", svc.conf.AppName),
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour password reset code is: %s\n\nIt expires in %d minutes. If you did not request this, you can ignore this email.",
			usr.Name, code, int(svc.conf.Server.PasswordResetTimeout.Minutes()),
		),
	})
	return nil
}

// CheckResetCode verifies that a reset code is valid for the email without
// consuming it.
func (svc *Service) CheckResetCode(ctx context.Context, email, code string) error {
	_, _, err := svc.getValidResetCode(ctx, email, code)
	return err
}

// ResetPassword consumes a valid reset code and sets the new password.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	usr, rc, err := svc.getValidResetCode(ctx, rp.Email, rp.Code)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(rp.NewPassword); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.tx.InTransaction(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.UpdateUser(ctx, usr, exec); err != nil {
			return err
		}
		return svc.repo.MarkResetCodeUsed(ctx, rc.ID, exec)
	})
}

func (svc *Service) getValidResetCode(ctx context.Context, email, code string) (User, ResetCode, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ResetCode{}, ErrInvalidResetCode
		}
		return User{}, ResetCode{}, err
	}
	rc, err := svc.repo.GetValidResetCode(ctx, usr.ID, code, time.Now().UTC())
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ResetCode{}, ErrInvalidResetCode
		}
		return User{}, ResetCode{}, err
	}
	return usr, rc, nil
}

// Coaches lists all coach accounts with their branch assignments.
func (svc *Service) Coaches(ctx context.Context) ([]Coach, error) {
	users, err := svc.repo.QueryCoaches(ctx)
	if err != nil {
		return nil, err
	}
	coaches := make([]Coach, 0, len(users))
	for _, usr := range users {
		assignments, err := svc.repo.QueryAssignments(ctx, usr.ID)
		if err != nil {
			return nil, err
		}
		coaches = append(coaches, Coach{User: usr, Assignments: assignments})
	}
	return coaches, nil
}

// AssignCoach adds a coach to a branch. Assigning an already assigned pair
// is a no-op.
func (svc *Service) AssignCoach(ctx context.Context, coachID, branchID, assignedBy int) error {
	usr, err := svc.repo.GetUserByID(ctx, coachID)
	if err != nil {
		return err
	}
	if !usr.IsCoach() {
		return ErrNotACoach
	}
	return svc.repo.CreateAssignment(ctx, coachID, branchID, assignedBy)
}

// UnassignCoach removes a coach from a branch. If the branch was the coach's
// active one, the active branch is cleared.
func (svc *Service) UnassignCoach(ctx context.Context, coachID, branchID int) error {
	usr, err := svc.repo.GetUserByID(ctx, coachID)
	if err != nil {
		return err
	}
	return svc.tx.InTransaction(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.DeleteAssignment(ctx, coachID, branchID, exec); err != nil {
			return err
		}
		if usr.BranchID == branchID {
			return svc.repo.SetActiveBranch(ctx, coachID, 0, exec)
		}
		return nil
	})
}

func (svc *Service) AssignedBranchIDs(ctx context.Context, coachID int) ([]int, error) {
	return svc.repo.QueryAssignedBranchIDs(ctx, coachID)
}

func (svc *Service) Assignments(ctx context.Context, coachID int) ([]BranchAssignment, error) {
	return svc.repo.QueryAssignments(ctx, coachID)
}

func (svc *Service) GetAssignmentStats(ctx context.Context) (AssignmentStats, error) {
	return svc.repo.GetAssignmentStats(ctx)
}

// SetActiveBranch persists the user's active branch. Authorization (coach
// must be assigned to the branch) is the caller's responsibility.
func (svc *Service) SetActiveBranch(ctx context.Context, userID, branchID int) error {
	return svc.repo.SetActiveBranch(ctx, userID, branchID)
}

// CreateInviteLink issues a fresh single-use login link for the user,
// invalidating any previous unused ones.
func (svc *Service) CreateInviteLink(ctx context.Context, userID int) (Invite, error) {
	usr, err := svc.repo.GetUserByID(ctx, userID)
	if err != nil {
		return Invite{}, err
	}
	now := time.Now().UTC()
	inv := Invite{
		UserID:    usr.ID,
		Token:     uuid.New().String(),
		ExpiresAt: now.Add(svc.conf.Server.InviteLinkTimeout),
		CreatedAt: now,
	}

	err = svc.tx.InTransaction(ctx, func(exec core.DBExecutor) error {
		if err := svc.repo.InvalidateInvites(ctx, usr.ID, now, exec); err != nil {
			return err
		}
		inv, err = svc.repo.CreateInvite(ctx, inv, exec)
		return err
	})
	if err != nil {
		return Invite{}, err
	}
	return inv, nil
}

// InviteURL renders the frontend link for an invite token.
func (svc *Service) InviteURL(inv Invite) string {
	return fmt.Sprintf("%s/invite/%s", svc.conf.FrontendBaseURL, inv.Token)
}

// RedeemInvite consumes a valid invite token and returns the invited user.
func (svc *Service) RedeemInvite(ctx context.Context, token string) (User, error) {
	now := time.Now().UTC()
	inv, err := svc.repo.GetValidInvite(ctx, token, now)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInviteInvalid
		}
		return User{}, err
	}
	usr, err := svc.repo.GetUserByID(ctx, inv.UserID)
	if err != nil {
		return User{}, err
	}
	if err = svc.repo.MarkInviteUsed(ctx, inv.ID, now); err != nil {
		return User{}, err
	}
	return usr, nil
}

// generateResetCode returns a random 6-digit numeric code.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
