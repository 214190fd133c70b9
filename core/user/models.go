package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/athlos-club/athlos/core"
)

// Roles
const (
	RoleAthlete   = "athlete"
	RoleCoach     = "coach"
	RoleHeadCoach = "head_coach"
)

var AllRoles = []string{RoleAthlete, RoleCoach, RoleHeadCoach}

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	Approved     bool      `json:"approved"`
	BranchID     int       `json:"branch_id"` // current active branch; 0 = none
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAthlete() bool   { return u.Role == RoleAthlete }
func (u User) IsCoach() bool     { return u.Role == RoleCoach }
func (u User) IsHeadCoach() bool { return u.Role == RoleHeadCoach }

// IsStaff reports whether the user is a coach of any kind.
func (u User) IsStaff() bool { return u.IsCoach() || u.IsHeadCoach() }

// BranchAssignment is a coach's membership in a branch. Membership governs
// which branches the coach may switch into as active; the live authorization
// check always compares against User.BranchID.
type BranchAssignment struct {
	BranchID   int       `json:"branch_id"`
	BranchName string    `json:"branch_name"`
	AssignedBy int       `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// AssignmentStats summarizes coach/branch assignment coverage.
type AssignmentStats struct {
	TotalCoaches       int `json:"total_coaches"`
	AssignedCoaches    int `json:"assigned_coaches"`
	UnassignedCoaches  int `json:"unassigned_coaches"`
	MultiBranchCoaches int `json:"multi_branch_coaches"`
}

// Coach is a coach account together with its branch assignments.
type Coach struct {
	User
	Assignments []BranchAssignment `json:"assignments"`
}

// ResetCode is an emailed password-reset code; single use, short lived.
type ResetCode struct {
	ID        int
	UserID    int
	Code      string
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Invite is a single-use login link token. Creating a new invite invalidates
// the user's previous unused ones.
type Invite struct {
	ID            int        `json:"-"`
	UserID        int        `json:"-"`
	Token         string     `json:"invite_token"`
	Used          bool       `json:"-"`
	UsedAt        *time.Time `json:"-"`
	InvalidatedAt *time.Time `json:"-"`
	ExpiresAt     time.Time  `json:"expires_at"`
	CreatedAt     time.Time  `json:"-"`
}

// NewAthlete contains information needed to register a new athlete account.
// The account starts unapproved; a coach of the branch approves it.
type NewAthlete struct {
	Name            string `json:"name" validate:"required,min=2,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required,phone"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	BranchID        int    `json:"branch_id" validate:"required"`
}

func (na *NewAthlete) Validate(validate *validator.Validate, svc *Service) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Phone = core.NormalizePhone(na.Phone)

	if err := validate.Struct(na); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(na.Email)
}

// NewStaff contains information needed to create a coach or head-coach
// account (admin CLI and head-coach flows); staff accounts are pre-approved.
type NewStaff struct {
	Name            string `json:"name" validate:"required,min=2,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
	Role            string `json:"role" validate:"required,oneof=coach head_coach"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	BranchID        int    `json:"branch_id"`
}

func (ns *NewStaff) Validate(validate *validator.Validate, svc *Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.NormalizePhone(ns.Phone)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ns.Email)
}

// UpdateProfile defines what a user may change on their own profile.
type UpdateProfile struct {
	Name  string `json:"name" validate:"required,min=2,max=50"`
	Email string `json:"email" validate:"required,email"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate, origUsr User, svc *Service) error {
	up.Name = core.CleanString(up.Name)
	up.Email = core.CleanString(up.Email, true /* lower */)

	if err := validate.Struct(up); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(up.Email, origUsr)
}

type ChangePassword struct {
	OldPassword        string `json:"old_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8,max=128"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required,eqfield=NewPassword"`
}

func (cp ChangePassword) Validate(validate *validator.Validate) error {
	return validate.Struct(cp)
}

type ForgotPassword struct {
	Email string `json:"email" validate:"required,email"`
}

func (fp *ForgotPassword) Validate(validate *validator.Validate) error {
	fp.Email = core.CleanString(fp.Email, true /* lower */)
	return validate.Struct(fp)
}

type VerifyResetCode struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=4,max=8"`
}

func (vr *VerifyResetCode) Validate(validate *validator.Validate) error {
	vr.Email = core.CleanString(vr.Email, true /* lower */)
	vr.Code = core.CleanString(vr.Code)
	return validate.Struct(vr)
}

type ResetUserPassword struct {
	Email           string `json:"email" validate:"required,email"`
	Code            string `json:"code" validate:"required,min=4,max=8"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	rp.Email = core.CleanString(rp.Email, true /* lower */)
	rp.Code = core.CleanString(rp.Code)
	return validate.Struct(rp)
}
