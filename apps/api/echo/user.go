package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/access"
	"github.com/athlos-club/athlos/core/user"
)

type userApi struct {
	svc      *user.Service
	auth     *auth
	validate *validator.Validate
}

func registerUserAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	auth *auth,
	svc *user.Service,
	validate *validator.Validate,
) {
	api := userApi{
		svc:      svc,
		auth:     auth,
		validate: validate,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	// TODO: rate limit `/password-reset` & `/password-reset-confirm`
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)
	ug.POST("/invite-redeem", api.redeemInvite)
	ug.POST("/password-reset", api.resetPassword)
	ug.POST("/password-reset-verify", api.verifyResetCode)
	ug.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.me)
	ag.PUT("/me", api.updateProfile)
	ag.PUT("/me/password", api.changePassword)

	// registration review, staff only
	ag.GET("/pending", api.queryPending, staffMiddleware())
	ag.POST("/:id/approve", api.approve, staffMiddleware())
	ag.POST("/:id/reject", api.reject, staffMiddleware())
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewAthlete
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAthlete")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.RegisterAthlete(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering athlete")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.auth.authenticate(ctx, data.Email, data.Password)
	if err != nil {
		return err
	}
	token, err := api.auth.GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) redeemInvite(ctx echo.Context) error {
	var data RedeemInviteRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RedeemInviteRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.RedeemInvite(ctx.Request().Context(), data.Token)
	if err != nil {
		return err
	}
	token, err := api.auth.GenerateToken(api.auth.GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data user.ForgotPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ForgotPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with a code to reset your password.",
	})
}

func (api *userApi) verifyResetCode(ctx echo.Context) error {
	var data user.VerifyResetCode
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyResetCode")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.CheckResetCode(ctx.Request().Context(), data.Email, data.Code); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Code is valid."})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate, usr, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.UpdateProfile(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) changePassword(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data user.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ChangePassword(ctx.Request().Context(), usr, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been changed."})
}

func (api *userApi) queryPending(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// a coach only sees their active branch; a head coach may pass
	// branch_id, 0 meaning all branches
	branchID := intQueryParam(ctx, "branch_id")
	if !actor.IsHeadCoach() {
		branchID = actor.BranchID
	}
	if err := access.CanManageBranch(actor, branchID); err != nil {
		return err
	}

	users, err := api.svc.PendingRegistrations(ctx.Request().Context(), branchID)
	if err != nil {
		return errors.Wrap(err, "querying pending registrations")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) approve(ctx echo.Context) error {
	usr, err := api.pendingUser(ctx)
	if err != nil {
		return err
	}

	usr, err = api.svc.Approve(ctx.Request().Context(), usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) reject(ctx echo.Context) error {
	usr, err := api.pendingUser(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Reject(ctx.Request().Context(), usr.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// pendingUser loads the targeted registration and checks the actor may manage
// its branch.
func (api *userApi) pendingUser(ctx echo.Context) (user.User, error) {
	actor, err := getContextUser(ctx, api.svc)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context user")
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return user.User{}, err
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return user.User{}, err
	}
	if err := access.CanManageBranch(actor, usr.BranchID); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	RedeemInviteRequest struct {
		Token string `json:"invite_token" validate:"required,uuid4"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (rr *RedeemInviteRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(rr)
}
