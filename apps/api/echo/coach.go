package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core/access"
	"github.com/athlos-club/athlos/core/branch"
	"github.com/athlos-club/athlos/core/user"
)

type coachApi struct {
	svc       *user.Service
	branchSvc *branch.Service
	validate  *validator.Validate
}

func registerCoachAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service, branchSvc *branch.Service, validate *validator.Validate) {
	api := coachApi{svc: svc, branchSvc: branchSvc, validate: validate}

	cg := g.Group("/coaches", jwt)

	// every coach manages their own active branch
	cg.GET("/me/branches", api.myBranches, staffMiddleware())
	cg.PUT("/me/branch", api.setActiveBranch, staffMiddleware())

	// assignment administration, head coach only
	hg := cg.Group("", headCoachMiddleware())
	hg.GET("", api.query)
	hg.POST("", api.create)
	hg.GET("/stats", api.stats)
	hg.POST("/:id/assignments", api.assign)
	hg.DELETE("/:id/assignments/:branchID", api.unassign)
	hg.POST("/:id/invite-link", api.createInviteLink)
}

// Handlers

func (api *coachApi) query(ctx echo.Context) error {
	coaches, err := api.svc.Coaches(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying coaches")
	}
	if coaches == nil {
		coaches = []user.Coach{}
	}
	return ctx.JSON(http.StatusOK, coaches)
}

func (api *coachApi) create(ctx echo.Context) error {
	var data user.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.CreateStaff(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff account")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *coachApi) stats(ctx echo.Context) error {
	stats, err := api.svc.GetAssignmentStats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying assignment stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *coachApi) assign(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	coachID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data AssignBranchRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignBranchRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.AssignCoach(ctx.Request().Context(), coachID, data.BranchID, actor.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *coachApi) unassign(ctx echo.Context) error {
	coachID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	branchID, err := intParam(ctx, "branchID")
	if err != nil {
		return err
	}

	if err := api.svc.UnassignCoach(ctx.Request().Context(), coachID, branchID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *coachApi) createInviteLink(ctx echo.Context) error {
	userID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	inv, err := api.svc.CreateInviteLink(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, InviteLinkResponse{
		Invite: inv,
		URL:    api.svc.InviteURL(inv),
	})
}

func (api *coachApi) myBranches(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rctx := ctx.Request().Context()

	// a head coach may switch anywhere, so every branch is theirs
	if actor.IsHeadCoach() {
		branches, err := api.branchSvc.Query(rctx)
		if err != nil {
			return errors.Wrap(err, "querying branches")
		}
		assignments := make([]user.BranchAssignment, len(branches))
		for i, b := range branches {
			assignments[i] = user.BranchAssignment{BranchID: b.ID, BranchName: b.Name}
		}
		return ctx.JSON(http.StatusOK, assignments)
	}

	assignments, err := api.svc.Assignments(rctx, actor.ID)
	if err != nil {
		return errors.Wrap(err, "querying branch assignments")
	}
	if assignments == nil {
		assignments = []user.BranchAssignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *coachApi) setActiveBranch(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data AssignBranchRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignBranchRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	assignedIDs, err := api.svc.AssignedBranchIDs(rctx, actor.ID)
	if err != nil {
		return errors.Wrap(err, "querying assigned branches")
	}
	if err := access.CanSwitchBranch(actor, data.BranchID, assignedIDs); err != nil {
		return err
	}

	if err := api.svc.SetActiveBranch(rctx, actor.ID, data.BranchID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	AssignBranchRequest struct {
		BranchID int `json:"branch_id" validate:"required"`
	}

	InviteLinkResponse struct {
		user.Invite
		URL string `json:"url"`
	}
)

func (ar AssignBranchRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}
