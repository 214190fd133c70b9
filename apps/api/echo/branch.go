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

type branchApi struct {
	svc      *branch.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerBranchAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *branch.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := branchApi{svc: svc, userSvc: userSvc, validate: validate}

	bg := g.Group("/branches")

	// registration-time branch picker, un-authed
	bg.GET("/public", api.queryPublic)

	ag := bg.Group("", jwt)
	ag.GET("", api.query, staffMiddleware())
	ag.POST("", api.create, headCoachMiddleware())
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, headCoachMiddleware())
	ag.DELETE("/:id", api.destroy, headCoachMiddleware())
	ag.GET("/me/session-dates", api.mySessionDates)
	ag.GET("/:id/session-dates", api.sessionDates)
}

// Handlers

func (api *branchApi) queryPublic(ctx echo.Context) error {
	branches, err := api.svc.QueryPublic(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying public branches")
	}
	if branches == nil {
		branches = []branch.PublicBranch{}
	}
	return ctx.JSON(http.StatusOK, branches)
}

func (api *branchApi) query(ctx echo.Context) error {
	branches, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying branches")
	}
	if branches == nil {
		branches = []branch.Branch{}
	}
	return ctx.JSON(http.StatusOK, branches)
}

func (api *branchApi) create(ctx echo.Context) error {
	var data branch.NewBranch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBranch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating branch")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *branchApi) retrieve(ctx echo.Context) error {
	id, err := api.viewableBranch(ctx)
	if err != nil {
		return err
	}

	b, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *branchApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data branch.UpdateBranch
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBranch")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *branchApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *branchApi) sessionDates(ctx echo.Context) error {
	id, err := api.viewableBranch(ctx)
	if err != nil {
		return err
	}

	dates, err := api.svc.SessionDates(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SessionDatesResponse{Dates: dates})
}

// mySessionDates resolves the actor's own branch schedule.
func (api *branchApi) mySessionDates(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	dates, err := api.svc.SessionDates(ctx.Request().Context(), actor.BranchID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SessionDatesResponse{Dates: dates})
}

// viewableBranch parses the branch ID and checks the actor may read the branch.
func (api *branchApi) viewableBranch(ctx echo.Context) (int, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return 0, err
	}
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return 0, errors.Wrap(err, "getting context user")
	}
	if err := access.CanViewBranch(actor, id); err != nil {
		return 0, err
	}
	return id, nil
}

type SessionDatesResponse struct {
	Dates []string `json:"dates"`
}
