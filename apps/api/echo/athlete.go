package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core/athlete"
	"github.com/athlos-club/athlos/core/user"
)

type athleteApi struct {
	svc      *athlete.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerAthleteAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *athlete.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := athleteApi{svc: svc, userSvc: userSvc, validate: validate}

	ag := g.Group("/athletes", jwt)
	ag.GET("", api.roster)
	ag.GET("/me", api.me)
	ag.POST("/:id/measurements", api.logMeasurement)
	ag.GET("/:id/measurements", api.measurements)
	ag.GET("/:id/performances", api.performances)
	ag.PUT("/:id/performances", api.replacePerformances)
}

// Handlers

func (api *athleteApi) roster(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// branch_id defaults to the actor's own branch
	branchID := intQueryParam(ctx, "branch_id")
	if branchID == 0 {
		branchID = actor.BranchID
	}

	roster, err := api.svc.Roster(ctx.Request().Context(), actor, branchID)
	if err != nil {
		return err
	}
	if roster == nil {
		roster = []athlete.Athlete{}
	}
	return ctx.JSON(http.StatusOK, roster)
}

func (api *athleteApi) me(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ath, err := api.svc.GetByUserID(ctx.Request().Context(), actor.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ath)
}

func (api *athleteApi) logMeasurement(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	var data athlete.NewMeasurement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMeasurement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ml, err := api.svc.LogMeasurement(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ml)
}

func (api *athleteApi) measurements(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	logs, err := api.svc.Measurements(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []athlete.MeasurementLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *athleteApi) performances(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	logs, err := api.svc.PerformanceLogs(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []athlete.PerformanceLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *athleteApi) replacePerformances(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	var entries []athlete.NewPerformance
	if err := ctx.Bind(&entries); err != nil {
		return errors.Wrap(err, "binding to []NewPerformance")
	}
	for i := range entries {
		if err := entries[i].Validate(api.validate); err != nil {
			return err
		}
	}

	logs, err := api.svc.ReplaceAllPerformanceLogs(ctx.Request().Context(), actor, id, entries)
	if err != nil {
		return err
	}
	if logs == nil {
		logs = []athlete.PerformanceLog{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *athleteApi) actorAndID(ctx echo.Context) (user.User, int, error) {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return user.User{}, 0, errors.Wrap(err, "getting context user")
	}
	id, err := intParam(ctx, "id")
	if err != nil {
		return user.User{}, 0, err
	}
	return actor, id, nil
}
