package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core/payment"
	"github.com/athlos-club/athlos/core/user"
)

type paymentApi struct {
	svc      *payment.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerPaymentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *payment.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := paymentApi{svc: svc, userSvc: userSvc, validate: validate}

	pg := g.Group("/payments", jwt)
	pg.POST("", api.mark, staffMiddleware())
	pg.GET("/athletes/:id", api.forAthlete)
	pg.GET("/status", api.branchStatus, staffMiddleware())
}

// Handlers

func (api *paymentApi) mark(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data payment.MarkPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Mark(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *paymentApi) forAthlete(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	athleteID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	payments, err := api.svc.ForAthlete(ctx.Request().Context(), actor, athleteID)
	if err != nil {
		return err
	}
	if payments == nil {
		payments = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) branchStatus(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	branchID := intQueryParam(ctx, "branch_id")
	if !actor.IsHeadCoach() {
		branchID = actor.BranchID
	}

	status, err := api.svc.BranchStatus(ctx.Request().Context(), actor, branchID)
	if err != nil {
		return err
	}
	if status == nil {
		status = []payment.AthleteStatus{}
	}
	return ctx.JSON(http.StatusOK, status)
}
