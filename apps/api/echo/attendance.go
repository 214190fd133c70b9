package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core/attendance"
	"github.com/athlos-club/athlos/core/user"
)

type attendanceApi struct {
	svc      *attendance.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *attendance.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := attendanceApi{svc: svc, userSvc: userSvc, validate: validate}

	ag := g.Group("/attendance", jwt)
	ag.GET("/sheet", api.daySheet, staffMiddleware())
	ag.POST("/marks", api.mark, staffMiddleware())
	ag.GET("/athletes/:id/week", api.week)
	ag.GET("/month", api.month, staffMiddleware())
	ag.GET("/month/summary", api.monthSummary, staffMiddleware())
}

// Handlers

func (api *attendanceApi) daySheet(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	branchID := api.branchScope(ctx, actor)

	date := ctx.QueryParam("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return errInvalidDate
	}

	entries, err := api.svc.Day(ctx.Request().Context(), actor, branchID, date)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data attendance.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Mark(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) week(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	athleteID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	records, err := api.svc.Week(ctx.Request().Context(), actor, athleteID)
	if err != nil {
		return err
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) month(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	branchID := api.branchScope(ctx, actor)

	month, err := monthParam(ctx)
	if err != nil {
		return err
	}

	entries, err := api.svc.Month(ctx.Request().Context(), actor, branchID, month)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []attendance.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *attendanceApi) monthSummary(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	branchID := api.branchScope(ctx, actor)

	month, err := monthParam(ctx)
	if err != nil {
		return err
	}

	summary, err := api.svc.MonthSummary(ctx.Request().Context(), actor, branchID, month)
	if err != nil {
		return err
	}
	if summary == nil {
		summary = []attendance.AthleteSummary{}
	}
	return ctx.JSON(http.StatusOK, summary)
}

// branchScope resolves the branch a staff request operates on: a coach is
// pinned to their active branch, a head coach may pass branch_id.
func (api *attendanceApi) branchScope(ctx echo.Context, actor user.User) int {
	if actor.IsHeadCoach() {
		return intQueryParam(ctx, "branch_id")
	}
	return actor.BranchID
}

var (
	errInvalidDate  = echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	errInvalidMonth = echo.NewHTTPError(http.StatusBadRequest, "month must be YYYY-MM")
)

func monthParam(ctx echo.Context) (string, error) {
	month := ctx.QueryParam("month")
	if _, err := time.Parse("2006-01", month); err != nil {
		return "", errInvalidMonth
	}
	return month, nil
}
