package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core/notification"
)

type notificationApi struct {
	svc      *notification.Service
	validate *validator.Validate
}

func registerNotificationAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *notification.Service,
	validate *validator.Validate,
) {
	api := notificationApi{svc: svc, validate: validate}

	ng := g.Group("/notifications", jwt)
	ng.GET("/vapid-public-key", api.vapidPublicKey)
	ng.POST("/subscriptions", api.subscribe)
	ng.DELETE("/subscriptions", api.unsubscribe)
}

// Handlers

func (api *notificationApi) vapidPublicKey(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, VAPIDKeyResponse{Key: api.svc.VAPIDPublicKey()})
}

func (api *notificationApi) subscribe(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data notification.NewSubscription
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubscription")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Subscribe(ctx.Request().Context(), claims.userID(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *notificationApi) unsubscribe(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data UnsubscribeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UnsubscribeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.Unsubscribe(ctx.Request().Context(), claims.userID(), data.Endpoint); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	VAPIDKeyResponse struct {
		Key string `json:"key"`
	}

	UnsubscribeRequest struct {
		Endpoint string `json:"endpoint" validate:"required,url"`
	}
)

func (ur UnsubscribeRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ur)
}
