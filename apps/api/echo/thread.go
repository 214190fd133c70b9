package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core/thread"
	"github.com/athlos-club/athlos/core/user"
)

type threadApi struct {
	svc      *thread.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerThreadAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *thread.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := threadApi{svc: svc, userSvc: userSvc, validate: validate}

	bg := g.Group("/branches/:id", jwt)
	bg.GET("/threads", api.query)
	bg.POST("/threads", api.create, staffMiddleware())
	bg.GET("/gear", api.gearPosts)
	bg.POST("/gear", api.postGear, staffMiddleware())

	tg := g.Group("/threads/:id", jwt)
	tg.GET("/posts", api.posts)
	tg.POST("/posts", api.postMessage)
}

// Handlers

func (api *threadApi) query(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	threads, err := api.svc.Threads(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	if threads == nil {
		threads = []thread.Thread{}
	}
	return ctx.JSON(http.StatusOK, threads)
}

func (api *threadApi) create(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	var data thread.NewThread
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewThread")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *threadApi) posts(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	posts, err := api.svc.Posts(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []thread.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *threadApi) postMessage(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	var data thread.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	post, err := api.svc.PostMessage(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *threadApi) gearPosts(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	posts, err := api.svc.GearPosts(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []thread.Post{}
	}
	return ctx.JSON(http.StatusOK, posts)
}

func (api *threadApi) postGear(ctx echo.Context) error {
	actor, id, err := api.actorAndID(ctx)
	if err != nil {
		return err
	}

	var data thread.NewPost
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPost")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	post, err := api.svc.PostGear(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, post)
}

func (api *threadApi) actorAndID(ctx echo.Context) (user.User, int, error) {
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
