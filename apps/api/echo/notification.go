package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/notification"
)

type notificationApi struct {
	svc      *notification.Service
	validate *validator.Validate
}

func registerNotificationAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := notificationApi{svc: deps.NotificationSvc, validate: deps.Validate}

	ng := g.Group("/notifications", authed...)
	ng.POST("", api.send, lecturerMiddleware)
	ng.GET("", api.list)
	ng.PUT("/read", api.markRead)
}

func (api *notificationApi) send(ctx echo.Context) error {
	var data notification.Send
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Send")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	n, err := api.svc.Send(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "sending notification")
	}
	return respond(ctx, http.StatusCreated, "Notification sent successfully", n)
}

func (api *notificationApi) list(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	ns, err := api.svc.List(ctx.Request().Context(), contextUser(ctx), page)
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	if ns == nil {
		ns = []notification.Notification{}
	}
	return respondOK(ctx, ns)
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	var data notification.MarkRead
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRead")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.MarkRead(ctx.Request().Context(), contextUser(ctx), data); err != nil {
		return errors.Wrap(err, "marking notifications as read")
	}
	return respond(ctx, http.StatusOK, "Notifications marked as read", nil)
}
