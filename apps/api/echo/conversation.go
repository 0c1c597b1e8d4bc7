package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/conversation"
	"github.com/trezcool/lophoc/core/upload"
)

type conversationApi struct {
	svc       *conversation.Service
	uploadSvc *upload.Service
	validate  *validator.Validate
}

func registerConversationAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := conversationApi{svc: deps.ConversationSvc, uploadSvc: deps.UploadSvc, validate: deps.Validate}

	cg := g.Group("/conversations", authed...)
	cg.GET("", api.conversations)
	cg.GET("/:id/messages", api.messages)
	cg.PUT("/:id/read", api.markRead)
	cg.PUT("/:id/block", api.toggleBlock)

	mg := g.Group("/messages", authed...)
	mg.POST("", api.send)
	mg.PUT("/:id", api.edit)
	mg.DELETE("/:id", api.destroy)
}

func (api *conversationApi) send(ctx echo.Context) error {
	var data conversation.Send
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Send")
	}
	fileURL, err := saveFormFile(ctx, api.uploadSvc, fileField)
	if err != nil {
		return err
	}
	data.FileURL = fileURL
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.Send(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return respond(ctx, http.StatusCreated, "Message sent successfully", msg)
}

func (api *conversationApi) conversations(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	convs, err := api.svc.Conversations(ctx.Request().Context(), contextUser(ctx), page)
	if err != nil {
		return errors.Wrap(err, "listing conversations")
	}
	if convs == nil {
		convs = []conversation.Conversation{}
	}
	return respondOK(ctx, convs)
}

func (api *conversationApi) messages(ctx echo.Context) error {
	page, err := bindPage(ctx)
	if err != nil {
		return err
	}

	msgs, err := api.svc.Messages(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), page)
	if err != nil {
		return errors.Wrap(err, "listing messages")
	}
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	return respondOK(ctx, msgs)
}

func (api *conversationApi) markRead(ctx echo.Context) error {
	n, err := api.svc.MarkRead(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "marking messages as read")
	}
	return respond(ctx, http.StatusOK, "Messages marked as read", echo.Map{"count": n})
}

func (api *conversationApi) toggleBlock(ctx echo.Context) error {
	blocked, msg, err := api.svc.ToggleBlock(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "toggling block")
	}
	return respond(ctx, http.StatusOK, msg, echo.Map{"blocked": blocked})
}

func (api *conversationApi) edit(ctx echo.Context) error {
	var data conversation.Edit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Edit")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	msg, err := api.svc.EditMessage(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "editing message")
	}
	return respond(ctx, http.StatusOK, "Message edited successfully", msg)
}

func (api *conversationApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteMessage(ctx.Request().Context(), contextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting message")
	}
	return respond(ctx, http.StatusOK, "Message deleted successfully", nil)
}
