package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/class"
	"github.com/trezcool/lophoc/core/schedule"
)

type classApi struct {
	svc      *class.Service
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := classApi{svc: deps.ClassSvc, validate: deps.Validate}

	cg := g.Group("/classes", authed...)
	cg.POST("", api.create, lecturerMiddleware)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, lecturerMiddleware)
	cg.DELETE("/:id", api.destroy, lecturerMiddleware)
	cg.POST("/:id/members", api.addMember)
	cg.GET("/:id/schedule", api.schedule)
	cg.GET("/:id/qr", api.inviteQR, lecturerMiddleware)
}

func (api *classApi) create(ctx echo.Context) error {
	var data class.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), contextUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return respond(ctx, http.StatusCreated, "Class created successfully", cls)
}

func (api *classApi) query(ctx echo.Context) error {
	classes, err := api.svc.Query(ctx.Request().Context(), contextUser(ctx))
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []class.Summary{}
	}
	return respondOK(ctx, classes)
}

func (api *classApi) retrieve(ctx echo.Context) error {
	info, err := api.svc.Info(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class info")
	}
	return respondOK(ctx, info)
}

func (api *classApi) update(ctx echo.Context) error {
	var data class.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Update(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return respond(ctx, http.StatusOK, "Class updated successfully", cls)
}

func (api *classApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return respond(ctx, http.StatusOK, "Class deleted successfully", nil)
}

func (api *classApi) addMember(ctx echo.Context) error {
	actor := contextUser(ctx)

	var data class.AddMember
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddMember")
	}
	if data.StudentID == "" && actor.Role.CanEnroll() {
		data.StudentID = actor.ID // self enrollment
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.AddMember(ctx.Request().Context(), actor, ctx.Param("id"), data.StudentID); err != nil {
		return errors.Wrap(err, "adding member")
	}
	return respond(ctx, http.StatusCreated, "Student added to class successfully", nil)
}

func (api *classApi) schedule(ctx echo.Context) error {
	occ, err := api.svc.Schedule(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "materializing schedule")
	}
	if occ == nil {
		occ = []schedule.Occurrence{}
	}
	return respondOK(ctx, occ)
}

func (api *classApi) inviteQR(ctx echo.Context) error {
	png, err := api.svc.InviteQR(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "generating invite QR code")
	}
	return ctx.Blob(http.StatusOK, "image/png", png)
}
