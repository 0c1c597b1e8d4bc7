package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/assignment"
	"github.com/trezcool/lophoc/core/upload"
)

type assignmentApi struct {
	svc       *assignment.Service
	uploadSvc *upload.Service
	validate  *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{svc: deps.AssignmentSvc, uploadSvc: deps.UploadSvc, validate: deps.Validate}

	g.POST("/classes/:id/assignments", api.create, chain(authed, lecturerMiddleware)...)
	g.GET("/classes/:id/assignments", api.list, authed...)

	ag := g.Group("/assignments", authed...)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, lecturerMiddleware)
	ag.DELETE("/:id", api.destroy, lecturerMiddleware)
	ag.POST("/:id/submissions", api.submit)
	ag.PUT("/:id/grade", api.grade, lecturerMiddleware)
}

func (api *assignmentApi) create(ctx echo.Context) error {
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	fileURL, err := saveFormFile(ctx, api.uploadSvc, fileField)
	if err != nil {
		return err
	}
	data.FileURL = fileURL
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Create(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return respond(ctx, http.StatusCreated, "Assignment created successfully", a)
}

func (api *assignmentApi) list(ctx echo.Context) error {
	as, err := api.svc.List(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing assignments")
	}
	if as == nil {
		as = []assignment.Assignment{}
	}
	return respondOK(ctx, as)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	info, err := api.svc.Info(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting assignment info")
	}
	return respondOK(ctx, info)
}

func (api *assignmentApi) update(ctx echo.Context) error {
	var data assignment.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	fileURL, err := saveFormFile(ctx, api.uploadSvc, fileField)
	if err != nil {
		return err
	}
	data.FileURL = fileURL

	a, err := api.svc.Update(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return respond(ctx, http.StatusOK, "Assignment updated successfully", a)
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return respond(ctx, http.StatusOK, "Assignment deleted successfully", nil)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	var data assignment.Submit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submit")
	}
	fileURL, err := saveFormFile(ctx, api.uploadSvc, fileField)
	if err != nil {
		return err
	}
	data.FileURL = fileURL
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return respond(ctx, http.StatusOK, "Assignment submitted successfully", sub)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	var data assignment.Grade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grade")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Grade(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return respond(ctx, http.StatusOK, "Submission graded successfully", sub)
}
