package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/material"
	"github.com/trezcool/lophoc/core/upload"
)

type materialApi struct {
	svc       *material.Service
	uploadSvc *upload.Service
	validate  *validator.Validate
}

func registerMaterialAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := materialApi{svc: deps.MaterialSvc, uploadSvc: deps.UploadSvc, validate: deps.Validate}

	g.POST("/classes/:id/materials", api.create, chain(authed, lecturerMiddleware)...)
	g.GET("/classes/:id/materials", api.list, authed...)

	mg := g.Group("/materials", authed...)
	mg.GET("/:id", api.retrieve)
	mg.PUT("/:id", api.update, lecturerMiddleware)
	mg.DELETE("/:id", api.destroy, lecturerMiddleware)
}

func (api *materialApi) create(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	fileURL, err := saveFormFile(ctx, api.uploadSvc, fileField)
	if err != nil {
		return err
	}
	data.FileURL = fileURL
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Create(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return respond(ctx, http.StatusCreated, "Material created successfully", m)
}

func (api *materialApi) list(ctx echo.Context) error {
	ms, err := api.svc.List(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing materials")
	}
	if ms == nil {
		ms = []material.Material{}
	}
	return respondOK(ctx, ms)
}

func (api *materialApi) retrieve(ctx echo.Context) error {
	m, err := api.svc.Info(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting material")
	}
	return respondOK(ctx, m)
}

func (api *materialApi) update(ctx echo.Context) error {
	var data material.UpdateMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMaterial")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	fileURL, err := saveFormFile(ctx, api.uploadSvc, fileField)
	if err != nil {
		return err
	}
	data.FileURL = fileURL

	m, err := api.svc.Update(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating material")
	}
	return respond(ctx, http.StatusOK, "Material updated successfully", m)
}

func (api *materialApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextUser(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return respond(ctx, http.StatusOK, "Material deleted successfully", nil)
}
