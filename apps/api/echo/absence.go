package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/absence"
	"github.com/trezcool/lophoc/core/upload"
)

type absenceApi struct {
	svc       *absence.Service
	uploadSvc *upload.Service
	validate  *validator.Validate
}

func registerAbsenceAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := absenceApi{svc: deps.AbsenceSvc, uploadSvc: deps.UploadSvc, validate: deps.Validate}

	g.POST("/classes/:id/absences", api.request, authed...)
	g.GET("/classes/:id/absences", api.list, chain(authed, lecturerMiddleware)...)
	g.PUT("/absences/:id/review", api.review, chain(authed, lecturerMiddleware)...)
}

func (api *absenceApi) request(ctx echo.Context) error {
	var data absence.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	proofURL, err := saveFormFile(ctx, api.uploadSvc, "proof")
	if err != nil {
		return err
	}
	data.ProofURL = proofURL

	req, err := api.svc.Request(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "requesting absence")
	}
	return respond(ctx, http.StatusCreated, "Absence request sent successfully", req)
}

func (api *absenceApi) list(ctx echo.Context) error {
	date, err := queryDate(ctx, "date")
	if err != nil {
		return err
	}
	filter := absence.QueryFilter{Status: absence.Status(ctx.QueryParam("status")), Date: date}
	if err = filter.Clean(); err != nil {
		return err
	}

	reqs, err := api.svc.List(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), filter)
	if err != nil {
		return errors.Wrap(err, "listing absence requests")
	}
	if reqs == nil {
		reqs = []absence.Request{}
	}
	return respondOK(ctx, reqs)
}

func (api *absenceApi) review(ctx echo.Context) error {
	var data absence.Review
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Review")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	req, err := api.svc.Review(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing absence request")
	}
	return respond(ctx, http.StatusOK, "Absence request reviewed successfully", req)
}
