package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := attendanceApi{svc: deps.AttendanceSvc, validate: deps.Validate}

	g.POST("/classes/:id/attendance", api.take, chain(authed, lecturerMiddleware)...)
	g.GET("/classes/:id/attendance", api.list, chain(authed, lecturerMiddleware)...)
	g.GET("/classes/:id/attendance/me", api.records, authed...)
	g.PUT("/attendance/:id/status", api.setStatus, chain(authed, lecturerMiddleware)...)
}

func (api *attendanceApi) take(ctx echo.Context) error {
	var data attendance.Take
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Take")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.Take(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "taking attendance")
	}
	return respond(ctx, http.StatusCreated, "Attendance taken successfully", att)
}

func (api *attendanceApi) list(ctx echo.Context) error {
	date, err := queryDate(ctx, "date")
	if err != nil {
		return err
	}

	att, err := api.svc.List(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), attendance.ListFilter{Date: date})
	if err != nil {
		return errors.Wrap(err, "listing attendance")
	}
	return respondOK(ctx, att)
}

func (api *attendanceApi) records(ctx echo.Context) error {
	recs, err := api.svc.StudentRecords(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing attendance records")
	}
	if recs == nil {
		recs = []attendance.Record{}
	}
	return respondOK(ctx, recs)
}

func (api *attendanceApi) setStatus(ctx echo.Context) error {
	var data attendance.SetStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.SetStatus(ctx.Request().Context(), contextUser(ctx), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "setting attendance status")
	}
	return respond(ctx, http.StatusOK, "Attendance status updated successfully", att)
}
