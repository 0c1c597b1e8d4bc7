package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core/upload"
)

const fileField = "file"

// saveFormFile stores the optional multipart file `field` and returns its URL ("" when absent).
func saveFormFile(ctx echo.Context, svc *upload.Service, field string) (string, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return "", nil
		}
		return "", errors.Wrap(err, "reading form file")
	}
	f, err := fh.Open()
	if err != nil {
		return "", errors.Wrap(err, "opening form file")
	}
	defer f.Close()

	saved, err := svc.Save(ctx.Request().Context(), fh.Filename, fh.Size, f)
	if err != nil {
		return "", err
	}
	return saved.URL, nil
}

type uploadApi struct {
	svc *upload.Service
}

func registerUploadAPI(g *echo.Group, authed []echo.MiddlewareFunc, deps ServerDeps) {
	api := uploadApi{svc: deps.UploadSvc}
	g.POST("/uploads", api.create, authed...)
}

func (api *uploadApi) create(ctx echo.Context) error {
	fh, err := ctx.FormFile(fileField)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file: this field is required")
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening form file")
	}
	defer f.Close()

	saved, err := api.svc.Save(ctx.Request().Context(), fh.Filename, fh.Size, f)
	if err != nil {
		return errors.Wrap(err, "saving upload")
	}
	return respond(ctx, http.StatusCreated, "File uploaded successfully", saved)
}
