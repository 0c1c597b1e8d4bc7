package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/lophoc/core"
)

const (
	codeOK = 1000

	orderingParam = "ordering"
	indexParam    = "index"
	countParam    = "count"
	maxPageCount  = 100
)

// Response is the envelope of every successful response.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(ctx echo.Context, status int, message string, data interface{}) error {
	return ctx.JSON(status, Response{Code: codeOK, Message: message, Data: data})
}

func respondOK(ctx echo.Context, data interface{}) error {
	return respond(ctx, http.StatusOK, "OK", data)
}

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindPage reads the `index` & `count` query params.
func bindPage(ctx echo.Context) (core.Page, error) {
	var page core.Page
	var flds []core.FieldError
	if v := ctx.QueryParam(indexParam); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			flds = append(flds, core.FieldError{Field: indexParam, Error: "must be a positive integer"})
		}
		page.Index = i
	}
	if v := ctx.QueryParam(countParam); v != "" {
		c, err := strconv.Atoi(v)
		if err != nil || c < 0 || c > maxPageCount {
			flds = append(flds, core.FieldError{Field: countParam, Error: "must be an integer between 0 and 100"})
		}
		page.Count = c
	}
	if len(flds) > 0 {
		return core.Page{}, core.NewValidationError(nil, flds...)
	}
	return page, nil
}

// queryDate reads an optional YYYY-MM-DD query param.
func queryDate(ctx echo.Context, name string) (core.Date, error) {
	var d core.Date
	if err := d.UnmarshalParam(ctx.QueryParam(name)); err != nil {
		return core.Date{}, core.NewFieldError(name, "invalid date, expected YYYY-MM-DD")
	}
	return d, nil
}
