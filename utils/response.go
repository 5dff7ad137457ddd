package utils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
}

func JSONPage(ctx iris.Context, data interface{}, page, perPage int, total int64) {
	ctx.JSON(iris.Map{
		"data":  data,
		"meta":  PageMeta{Page: page, PerPage: perPage, Total: total},
		"links": iris.Map{},
	})
}

func JSONError(ctx iris.Context, status int, code, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"error": code, "message": message})
}

// HandleValidationErrors writes a 400 for a failed ReadJSON, listing the
// offending fields when the error came from the request validator.
func HandleValidationErrors(err error, ctx iris.Context) {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		fields := make([]iris.Map, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, iris.Map{"field": e.Field(), "rule": e.Tag()})
		}
		ctx.StatusCode(iris.StatusBadRequest)
		ctx.JSON(iris.Map{"error": "validation_error", "fields": fields})
		return
	}
	JSONError(ctx, iris.StatusBadRequest, "invalid_payload", err.Error())
}
