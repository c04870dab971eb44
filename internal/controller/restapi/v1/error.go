package v1

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vitrina-app/media-service/internal/controller/restapi/v1/response"
	"github.com/vitrina-app/media-service/pkg/types/errs"
)

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Error: msg})
}

func validationResponse(ctx *fiber.Ctx, verr *errs.ValidationError) error {
	fields := make([]response.Field, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, response.Field{Field: f.Field, Message: f.Message})
	}

	return ctx.Status(http.StatusBadRequest).JSON(response.Error{
		Error:  "validation failed",
		Fields: fields,
	})
}
