package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

var validate = newValidator()

// newValidator usa los nombres json/query en los errores para que coincidan con lo que envía el cliente.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// validateStruct valida los tags `validate` del DTO y responde 400 con el detalle por campo.
// Devuelve (true, nil) si la respuesta de error ya fue escrita.
func validateStruct(c *fiber.Ctx, v any) (bool, error) {
	err := validate.Struct(v)
	if err == nil {
		return false, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return true, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: CodeValidation, Message: err.Error()})
	}
	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return true, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code:    CodeValidation,
		Message: "datos inválidos",
		Details: fields,
	})
}
