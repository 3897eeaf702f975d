package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// LocalError guarda el error interno de la petición para que RequestLogger lo registre.
const LocalError = "request_error"

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// El orden importa: los errores del motor van antes que los genéricos.
var errorMappings = []errorMapping{
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY", "la cantidad debe ser mayor que 0"},
	{domain.ErrInvalidRange, fiber.StatusBadRequest, "INVALID_RANGE", "la fecha de inicio es posterior a la de fin"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
	{domain.ErrProductNotFound, fiber.StatusNotFound, "PRODUCT_NOT_FOUND", "producto no encontrado"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"},
	{domain.ErrStockRemaining, fiber.StatusConflict, "STOCK_REMAINING", "el producto aún tiene stock"},
	{domain.ErrRequestInProgress, fiber.StatusConflict, "REQUEST_IN_PROGRESS", "solicitud con la misma llave en curso"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE", "recurso duplicado"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "no autorizado"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado"},
}

// writeError traduce un error de dominio a su respuesta HTTP. Los no reconocidos son 500
// y su detalle solo va al log.
func writeError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: m.message})
		}
	}
	c.Locals(LocalError, err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message})
}

// pathParam devuelve una copia del parámetro de ruta; el buffer del request se reutiliza
// en la siguiente petición.
func pathParam(c *fiber.Ctx, name string) string {
	return utils.CopyString(c.Params(name))
}
