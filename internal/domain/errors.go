package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Motor de inventario.
	ErrInvalidQuantity   = errors.New("la cantidad debe ser mayor que 0")
	ErrProductNotFound   = errors.New("producto no encontrado")
	ErrInvalidRange      = errors.New("rango de fechas inválido: inicio posterior al fin")
	ErrStockRemaining    = errors.New("el producto aún tiene stock y no puede eliminarse")
	ErrRequestInProgress = errors.New("solicitud con la misma llave de idempotencia en curso")
)

// IsBadInput indica si el error es una entrada inválida del cliente (reintentar con otros datos).
func IsBadInput(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidInput)
}

// IsStateConflict indica si el error es un conflicto con el estado actual del inventario.
func IsStateConflict(err error) bool {
	return errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrStockRemaining) ||
		errors.Is(err, ErrRequestInProgress)
}

// IsNotFound indica si el error es de recurso inexistente.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrNotFound)
}
