package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/validator"
)

// HeaderIdempotencyKey header opcional de los movimientos.
const HeaderIdempotencyKey = "Idempotency-Key"

const dateOnly = "2006-01-02"

// StockHandler maneja las peticiones HTTP del motor de inventario.
type StockHandler struct {
	ledger        *inventory.StockLedgerUseCase
	replenishment *inventory.ReplenishmentUseCase
	report        *inventory.ReportUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.StockLedgerUseCase, replenishment *inventory.ReplenishmentUseCase, report *inventory.ReportUseCase) *StockHandler {
	return &StockHandler{ledger: ledger, replenishment: replenishment, report: report}
}

// Inbound godoc
// @Summary      Registrar entrada de stock
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId        path    string               true   "ID del producto"
// @Param        Idempotency-Key  header  string               false  "Llave de idempotencia"
// @Param        body             body    dto.MovementRequest  true   "quantity > 0"
// @Success      201  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stocks/{productId}/inbound [post]
func (h *StockHandler) Inbound(c *fiber.Ctx) error {
	in, bad := parseMovement(c)
	if bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	balance, err := h.ledger.Inbound(c.UserContext(), *in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.BalanceResponse{
		ProductID: balance.ProductID,
		Quantity:  balance.Quantity,
		UpdatedAt: balance.UpdatedAt,
	})
}

// Outbound godoc
// @Summary      Registrar salida de stock
// @Description  Falla con 409 INSUFFICIENT_STOCK si el saldo no alcanza; en ese caso no se registra nada.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        productId        path    string               true   "ID del producto"
// @Param        Idempotency-Key  header  string               false  "Llave de idempotencia"
// @Param        body             body    dto.MovementRequest  true   "quantity > 0"
// @Success      200  {object}  dto.OutboundResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stocks/{productId}/outbound [post]
func (h *StockHandler) Outbound(c *fiber.Ctx) error {
	in, bad := parseMovement(c)
	if bad != nil {
		return c.Status(fiber.StatusBadRequest).JSON(bad)
	}
	res, err := h.ledger.Outbound(c.UserContext(), *in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OutboundResponse{
		NewBalance:       res.NewBalance,
		BelowSafetyStock: res.BelowSafetyStock,
	})
}

// parseMovement lee y valida el cuerpo; el segundo valor es el error 400 a responder.
func parseMovement(c *fiber.Ctx) (*inventory.MovementInput, *dto.ErrorResponse) {
	var body dto.MovementRequest
	if err := c.BodyParser(&body); err != nil {
		return nil, &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if errs := validator.ValidateStruct(body); len(errs) > 0 {
		if validator.HasField(errs, "quantity") {
			return nil, &dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: "la cantidad debe ser mayor que 0"}
		}
		return nil, &dto.ErrorResponse{Code: "VALIDATION", Message: validator.Message(errs)}
	}
	return &inventory.MovementInput{
		ProductID:      pathParam(c, "productId"),
		Quantity:       body.Quantity,
		IdempotencyKey: utils.CopyString(c.Get(HeaderIdempotencyKey)),
	}, nil
}

// History godoc
// @Summary      Historial de movimientos
// @Description  Más recientes primero; empates por ID descendente. Producto desconocido = lista vacía.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true   "ID del producto"
// @Param        kind       query  string  false  "INBOUND | OUTBOUND"
// @Param        from       query  string  false  "RFC3339 o YYYY-MM-DD"
// @Param        to         query  string  false  "RFC3339 o YYYY-MM-DD (fin del día)"
// @Success      200  {array}   dto.LedgerEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stocks/{productId}/histories [get]
func (h *StockHandler) History(c *fiber.Ctx) error {
	var q dto.HistoryRequest
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	query := inventory.HistoryQuery{
		ProductID: pathParam(c, "productId"),
		Kind:      entity.EntryKind(q.Kind),
	}
	if q.From != "" {
		from, err := parseDateParam(q.From, false)
		if err != nil {
			return badRequest(c, "VALIDATION", "from: formato de fecha inválido")
		}
		query.From = &from
	}
	if q.To != "" {
		to, err := parseDateParam(q.To, true)
		if err != nil {
			return badRequest(c, "VALIDATION", "to: formato de fecha inválido")
		}
		query.To = &to
	}

	entries, err := h.ledger.History(c.UserContext(), query)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LedgerEntryResponse{
			ID:         e.ID,
			ProductID:  e.ProductID,
			Kind:       string(e.Kind),
			Quantity:   e.Quantity,
			OccurredAt: e.OccurredAt,
		})
	}
	return c.JSON(out)
}

// StatusList godoc
// @Summary      Estado de stock de todos los productos
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.StockStatusResponse
// @Router       /api/stocks/status [get]
func (h *StockHandler) StatusList(c *fiber.Ctx) error {
	rows, err := h.ledger.StatusList(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStatusResponses(rows))
}

// BelowSafetyStock godoc
// @Summary      Productos bajo su stock de seguridad
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.StockStatusResponse
// @Router       /api/stocks/status/below-safety [get]
func (h *StockHandler) BelowSafetyStock(c *fiber.Ctx) error {
	rows, err := h.ledger.BelowSafetyStockList(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStatusResponses(rows))
}

// StatusReport godoc
// @Summary      Reporte PDF del estado de stock
// @Tags         stocks
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stocks/status/report [get]
func (h *StockHandler) StatusReport(c *fiber.Ctx) error {
	pdf, filename, err := h.report.StatusReport(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}

// Statistics godoc
// @Summary      Estadísticas de inventario del período
// @Description  Ventana inclusiva en ambos extremos. Rotación = salidas / saldo actual (0 sin stock).
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        productId   path   string  true  "ID del producto"
// @Param        start_date  query  string  true  "RFC3339 o YYYY-MM-DD"
// @Param        end_date    query  string  true  "RFC3339 o YYYY-MM-DD (fin del día)"
// @Success      200  {object}  dto.InventoryStatisticsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stocks/{productId}/statistics [get]
func (h *StockHandler) Statistics(c *fiber.Ctx) error {
	var q dto.StatisticsRequest
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	if q.StartDate == "" || q.EndDate == "" {
		return badRequest(c, "VALIDATION", "start_date y end_date son requeridos")
	}
	start, err := parseDateParam(q.StartDate, false)
	if err != nil {
		return badRequest(c, "VALIDATION", "start_date: formato de fecha inválido")
	}
	end, err := parseDateParam(q.EndDate, true)
	if err != nil {
		return badRequest(c, "VALIDATION", "end_date: formato de fecha inválido")
	}

	stats, err := h.ledger.Statistics(c.UserContext(), pathParam(c, "productId"), start, end)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.InventoryStatisticsResponse{
		ProductID:       stats.ProductID,
		StartDate:       stats.StartDate,
		EndDate:         stats.EndDate,
		TotalInbound:    stats.TotalInbound,
		TotalOutbound:   stats.TotalOutbound,
		CurrentQuantity: stats.CurrentQuantity,
		TurnoverRate:    stats.TurnoverRate,
	})
}

// Deletable godoc
// @Summary      ¿Se puede eliminar el producto?
// @Description  true solo si el saldo es exactamente 0.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "ID del producto"
// @Success      200  {object}  dto.DeletableResponse
// @Router       /api/stocks/{productId}/deletable [get]
func (h *StockHandler) Deletable(c *fiber.Ctx) error {
	productID := pathParam(c, "productId")
	ok, err := h.ledger.CanDeleteProduct(c.UserContext(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.DeletableResponse{ProductID: productID, Deletable: ok})
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Productos bajo su stock de seguridad con la cantidad sugerida de pedido, por prioridad.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/stocks/replenishment-list [get]
func (h *StockHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

func toStatusResponses(rows []entity.StockStatus) []dto.StockStatusResponse {
	out := make([]dto.StockStatusResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.StockStatusResponse{
			ProductID:        r.ProductID,
			Name:             r.Name,
			Category:         r.Category,
			UnitPrice:        r.UnitPrice,
			SafetyStock:      r.SafetyStock,
			CurrentQuantity:  r.CurrentQuantity,
			BelowSafetyStock: r.BelowSafetyStock,
		})
	}
	return out
}

// parseDateParam acepta RFC3339 o YYYY-MM-DD (UTC). Una fecha sin hora usada como fin
// de ventana cubre el día completo.
func parseDateParam(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation(dateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return d.Add(24*time.Hour - time.Nanosecond), nil
	}
	return d, nil
}
