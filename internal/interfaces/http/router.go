package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/ws"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockLedger   *inventory.StockLedgerUseCase
	Replenishment *inventory.ReplenishmentUseCase
	Report        *inventory.ReportUseCase
	ProductUC     *usecase.ProductUseCase
	Hub           *ws.Hub // opcional
	JWTSecret     string  // vacío = sin autenticación
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleOperator)
	admins := RequireRole(jwt.RoleAdmin)

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Stocks: las rutas fijas van antes que las de :productId.
	stocks := api.Group("/stocks")
	stockHandler := NewStockHandler(deps.StockLedger, deps.Replenishment, deps.Report)
	stocks.Get("/status", stockHandler.StatusList)
	stocks.Get("/status/below-safety", stockHandler.BelowSafetyStock)
	stocks.Get("/status/report", stockHandler.StatusReport)
	stocks.Get("/replenishment-list", stockHandler.GetReplenishmentList)
	stocks.Post("/:productId/inbound", writers, stockHandler.Inbound)
	stocks.Post("/:productId/outbound", writers, stockHandler.Outbound)
	stocks.Get("/:productId/histories", stockHandler.History)
	stocks.Get("/:productId/statistics", stockHandler.Statistics)
	stocks.Get("/:productId/deletable", stockHandler.Deletable)

	// Products (catálogo)
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", admins, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", admins, productHandler.Update)
	products.Delete("/:id", admins, productHandler.Delete)

	// WebSocket de movimientos
	if deps.Hub != nil {
		app.Use("/ws", ws.UpgradeRequired)
		app.Get("/ws/stocks", deps.Hub.Handler())
	}
}
