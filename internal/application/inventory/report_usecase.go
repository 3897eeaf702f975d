package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// statusLister fuente del reporte (el motor de inventario).
type statusLister interface {
	StatusList(ctx context.Context) ([]entity.StockStatus, error)
}

// ReportUseCase genera el reporte PDF del estado de stock.
type ReportUseCase struct {
	stock     statusLister
	generator StockReportGenerator
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso inyectando la fuente y el generador.
func NewReportUseCase(stock statusLister, generator StockReportGenerator) *ReportUseCase {
	return &ReportUseCase{stock: stock, generator: generator, now: time.Now}
}

// StatusReport devuelve (pdfBytes, filename, nil) con el estado de todos los productos.
func (uc *ReportUseCase) StatusReport(ctx context.Context) ([]byte, string, error) {
	rows, err := uc.stock.StatusList(ctx)
	if err != nil {
		return nil, "", err
	}
	generatedAt := uc.now()
	pdf, err := uc.generator.GenerateStatusReport(ctx, rows, generatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("reporte: generar pdf: %w", err)
	}
	return pdf, fmt.Sprintf("estado-stock-%s.pdf", generatedAt.Format("20060102-1504")), nil
}
