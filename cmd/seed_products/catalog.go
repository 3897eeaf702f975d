package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// catalogRow fila del CSV: name,category,unit_price,safety_stock,initial_quantity.
type catalogRow struct {
	Line            int
	Product         dto.CreateProductRequest
	InitialQuantity int64
}

var expectedHeader = []string{"name", "category", "unit_price", "safety_stock", "initial_quantity"}

// decodeReader envuelve r según la codificación declarada (utf-8 | latin1).
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("codificación no soportada: %q", encoding)
	}
}

// parseCatalog lee el CSV completo. La primera fila debe ser el encabezado; ';' o ',' como separador.
func parseCatalog(r io.Reader, sep rune) ([]catalogRow, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(expectedHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	for i, col := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")), col) {
			return nil, fmt.Errorf("encabezado inválido en columna %d: se esperaba %q", i+1, col)
		}
	}

	var rows []catalogRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		row, err := parseRecord(line, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
}

func parseRecord(line int, rec []string) (catalogRow, error) {
	name := strings.TrimSpace(rec[0])
	if name == "" {
		return catalogRow{}, fmt.Errorf("línea %d: name vacío", line)
	}
	price := decimal.Zero
	if s := strings.TrimSpace(rec[2]); s != "" {
		p, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
		if err != nil {
			return catalogRow{}, fmt.Errorf("línea %d: unit_price %q inválido", line, s)
		}
		price = p
	}
	safety, err := parseInt(rec[3])
	if err != nil {
		return catalogRow{}, fmt.Errorf("línea %d: safety_stock: %w", line, err)
	}
	initial, err := parseInt(rec[4])
	if err != nil {
		return catalogRow{}, fmt.Errorf("línea %d: initial_quantity: %w", line, err)
	}
	return catalogRow{
		Line: line,
		Product: dto.CreateProductRequest{
			Name:        name,
			Category:    strings.TrimSpace(rec[1]),
			UnitPrice:   price,
			SafetyStock: &safety,
		},
		InitialQuantity: initial,
	}, nil
}

// parseInt vacío = 0; negativos no se aceptan.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q no es un entero", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%d es negativo", n)
	}
	return n, nil
}

type productCreator interface {
	Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error)
}

type stockReceiver interface {
	Inbound(ctx context.Context, in inventory.MovementInput) (*entity.Balance, error)
}

// seed crea cada producto y, si initial_quantity > 0, registra su entrada inicial.
// Se detiene en el primer error; devuelve cuántos productos alcanzó a crear.
func seed(ctx context.Context, products productCreator, stock stockReceiver, rows []catalogRow) (created, stocked int, err error) {
	for _, row := range rows {
		p, err := products.Create(ctx, row.Product)
		if err != nil {
			return created, stocked, fmt.Errorf("línea %d (%s): %w", row.Line, row.Product.Name, err)
		}
		created++
		if row.InitialQuantity == 0 {
			continue
		}
		if _, err := stock.Inbound(ctx, inventory.MovementInput{ProductID: p.ID, Quantity: row.InitialQuantity}); err != nil {
			return created, stocked, fmt.Errorf("línea %d (%s): entrada inicial: %w", row.Line, row.Product.Name, err)
		}
		stocked++
	}
	return created, stocked, nil
}
