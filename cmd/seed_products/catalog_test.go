package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

const sampleCSV = `name,category,unit_price,safety_stock,initial_quantity
Tornillo 3/8,ferretería,1200.5,10,40
Cinta aislante,eléctricos,3500,,0
`

func TestParseCatalog(t *testing.T) {
	rows, err := parseCatalog(strings.NewReader(sampleCSV), ',')
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Tornillo 3/8", rows[0].Product.Name)
	assert.Equal(t, "1200.5", rows[0].Product.UnitPrice.String())
	assert.Equal(t, int64(10), *rows[0].Product.SafetyStock)
	assert.Equal(t, int64(40), rows[0].InitialQuantity)
	assert.Equal(t, 2, rows[0].Line)

	assert.Equal(t, int64(0), *rows[1].Product.SafetyStock)
	assert.Zero(t, rows[1].InitialQuantity)
}

func TestParseCatalog_Latin1(t *testing.T) {
	encoded, err := charmap.ISO8859_1.NewEncoder().String(sampleCSV)
	require.NoError(t, err)

	r, err := decodeReader(bytes.NewReader([]byte(encoded)), "latin1")
	require.NoError(t, err)
	rows, err := parseCatalog(r, ',')
	require.NoError(t, err)
	assert.Equal(t, "ferretería", rows[0].Product.Category)
}

func TestParseCatalog_PuntoYComaYComaDecimal(t *testing.T) {
	in := "name;category;unit_price;safety_stock;initial_quantity\nCable;eléctricos;2500,75;3;1\n"
	rows, err := parseCatalog(strings.NewReader(in), ';')
	require.NoError(t, err)
	assert.Equal(t, "2500.75", rows[0].Product.UnitPrice.String())
}

func TestParseCatalog_Errores(t *testing.T) {
	cases := map[string]string{
		"encabezado": "nombre,category,unit_price,safety_stock,initial_quantity\n",
		"sin nombre": "name,category,unit_price,safety_stock,initial_quantity\n,x,1,1,1\n",
		"precio":     "name,category,unit_price,safety_stock,initial_quantity\na,x,abc,1,1\n",
		"negativo":   "name,category,unit_price,safety_stock,initial_quantity\na,x,1,-1,1\n",
		"columnas":   "name,category,unit_price,safety_stock,initial_quantity\na,x,1\n",
		"cantidad":   "name,category,unit_price,safety_stock,initial_quantity\na,x,1,1,muchos\n",
	}
	for name, in := range cases {
		_, err := parseCatalog(strings.NewReader(in), ',')
		assert.Error(t, err, name)
	}
}

func TestDecodeReader_CodificacionDesconocida(t *testing.T) {
	_, err := decodeReader(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}

func TestSeed_CreaProductosYEntradaInicial(t *testing.T) {
	store := memory.New()
	ledger := inventory.NewStockLedgerUseCase(
		store.TxRunner(), store.Products(), store.Balances(), store.Ledger(),
		memory.NewIdempotencyStore(time.Hour), nil, zerolog.Nop(),
	)
	products := usecase.NewProductUseCase(store.Products(), ledger)

	rows, err := parseCatalog(strings.NewReader(sampleCSV), ',')
	require.NoError(t, err)

	created, stocked, err := seed(context.Background(), products, ledger, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, stocked)

	status, err := ledger.StatusList(context.Background())
	require.NoError(t, err)
	require.Len(t, status, 2)
	var total int64
	for _, s := range status {
		total += s.CurrentQuantity
	}
	assert.Equal(t, int64(40), total)
}
