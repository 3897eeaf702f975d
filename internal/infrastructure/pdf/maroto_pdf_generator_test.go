package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func TestGenerateStatusReport_ProducePDF(t *testing.T) {
	g := NewMarotoPDFGenerator("")
	rows := []entity.StockStatus{
		{ProductID: "p-1", Name: "Tornillo", Category: "ferretería", UnitPrice: decimal.NewFromInt(1200), SafetyStock: 10, CurrentQuantity: 9, BelowSafetyStock: true},
		{ProductID: "p-2", Name: "Cable", UnitPrice: decimal.NewFromInt(5000), SafetyStock: 0, CurrentQuantity: 40},
	}

	out, err := g.GenerateStatusReport(context.Background(), rows, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateStatusReport_SinFilas(t *testing.T) {
	out, err := NewMarotoPDFGenerator("Inventario").GenerateStatusReport(context.Background(), nil, time.Now())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateStatusReport_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMarotoPDFGenerator("").GenerateStatusReport(ctx, nil, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":        "0",
		"999":      "999",
		"25000":    "25.000",
		"1000000":  "1.000.000",
		"-1000000": "-1.000.000",
		"-12":      "-12",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(in), in)
	}
}
