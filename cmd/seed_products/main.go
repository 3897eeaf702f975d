// seed_products carga un catálogo de productos desde CSV y registra la existencia inicial
// de cada uno como una entrada (INBOUND) a través del motor de inventario.
//
// Uso: go run ./cmd/seed_products -file catalogo.csv [-encoding latin1] [-sep ';'] [-dry-run]
//
// Columnas: name,category,unit_price,safety_stock,initial_quantity
// El almacén se toma de la configuración habitual (STORE_DRIVER, DB_*, MYSQL_DSN).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/storage"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	file := flag.String("file", "catalogo.csv", "ruta del CSV")
	encoding := flag.String("encoding", "utf-8", "codificación del archivo: utf-8 | latin1 | windows-1252")
	sep := flag.String("sep", ",", "separador de columnas")
	dryRun := flag.Bool("dry-run", false, "solo valida el archivo")
	flag.Parse()

	if len([]rune(*sep)) != 1 {
		fmt.Fprintln(os.Stderr, "-sep debe ser un único carácter")
		os.Exit(2)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	r, err := decodeReader(f, *encoding)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	rows, err := parseCatalog(r, []rune(*sep)[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "CSV inválido: %v\n", err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("%s: %d productos válidos\n", *file, len(rows))
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed_products"})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	stores, err := storage.Open(ctx, cfg, log.Component("storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacén")
	}
	defer stores.Close()

	ledger := inventory.NewStockLedgerUseCase(
		stores.TxRunner, stores.Products, stores.Balances, stores.Ledger,
		nil, nil, log.Zerolog(),
	)
	products := usecase.NewProductUseCase(stores.Products, ledger)

	created, stocked, err := seed(ctx, products, ledger, rows)
	if err != nil {
		log.Error().Err(err).Int("created", created).Msg("seed interrumpido")
		os.Exit(1)
	}
	log.Info().Int("products", created).Int("with_stock", stocked).Msg("catálogo cargado")
}
