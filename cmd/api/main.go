package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	_ "github.com/jhoicas/stock-ledger/docs"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// @title        Stock Ledger API
// @version      1.0
// @description  Ledger de stock multi-ubicación: transacciones append-only y saldos materializados.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal().Err(err).Msg("aplicación finalizada con error")
	}
	log.Info().Msg("aplicación detenida")
}

// run arma dependencias y sirve hasta SIGINT/SIGTERM; los recursos abiertos se cierran al volver.
func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	// Puertos del ledger según LEDGER_STORE.
	var (
		txRunner     ledger.TxRunner
		productRepo  repository.ProductRepository
		locationRepo repository.LocationRepository
		auditRepo    repository.AuditLogRepository
		txReader     repository.StockTransactionReader
		balances     repository.StockBalanceReader
	)
	switch cfg.Ledger.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		if cfg.Ledger.SeedFile != "" {
			if err := store.LoadCatalogFile(cfg.Ledger.SeedFile); err != nil {
				return fmt.Errorf("cargar catálogo %s: %w", cfg.Ledger.SeedFile, err)
			}
		}
		txRunner = store
		productRepo, locationRepo, auditRepo = store.Products(), store.Locations(), store.Audit()
		txReader, balances = store.Transactions(), store.Balances()
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool, cfg.Ledger.Isolation)
		productRepo = postgres.NewProductRepository(pool)
		locationRepo = postgres.NewLocationRepository(pool)
		auditRepo = postgres.NewAuditLogRepository(pool)
		txReader = postgres.NewStockTransactionRepository(pool)
		balances = postgres.NewStockBalanceRepository(pool)
	}

	// Caché de totales (opcional).
	var totals ledger.StockTotalCache
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, caché de totales desactivada")
		} else {
			defer client.Close()
			totals = cache.NewStockTotalCache(client, cfg.Redis.CacheTTL)
		}
	}

	recordUC := ledger.NewRecordTransactionUseCase(txRunner, productRepo, locationRepo, auditRepo, totals, log, ledger.Config{
		MaxRetries:   cfg.Ledger.MaxRetries,
		RetryBackoff: cfg.Ledger.RetryBackoff,
		AuditTimeout: cfg.Ledger.AuditTimeout,
	})
	queryUC := ledger.NewQueryUseCase(txReader, balances, productRepo, locationRepo, totals, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Ledger.Store})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RecordTransaction: recordUC,
		Query:             queryUC,
		Logger:            log,
		JWTSecret:         cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("apagado del servidor: %w", err)
	}
	return nil
}
