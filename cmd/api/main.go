package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/billing-reconciliation/docs"
	"github.com/jhoicas/billing-reconciliation/internal/application/billing"
	"github.com/jhoicas/billing-reconciliation/internal/application/payment"
	"github.com/jhoicas/billing-reconciliation/internal/domain/reconciliation"
	"github.com/jhoicas/billing-reconciliation/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/billing-reconciliation/internal/interfaces/http"
	"github.com/jhoicas/billing-reconciliation/pkg/config"
	"github.com/jhoicas/billing-reconciliation/pkg/logger"
)

// @title                       Billing Reconciliation API
// @version                     1.0
// @description                 Conciliación de cartera, notas crédito con tope y confirmación de pagos.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	ledgerRepo := postgres.NewLedgerRepository(pool)
	creditNoteRepo := postgres.NewCreditNoteRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	ledgerUC := billing.NewLedgerUseCase(ledgerRepo, paymentRepo)
	creditNoteUC := billing.NewCreditNoteUseCase(txRunner, ledgerRepo, creditNoteRepo, log)
	paymentUC := billing.NewPaymentUseCase(txRunner, log)

	// Polling de confirmación: espera k × base antes del intento k.
	coordinator := payment.NewCoordinator(ledgerRepo, payment.Config{
		MaxAttempts: cfg.Payment.ConfirmMaxAttempts,
		BaseDelay:   cfg.Payment.ConfirmBaseDelay,
		Confirmed:   reconciliation.PaymentReflected,
	}, log)
	confirmations := payment.NewConfirmationService(coordinator, cfg.Payment.OutcomeTTL, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Billing Reconciliation API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		LedgerUC:      ledgerUC,
		CreditNoteUC:  creditNoteUC,
		PaymentUC:     paymentUC,
		Confirmations: confirmations,
		JWTSecret:     cfg.JWT.Secret,
		AppName:       cfg.App.Name,
		Ping:          pool.Ping,
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
		log.Error().Err(err).Msg("apagado del servidor")
	}
	// Cancela los polling pendientes; sus resultados dejan de importar.
	if err := confirmations.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de confirmaciones")
	}

	log.Info().Msg("aplicación detenida")
}
