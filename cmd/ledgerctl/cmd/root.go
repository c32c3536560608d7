package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/jhoicas/billing-reconciliation/internal/application/billing"
	"github.com/jhoicas/billing-reconciliation/internal/infrastructure/postgres"
	"github.com/jhoicas/billing-reconciliation/pkg/config"
	"github.com/jhoicas/billing-reconciliation/pkg/logger"
)

var version = "0.1.0"

// deps dependencias abiertas por PersistentPreRunE.
type deps struct {
	log          *logger.Logger
	pool         *pgxpool.Pool
	ledgerUC     *billing.LedgerUseCase
	creditNoteUC *billing.CreditNoteUseCase
}

var (
	rt        *deps
	companyID string
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Consola de operación de la cartera de facturación",
	Long: `ledgerctl consulta saldos, vencimientos y notas crédito sobre la misma
base de datos que usa la API. Lee la configuración de las mismas variables
de entorno (DATABASE_URL o DB_*, LOG_LEVEL, APP_ENV).`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: open,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rt != nil && rt.pool != nil {
			rt.pool.Close()
		}
	},
}

// Execute punto de entrada del CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if rt != nil {
			rt.log.Error().Err(err).Msg("comando fallido")
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&companyID, "company", "", "empresa (company_id) sobre la que se opera")
}

func open(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("ledgerctl")

	pool, err := postgres.NewPool(ctx(cmd), cfg.DB)
	if err != nil {
		return err
	}
	ledgerRepo := postgres.NewLedgerRepository(pool)
	rt = &deps{
		log:      log,
		pool:     pool,
		ledgerUC: billing.NewLedgerUseCase(ledgerRepo, postgres.NewPaymentRepository(pool)),
		creditNoteUC: billing.NewCreditNoteUseCase(
			postgres.NewTxRunner(pool), ledgerRepo, postgres.NewCreditNoteRepository(pool), log,
		),
	}
	return nil
}

func ctx(cmd *cobra.Command) context.Context {
	if c := cmd.Context(); c != nil {
		return c
	}
	return context.Background()
}
