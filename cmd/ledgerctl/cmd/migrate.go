package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/billing-reconciliation/internal/infrastructure/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Crea las tablas de cartera si no existen",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := postgres.EnsureSchema(ctx(cmd), rt.pool); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "esquema al día")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
