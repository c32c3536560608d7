package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/billing-reconciliation/pkg/config"
	pkgjwt "github.com/jhoicas/billing-reconciliation/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Emite un Bearer token para un operador o para la pasarela de pagos",
	Example: `  ledgerctl token --company co-1 --user ops-1 --role cartera
  ledgerctl token --company co-1 --user gateway --role pasarela --minutes 525600`,
	// No abre la base de datos.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("cargar configuración: %w", err)
		}
		user, _ := cmd.Flags().GetString("user")
		role, _ := cmd.Flags().GetString("role")
		minutes, _ := cmd.Flags().GetInt("minutes")
		if minutes <= 0 {
			minutes = cfg.JWT.Expiration
		}
		tok, err := pkgjwt.Generate(cfg.JWT.Secret, pkgjwt.Identity{
			UserID:    user,
			CompanyID: companyID,
			Role:      role,
		}, cfg.JWT.Issuer, minutes)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("user", "", "user_id del operador")
	tokenCmd.Flags().String("role", "consulta", "admin | cartera | consulta | pasarela")
	tokenCmd.Flags().Int("minutes", 0, "vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	_ = tokenCmd.MarkFlagRequired("user")
}
