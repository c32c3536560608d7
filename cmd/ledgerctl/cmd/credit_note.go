package cmd

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
	"github.com/jhoicas/billing-reconciliation/internal/domain"
)

var creditNoteCmd = &cobra.Command{
	Use:   "credit-note",
	Short: "Operaciones de notas crédito",
}

var creditNotePreviewCmd = &cobra.Command{
	Use:     "preview <invoice-id>",
	Short:   "Valida una nota crédito contra el tope de la factura sin emitirla",
	Example: `  ledgerctl credit-note preview --company co-1 --base 500 inv-2026-001`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := creditNoteInput(cmd)
		if err != nil {
			return err
		}
		out, err := rt.creditNoteUC.Preview(ctx(cmd), companyID, args[0], in)
		if err != nil {
			return explainCap(err)
		}
		w := newTable(cmd.OutOrStdout())
		fmt.Fprintf(w, "base\t%s\n", out.CreditNote.BaseAmount.StringFixed(2))
		for _, t := range out.CreditNote.TaxComponents {
			fmt.Fprintf(w, "  %s\t%s%%\n", t.Name, t.Rate.String())
		}
		fmt.Fprintf(w, "impuestos\t%s\n", out.CreditNote.TaxAmount.StringFixed(2))
		fmt.Fprintf(w, "total\t%s\n", out.CreditNote.TotalAmount.StringFixed(2))
		fmt.Fprintf(w, "saldo reclamable\t%s\n", out.RemainingAmount.StringFixed(2))
		fmt.Fprintf(w, "base máxima\t%s\n", out.MaxBaseAmount.StringFixed(2))
		return w.Flush()
	},
}

var creditNoteCreateCmd = &cobra.Command{
	Use:   "create <invoice-id>",
	Short: "Emite una nota crédito aprobada",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := creditNoteInput(cmd)
		if err != nil {
			return err
		}
		out, err := rt.creditNoteUC.Create(ctx(cmd), companyID, args[0], in)
		if err != nil {
			return explainCap(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "nota %s emitida por %s\n", out.ID, out.TotalAmount.StringFixed(2))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(creditNoteCmd)
	creditNoteCmd.AddCommand(creditNotePreviewCmd, creditNoteCreateCmd)
	for _, c := range []*cobra.Command{creditNotePreviewCmd, creditNoteCreateCmd} {
		c.Flags().String("base", "", "base gravable de la nota (antes de impuestos)")
		c.Flags().String("reason", "", "motivo")
		_ = c.MarkFlagRequired("base")
	}
}

func creditNoteInput(cmd *cobra.Command) (dto.CreditNoteRequest, error) {
	baseStr, _ := cmd.Flags().GetString("base")
	reason, _ := cmd.Flags().GetString("reason")
	base, err := decimal.NewFromString(baseStr)
	if err != nil {
		return dto.CreditNoteRequest{}, fmt.Errorf("--base %q: %w", baseStr, domain.ErrInvalidAmount)
	}
	return dto.CreditNoteRequest{BaseAmount: base, Reason: reason}, nil
}

func explainCap(err error) error {
	var capErr *domain.CapExceededError
	if errors.As(err, &capErr) {
		return fmt.Errorf("%w; faltan %s para caber", err, capErr.Shortfall().StringFixed(2))
	}
	return err
}
