package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:     "reconcile <document-id>",
	Short:   "Muestra saldo pendiente y estado derivado de una factura o nota débito",
	Example: `  ledgerctl reconcile --company co-1 inv-2026-001`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := rt.ledgerUC.GetReconciliation(ctx(cmd), companyID, args[0])
		if err != nil {
			return err
		}
		w := newTable(cmd.OutOrStdout())
		fmt.Fprintf(w, "documento\t%s (%s)\n", out.ID, out.Kind)
		fmt.Fprintf(w, "total\t%s\n", out.TotalAmount.StringFixed(2))
		fmt.Fprintf(w, "pagado\t%s\n", out.PaidAmount.StringFixed(2))
		fmt.Fprintf(w, "notas crédito\t%s\n", out.CreditNoteAmount.StringFixed(2))
		fmt.Fprintf(w, "pendiente\t%s\n", out.OutstandingAmount.StringFixed(2))
		fmt.Fprintf(w, "estado\t%s\n", out.Status)
		fmt.Fprintf(w, "vence\t%s\n", out.DueDate)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
