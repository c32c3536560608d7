package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Lista documentos por ventana de vencimiento",
	Long: `Lista facturas y notas débito de la empresa que caen en la ventana indicada
a la fecha de corte. Ventanas: all, overdue, next:N (N días; incluye vencidos).`,
	Example: `  ledgerctl due --company co-1 --window overdue
  ledgerctl due --company co-1 --window next:10 --as-of 2026-10-15`,
	RunE: runDue,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totales de cartera por estado dentro de la ventana",
	RunE: func(cmd *cobra.Command, args []string) error {
		window, _ := cmd.Flags().GetString("window")
		asOf, _ := cmd.Flags().GetString("as-of")
		out, err := rt.ledgerUC.Summary(ctx(cmd), companyID, window, asOf)
		if err != nil {
			return err
		}
		w := newTable(cmd.OutOrStdout())
		fmt.Fprintf(w, "ventana\t%s a %s\n", out.Window, out.AsOf)
		fmt.Fprintf(w, "documentos\t%d\n", out.Documents)
		fmt.Fprintf(w, "total\t%s\n", out.TotalAmount.StringFixed(2))
		fmt.Fprintf(w, "pagado\t%s\n", out.PaidAmount.StringFixed(2))
		fmt.Fprintf(w, "notas crédito\t%s\n", out.CreditNoteAmount.StringFixed(2))
		fmt.Fprintf(w, "pendiente\t%s\n", out.Outstanding.StringFixed(2))
		for _, st := range []string{"PAID", "PARTIALLY_PAID", "UNPAID"} {
			fmt.Fprintf(w, "%s\t%d\n", st, out.ByStatus[st])
		}
		return w.Flush()
	},
}

var agingCmd = &cobra.Command{
	Use:   "aging",
	Short: "Cartera repartida por ventanas de vencimiento",
	Long: `Agrupa la cartera en varias ventanas a la vez. Las ventanas se solapan:
next:N incluye los vencidos.`,
	Example: `  ledgerctl aging --company co-1
  ledgerctl aging --company co-1 --windows overdue,next:15,next:60`,
	RunE: func(cmd *cobra.Command, args []string) error {
		windows, _ := cmd.Flags().GetString("windows")
		asOf, _ := cmd.Flags().GetString("as-of")
		out, err := rt.ledgerUC.Aging(ctx(cmd), companyID, windows, asOf)
		if err != nil {
			return err
		}
		return printAging(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(dueCmd, summaryCmd, agingCmd)
	agingCmd.Flags().String("windows", "", "ventanas separadas por coma (por defecto overdue,next:7,next:30,all)")
	agingCmd.Flags().String("as-of", "", "fecha de corte YYYY-MM-DD (por defecto hoy)")
	for _, c := range []*cobra.Command{dueCmd, summaryCmd} {
		c.Flags().String("window", "all", "ventana: all | overdue | next:N")
		c.Flags().String("as-of", "", "fecha de corte YYYY-MM-DD (por defecto hoy)")
	}
	dueCmd.Flags().String("client", "", "filtrar por cliente")
	dueCmd.Flags().String("kind", "", "invoice | debit_note")
	dueCmd.Flags().Int("limit", 100, "máximo de documentos")
}

func runDue(cmd *cobra.Command, _ []string) error {
	window, _ := cmd.Flags().GetString("window")
	asOf, _ := cmd.Flags().GetString("as-of")
	client, _ := cmd.Flags().GetString("client")
	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")

	out, err := rt.ledgerUC.List(ctx(cmd), companyID, dto.LedgerQuery{
		Kind:        kind,
		ClientID:    client,
		Window:      window,
		AsOf:        asOf,
		PageRequest: dto.PageRequest{Limit: limit},
	})
	if err != nil {
		return err
	}
	rt.log.Debug().Str("window", out.Window).Int("items", len(out.Items)).Msg("ventana consultada")

	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tTIPO\tCLIENTE\tVENCE\tTOTAL\tPENDIENTE\tESTADO\tVENCIDO")
	for _, it := range out.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			it.ID, it.Kind, it.ClientID, it.DueDate,
			it.TotalAmount.StringFixed(2), it.OutstandingAmount.StringFixed(2), it.Status, it.Overdue)
	}
	return w.Flush()
}

func printAging(out io.Writer, a *dto.LedgerAgingResponse) error {
	w := newTable(out)
	fmt.Fprintf(w, "corte %s\n", a.AsOf)
	fmt.Fprintln(w, "VENTANA\tDOCUMENTOS\tTOTAL\tPENDIENTE")
	for _, b := range a.Buckets {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", b.Window, b.Documents, b.TotalAmount.StringFixed(2), b.Outstanding.StringFixed(2))
	}
	return w.Flush()
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}
