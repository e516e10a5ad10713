package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var ledgerLimit int

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the handled-post ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently handled posts",
	RunE:  runLedgerList,
}

var ledgerCheckCmd = &cobra.Command{
	Use:   "check <post-id>",
	Short: "Report whether a post has been handled",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerCheck,
}

func init() {
	ledgerListCmd.Flags().IntVarP(&ledgerLimit, "limit", "n", 20, "maximum number of records")

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerCheckCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerList(cmd *cobra.Command, _ []string) error {
	if err := requireRuntime(); err != nil {
		return err
	}
	ledger, err := appRuntime.Ledger(cmd.Context(), settings)
	if err != nil {
		return err
	}

	records, err := ledger.Recent(cmd.Context(), ledgerLimit)
	if err != nil {
		return err
	}
	total, err := ledger.Total(cmd.Context())
	if err != nil {
		return err
	}

	if len(records) == 0 {
		cmd.Println("No handled posts.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "POST\tNUMBER\tHANDLED AT")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t@%d\t%s\n", r.PostID, r.PostNumber, r.AnsweredAt.Local().Format("2006-01-02 15:04:05"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	cmd.Printf("\nShowing %d of %d handled posts\n", len(records), total)
	return nil
}

func runLedgerCheck(cmd *cobra.Command, args []string) error {
	if err := requireRuntime(); err != nil {
		return err
	}
	ledger, err := appRuntime.Ledger(cmd.Context(), settings)
	if err != nil {
		return err
	}

	handled, err := ledger.IsHandled(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if handled {
		cmd.Printf("%s: handled\n", args[0])
	} else {
		cmd.Printf("%s: not handled\n", args[0])
	}
	return nil
}
