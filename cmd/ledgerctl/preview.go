package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:     "preview",
	Short:   "Show what recognition would post for a contract, without posting",
	Example: `  ledgerctl preview --contract-id 6f1c... --as-of 2025-02-01`,
	RunE:    runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().String("contract-id", "", "Contract to preview")
	previewCmd.Flags().String("as-of", "", "Recognition date (format: YYYY-MM-DD, default: today)")
	_ = previewCmd.MarkFlagRequired("contract-id")
}

func runPreview(cmd *cobra.Command, args []string) error {
	contractID, _ := cmd.Flags().GetString("contract-id")
	asOfStr, _ := cmd.Flags().GetString("as-of")

	asOf, err := parseAsOf(asOfStr, appConfig.Location)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.svcs.Contract.RecognitionStatus(cmd.Context(), contractID, asOf)
	if err != nil {
		return err
	}

	c := status.Contract
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Contract %s (%s)\n", c.ContractNumber, c.Status)
	fmt.Fprintf(out, "Recognised: revenue %s %s, VAT %s %s\n",
		c.Currency, status.RecognizedRevenue.StringFixed(2), c.Currency, status.RecognizedVAT.StringFixed(2))

	if status.Outstanding == nil {
		fmt.Fprintf(out, "Nothing to post: %s\n", status.Note)
		return nil
	}

	s := status.Outstanding
	if s.Outstanding() == 0 {
		fmt.Fprintf(out, "Nothing to post as of %s\n", s.AsOf.Format("2006-01-02"))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tDAY\tDATE\tAMOUNT")
	for _, d := range s.Revenue {
		fmt.Fprintf(w, "revenue\t%d\t%s\t%s\n", d.Day, d.Date.Format("2006-01-02"), d.Amount.StringFixed(2))
	}
	for _, d := range s.VAT {
		fmt.Fprintf(w, "vat\t%d\t%s\t%s\n", d.Day, d.Date.Format("2006-01-02"), d.Amount.StringFixed(2))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Would post: revenue %s %s, VAT %s %s\n",
		c.Currency, s.RevenueTotal().StringFixed(2), c.Currency, s.VATTotal().StringFixed(2))
	return nil
}
