package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sjperalta/fintera-rentals/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a contract's recognition schedule to XLSX or CSV",
	Long: `Writes the day-by-day recognition schedule of a contract. Without --out the
file is stored under STORAGE_PATH/exports.`,
	Example: `  ledgerctl export --contract-id 6f1c... --format csv --out schedule.csv`,
	RunE:    runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("contract-id", "", "Contract to export")
	exportCmd.Flags().String("as-of", "", "Schedule date (format: YYYY-MM-DD, default: today)")
	exportCmd.Flags().String("format", "xlsx", "Output format: xlsx or csv")
	exportCmd.Flags().String("out", "", "Output file (default: store under STORAGE_PATH/exports)")
	_ = exportCmd.MarkFlagRequired("contract-id")
}

func runExport(cmd *cobra.Command, args []string) error {
	contractID, _ := cmd.Flags().GetString("contract-id")
	asOfStr, _ := cmd.Flags().GetString("as-of")
	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	asOf, err := parseAsOf(asOfStr, appConfig.Location)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		data     []byte
		filename string
	)
	switch format {
	case "xlsx":
		data, filename, err = a.svcs.Export.ExportXLSX(cmd.Context(), contractID, asOf)
	case "csv":
		data, filename, err = a.svcs.Export.ExportCSV(cmd.Context(), contractID, asOf)
	default:
		return fmt.Errorf("unsupported format %q, use xlsx or csv", format)
	}
	if err != nil {
		return err
	}

	if outPath == "" {
		store, err := storage.NewLocalStorage(a.cfg.StoragePath)
		if err != nil {
			return err
		}
		rel, err := store.SaveBytes(data, filename, "exports")
		if err != nil {
			return err
		}
		outPath = store.GetFullPath(rel)
	} else if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", outPath)
	return nil
}
