package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bryanchriswhite/ScaleShot/internal/screen"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List displays and their scaling",
	Long: `List every connected display with its logical and physical resolution,
DPI scale, extra scale and total scale.

The total scale is what maps a logical coordinate to a physical pixel.`,
	Example: `  # Show a tree per display (default)
  scaleshot list

  # Compact table
  scaleshot list --format table

  # JSON for scripting
  scaleshot list --format json`,
	RunE: runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "tree", "output format (tree, table or json)")
}

func runList(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	return printDisplays(os.Stdout, sess.displays, listFormat)
}

func printDisplays(out io.Writer, displays []*screen.DisplayCapture, format string) error {
	switch format {
	case "json":
		descriptions := make([]screen.Description, 0, len(displays))
		for i, d := range displays {
			descriptions = append(descriptions, d.Describe(i))
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(descriptions)
	case "table":
		return printDisplaysTable(out, displays)
	case "tree":
		for i, d := range displays {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if err := d.PrintDisplayInfo(out, i); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (use 'tree', 'table' or 'json')", format)
	}
}

func printDisplaysTable(out io.Writer, displays []*screen.DisplayCapture) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "#\tID\tLOGICAL\tPHYSICAL\tDPI\tTOTAL\tPRIMARY")
	fmt.Fprintln(w, "-\t--\t-------\t--------\t---\t-----\t-------")

	for i, d := range displays {
		info := d.Info()
		cfg := d.Scaling()

		primary := "No"
		if info.Primary {
			primary = "Yes"
		}
		dpi := fmt.Sprintf("%.2f", cfg.DPIScale())
		if cfg.UsedFallback() {
			dpi += "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s%%\t%s\n",
			i+1, info.ID, info.Logical, info.Physical, dpi, cfg.Percent(), primary)
	}

	return nil
}
