package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bryanchriswhite/ScaleShot/internal/logger"
	"github.com/bryanchriswhite/ScaleShot/internal/screen"
	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture a logical region of one or more displays",
	Long: `Capture a region given in logical (scaled) coordinates and save it at
full physical resolution.

Without --display or --point every display is captured. Without an area the
whole display is captured. A failure on one display is reported and the
remaining displays are still captured.`,
	Example: `  # Full capture of every display
  scaleshot capture

  # 300x300 logical region of display 2
  scaleshot capture --display 2 --x 300 --y 300 --width 300 --height 300

  # Region of whichever display contains logical point (100, 100)
  scaleshot capture --point 100,100 --x 300 --y 300 --width 300 --height 300

  # Custom output directory and base name
  scaleshot capture --out /tmp/shots --name bugreport`,
	RunE: runCapture,
}

var (
	captureDisplay int
	capturePoint   []int
	captureArea    screen.Request
	captureFull    bool
	captureOut     string
	captureName    string
)

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().IntVarP(&captureDisplay, "display", "d", 0, "display number as shown by 'list' (default all)")
	captureCmd.Flags().IntSliceVarP(&capturePoint, "point", "p", nil, "select the display containing logical point X,Y")
	captureCmd.Flags().IntVar(&captureArea.X, "x", 0, "logical x of the region, relative to the display")
	captureCmd.Flags().IntVar(&captureArea.Y, "y", 0, "logical y of the region, relative to the display")
	captureCmd.Flags().IntVar(&captureArea.Width, "width", 0, "logical width of the region")
	captureCmd.Flags().IntVar(&captureArea.Height, "height", 0, "logical height of the region")
	captureCmd.Flags().BoolVar(&captureFull, "full", false, "capture the whole display")
	captureCmd.Flags().StringVarP(&captureOut, "out", "o", "", "output directory (default from config)")
	captureCmd.Flags().StringVarP(&captureName, "name", "n", "", "file base name (default from config)")

	captureCmd.MarkFlagsMutuallyExclusive("display", "point")
	captureCmd.MarkFlagsMutuallyExclusive("full", "x")
	captureCmd.MarkFlagsMutuallyExclusive("full", "y")
	captureCmd.MarkFlagsMutuallyExclusive("full", "width")
	captureCmd.MarkFlagsMutuallyExclusive("full", "height")
	captureCmd.MarkFlagsRequiredTogether("width", "height")
}

func runCapture(cmd *cobra.Command, args []string) error {
	start := time.Now()

	full, err := wantsFull(cmd.Flags().Changed, captureFull)
	if err != nil {
		return err
	}

	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	targets, err := selectDisplays(sess.displays, captureDisplay, capturePoint)
	if err != nil {
		return err
	}

	outDir := sess.config.Output.Dir
	if captureOut != "" {
		outDir = captureOut
	}
	baseName := sess.config.Output.BaseName
	if captureName != "" {
		baseName = captureName
	}

	var failed int
	for _, d := range targets {
		if err := captureOne(os.Stdout, d, full, captureArea, baseName, outDir); err != nil {
			failed++
			logger.WithDisplay("cli", d.Info().ID).Error().Err(err).Msg("Capture failed")
			fmt.Printf("❌ %s: %v\n", d.Info().ID, err)
		}
	}

	fmt.Printf("Time elapsed: %v\n", time.Since(start).Round(time.Millisecond))

	if failed > 0 {
		return fmt.Errorf("%d of %d captures failed", failed, len(targets))
	}
	return nil
}

// wantsFull decides between a full and an area capture. An origin without
// a size is an error rather than a silent full capture.
func wantsFull(changed func(name string) bool, full bool) (bool, error) {
	if full {
		return true, nil
	}
	if changed("width") {
		return false, nil
	}
	if changed("x") || changed("y") {
		return false, fmt.Errorf("--x/--y need --width and --height (or use --full)")
	}
	return true, nil
}

// selectDisplays narrows displays by one-based number or logical point.
func selectDisplays(displays []*screen.DisplayCapture, number int, point []int) ([]*screen.DisplayCapture, error) {
	switch {
	case len(point) > 0:
		if len(point) != 2 {
			return nil, fmt.Errorf("--point takes X,Y, got %v", point)
		}
		d, err := screen.FromPoint(displays, point[0], point[1])
		if err != nil {
			return nil, err
		}
		return []*screen.DisplayCapture{d}, nil
	case number != 0:
		if number < 1 || number > len(displays) {
			return nil, fmt.Errorf("display %d not found (have %d)", number, len(displays))
		}
		return displays[number-1 : number], nil
	default:
		return displays, nil
	}
}

func captureOne(out io.Writer, d *screen.DisplayCapture, full bool, area screen.Request, baseName, outDir string) error {
	var (
		res *screen.Result
		err error
	)
	if full {
		res, err = d.CaptureFull()
	} else {
		res, err = d.CaptureScaledArea(area.X, area.Y, area.Width, area.Height)
	}
	if err != nil {
		return err
	}

	path, err := d.SaveScreenshot(res.Image, baseName, res.Logical, outDir)
	if err != nil {
		return err
	}

	ew, eh := d.Scaling().ScaleDimension(res.Logical.Width, res.Logical.Height)
	actual := res.Image.Bounds().Size()

	fmt.Fprintf(out, "📸 %s\n", d.Info().ID)
	fmt.Fprintf(out, "├─ Logical:  %s\n", res.Logical)
	fmt.Fprintf(out, "├─ Expected: %dx%d\n", ew, eh)
	fmt.Fprintf(out, "├─ Actual:   %dx%d\n", actual.X, actual.Y)
	fmt.Fprintf(out, "└─ Saved:    %s\n", path)
	return nil
}
