package screen

import (
	"fmt"
	"io"

	"github.com/bryanchriswhite/ScaleShot/internal/display"
	"github.com/bryanchriswhite/ScaleShot/internal/scaling"
)

// Description is the JSON view of a display and its scale.
type Description struct {
	Index   int             `json:"index"`
	Display display.Info    `json:"display"`
	Scaling scaling.Summary `json:"scaling"`
}

// Describe returns the JSON view of d at position index.
func (d *DisplayCapture) Describe(index int) Description {
	return Description{
		Index:   index,
		Display: d.info,
		Scaling: d.scaling.Summary(),
	}
}

// PrintDisplayInfo writes a tree of every display and scaling field.
// index is zero-based and printed one-based.
func (d *DisplayCapture) PrintDisplayInfo(w io.Writer, index int) error {
	info := d.info
	cfg := d.scaling

	primary := "No"
	if info.Primary {
		primary = "Yes"
	}

	dpi := fmt.Sprintf("%.2fx (%.0f%%)", cfg.DPIScale(), cfg.DPIScale()*100)
	if cfg.UsedFallback() {
		dpi += " [fallback: " + cfg.FallbackReason() + "]"
	}

	lines := []string{
		fmt.Sprintf("📺 Display #%d", index+1),
		fmt.Sprintf("├─ ID: %s", info.ID),
		fmt.Sprintf("├─ Position: (%d, %d)", info.Position.X, info.Position.Y),
		"├─ Resolution",
		fmt.Sprintf("│  ├─ Logical:  %s", info.Logical),
		fmt.Sprintf("│  └─ Physical: %s", info.Physical),
		"├─ Scaling",
		fmt.Sprintf("│  ├─ DPI Scale:   %s", dpi),
		fmt.Sprintf("│  ├─ Extra Scale: %s", axisPair(cfg.X().Extra, cfg.Y().Extra)),
		fmt.Sprintf("│  └─ Total Scale: %s (%s%%)", axisPair(cfg.X().Total, cfg.Y().Total), cfg.Percent()),
		fmt.Sprintf("├─ Rotation: %d°", info.Rotation),
		fmt.Sprintf("└─ Primary: %s", primary),
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func axisPair(x, y float64) string {
	if fmt.Sprintf("%.4f", x) == fmt.Sprintf("%.4f", y) {
		return fmt.Sprintf("%.4gx", x)
	}
	return fmt.Sprintf("%.4gx × %.4gx", x, y)
}
