package runtime

import (
	"fmt"
	"os"
	"period-tracker/domain"

	"github.com/gookit/color"
)

func printBanner(config domain.ServerConfig) {
	mode := "reload disabled"
	if config.Reload {
		mode = "reload enabled"
	}
	fmt.Fprintln(os.Stderr, color.New(color.FgGreen, color.OpBold).Render(
		fmt.Sprintf("Application running on %s (%s, press CTRL+C to quit)", config.URL(), mode),
	))
}

// announce prints host state changes for the operator.
func announce(change domain.StateChange) {
	var style color.Style
	switch change.To {
	case domain.StateServing:
		style = color.New(color.FgGreen)
	case domain.StateRestarting:
		style = color.New(color.FgYellow)
	case domain.StateStopped:
		style = color.New(color.FgRed)
	default:
		style = color.New(color.FgCyan)
	}
	line := fmt.Sprintf("[%s] generation %d", change.To, change.Generation)
	if change.Reason != "" {
		line += ": " + change.Reason
	}
	fmt.Fprintln(os.Stderr, style.Render(line))
}
