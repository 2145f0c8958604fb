package cmd

import (
	"github.com/fatih/color"

	"github.com/khanhnv2901/seca-stacks/internal/stacks"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
)

func formatDetectorWithColor(detector stacks.Detector) string {
	switch detector {
	case stacks.DetectorJS:
		return colorInfo(string(detector))
	case stacks.DetectorServer:
		return colorSuccess(string(detector))
	default:
		return string(detector)
	}
}
