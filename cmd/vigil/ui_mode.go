package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// toggle is the value of an auto|on|off flag.
type toggle string

const (
	toggleAuto toggle = "auto"
	toggleOn   toggle = "on"
	toggleOff  toggle = "off"
)

func readToggle(flag, value string) (toggle, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return toggleAuto, nil
	case "on", "true", "always":
		return toggleOn, nil
	case "off", "false", "never":
		return toggleOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// enabled resolves auto against whether f is a terminal.
func (t toggle) enabled(f *os.File) bool {
	switch t {
	case toggleOn:
		return true
	case toggleOff:
		return false
	default:
		return isTerminal(f)
	}
}

// useColor reads --color. Auto also honours NO_COLOR through fatih/color.
func useColor(cmd *cobra.Command) (bool, error) {
	value, err := cmd.Flags().GetString("color")
	if err != nil {
		return false, err
	}
	mode, err := readToggle("color", value)
	if err != nil {
		return false, err
	}
	if mode == toggleAuto {
		return !color.NoColor && isTerminal(os.Stdout), nil
	}
	return mode == toggleOn, nil
}

// withColorMode runs fn with fatih/color forced on or off.
func withColorMode(enabled bool, fn func()) {
	prev := color.NoColor
	color.NoColor = !enabled
	defer func() { color.NoColor = prev }()
	fn()
}
