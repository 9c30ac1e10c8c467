package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Terminal palette. The accent matches the ocean colour of the map.
var (
	colorCyan  = lipgloss.Color("38")
	colorGreen = lipgloss.Color("35")
	colorAmber = lipgloss.Color("214")
	colorRed   = lipgloss.Color("167")
	colorBlue  = lipgloss.Color("75")
	colorWhite = lipgloss.Color("255")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

// Styles shared by commands and the explore view.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleNumber    = lipgloss.NewStyle().Foreground(colorCyan)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorAmber)
)

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleFresh       = lipgloss.NewStyle().Foreground(colorGray)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// status prints one line led by a coloured icon.
func status(color lipgloss.Color, icon, format string, args ...any) {
	fmt.Println(lipgloss.NewStyle().Foreground(color).Render(icon) + " " + fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { status(colorGreen, iconSuccess, format, args...) }

func printError(format string, args ...any) { status(colorRed, iconError, format, args...) }

func printInfo(format string, args ...any) { status(colorGray, iconInfo, format, args...) }

func printWarning(format string, args ...any) {
	status(colorAmber, iconWarning, "%s", StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints "N countries · metric year · cached|fresh".
func printStats(countries, year int, metric string, cached bool) {
	var parts []string
	if countries > 0 {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%d countries", countries)))
	}
	if metric != "" {
		parts = append(parts, StyleDim.Render(fmt.Sprintf("%s %d", metric, year)))
	}
	if cached {
		parts = append(parts, styleCached.Render("cached"))
	} else {
		parts = append(parts, styleFresh.Render("fresh"))
	}
	fmt.Println("  " + strings.Join(parts, StyleDim.Render(" · ")))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
