package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
// - Default (white/black): command output
// - Accent: command syntaxes, object IDs, file paths
// - Muted (gray): help text, timings, hints
// - No colored success/error/warning - use unicode symbols only

const defaultAccent = "#A78BFA"

var accentColor = defaultAccent

var (
	// Accent style for syntaxes, object IDs, highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info and hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold combines accent color with bold
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent)).Bold(true)
)

// ConfigureTheme sets the accent color from a config value: an ANSI code
// (0-255), a hex color, or "none" to disable it.
func ConfigureTheme(accent string) {
	color, ok := normalizeAccentColor(accent)
	if !ok {
		accentColor = ""
		Accent = lipgloss.NewStyle()
		AccentBold = lipgloss.NewStyle().Bold(true)
		return
	}
	accentColor = color
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	AccentBold = Accent.Bold(true)
}

// AccentColor returns the configured accent color, if any.
func AccentColor() (string, bool) {
	return accentColor, accentColor != ""
}

func normalizeAccentColor(v string) (string, bool) {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "", "none", "off", "default":
		return "", false
	}
	if strings.HasPrefix(v, "#") {
		hex := v[1:]
		if len(hex) == 3 {
			hex = fmt.Sprintf("%c%c%c%c%c%c", hex[0], hex[0], hex[1], hex[1], hex[2], hex[2])
		}
		if len(hex) != 6 {
			return "", false
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return "", false
		}
		return "#" + strings.ToLower(hex), true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 255 {
		return "", false
	}
	return strconv.Itoa(n), true
}
