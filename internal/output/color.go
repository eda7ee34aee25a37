// Package output provides styled terminal rendering helpers for focustrack.
package output

import "github.com/charmbracelet/lipgloss"

// Color constants for consistent styling across the CLI. The focus palette
// mirrors the dashboard: green when locked in, red when attention is gone.
var (
	// ColorPrimary is used for headers and emphasis.
	ColorPrimary = lipgloss.Color("#64b5f6")

	// ColorFocused is used for scores in the top band.
	ColorFocused = lipgloss.Color("#66bb6a")

	// ColorDrifting is used for mid-band scores.
	ColorDrifting = lipgloss.Color("#fff59d")

	// ColorSlipping is used for scores approaching intervention territory.
	ColorSlipping = lipgloss.Color("#ffb74d")

	// ColorLost is used for bottom-band scores and error text.
	ColorLost = lipgloss.Color("#ef5350")

	// ColorMuted is used for secondary text and borders.
	ColorMuted = lipgloss.Color("#888888")
)

// Styles provides reusable lipgloss styles.
var (
	// StyleHeader is used for section headers.
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	// StyleFocused is used for healthy focus values.
	StyleFocused = lipgloss.NewStyle().
			Foreground(ColorFocused)

	// StyleDrifting is used for mid-range focus values.
	StyleDrifting = lipgloss.NewStyle().
			Foreground(ColorDrifting)

	// StyleSlipping is used for low focus values.
	StyleSlipping = lipgloss.NewStyle().
			Foreground(ColorSlipping)

	// StyleLost is used for bottom-band values and errors.
	StyleLost = lipgloss.NewStyle().
			Foreground(ColorLost)

	// StyleMuted is used for de-emphasized text.
	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StyleBold is used for emphasized text.
	StyleBold = lipgloss.NewStyle().
			Bold(true)
)

// noColor tracks whether color output is disabled.
var noColor bool

// SetNoColor disables or enables color output globally.
// When disabled, all package-level styles are reassigned to unstyled renderers.
func SetNoColor(disabled bool) {
	noColor = disabled
	if disabled {
		plain := lipgloss.NewStyle()
		StyleHeader = plain
		StyleFocused = plain
		StyleDrifting = plain
		StyleSlipping = plain
		StyleLost = plain
		StyleMuted = plain
		StyleBold = plain
	}
}

// IsNoColor returns whether color output is currently disabled.
func IsNoColor() bool {
	return noColor
}

// ScoreStyle returns the style for a focus score, cut at the intervention
// bands: >=80 focused, >=60 drifting, >=40 slipping, below that lost.
func ScoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 80:
		return StyleFocused
	case score >= 60:
		return StyleDrifting
	case score >= 40:
		return StyleSlipping
	default:
		return StyleLost
	}
}
