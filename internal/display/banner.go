package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

// RenderBanner returns the banner art with tagline under it, centred as a
// block for the current terminal width.
func RenderBanner(tagline string) string {
	art := strings.TrimRight(bannerRaw, "\n")
	block := BannerStyle.Render(art)
	if tagline != "" {
		block = lipgloss.JoinVertical(lipgloss.Center, block, "", secondaryStyle.Render(tagline))
	}
	return lipgloss.PlaceHorizontal(termWidth(), lipgloss.Center, block) + "\n"
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
