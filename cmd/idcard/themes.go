package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/noah-isme/idcard-api/internal/models"
	"github.com/noah-isme/idcard-api/internal/service"
	"github.com/noah-isme/idcard-api/pkg/colorconv"
)

var nameStyle = lipgloss.NewStyle().Bold(true).Width(8)

func newThemesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List the card color presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, theme := range service.NewThemeService().Themes() {
				fmt.Fprintln(cmd.OutOrStdout(), themeLine(theme))
			}
			return nil
		},
	}
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <color>",
		Short: "Convert a CSS color (rgb, lab, lch, oklab, oklch) to hex",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hex := colorconv.Normalize(strings.Join(args, " "))
			printSwatchLine(cmd.OutOrStdout(), hex)
			return nil
		},
	}
}

func themeLine(theme models.Theme) string {
	s := theme.Scheme
	return lipgloss.JoinHorizontal(lipgloss.Top,
		nameStyle.Render(theme.Name),
		swatch(s.Primary), swatch(s.Secondary), swatch(s.Accent), swatch(s.Text),
		" ", strings.Join([]string{s.Primary, s.Secondary, s.Accent, s.Text}, " "),
	)
}

func swatch(hex string) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ")
}

func printSwatchLine(w io.Writer, hex string) {
	fmt.Fprintf(w, "%s %s\n", hex, swatch(hex))
}
