package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/alanmeadows/langbridge/internal/langgraph"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check that the LangGraph server is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		labelStyle := lipgloss.NewStyle().Bold(true)
		okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

		out := cmd.OutOrStdout()
		cfg := appConfig

		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Server:   "), cfg.Server.URL)
		if cfg.Server.AssistantID != "" {
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Assistant:"), cfg.Server.AssistantID)
		} else {
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Assistant:"), warnStyle.Render("not set (runs will be rejected)"))
		}
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Model:    "), cfg.Run.ModelName)

		if _, err := langgraph.HealthCheck(cmd.Context(), cfg.Server.URL, cfg.Server.APIKey); err != nil {
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Health:   "), errStyle.Render("unreachable"))
			return err
		}
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Health:   "), okStyle.Render("ok"))
		return nil
	},
}
