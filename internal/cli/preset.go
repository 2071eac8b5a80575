package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/alanmeadows/langbridge/internal/langgraph"
	"github.com/alanmeadows/langbridge/internal/prompts"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "List, show and create conversation presets",
	Long: `Presets are markdown files whose frontmatter names them and whose body
opens a conversation, usually as a system message. Builtins ship with
langbridge; files in ~/.config/langbridge/presets/ add to or shadow them.
Bodies are Go templates: --var key=value fills {{.key}}.`,
	Example: `  langbridge preset list
  langbridge preset show analyst --var ticker=NVDA
  langbridge preset new brief --description "One-sentence answers" < brief.md`,
}

var (
	presetVars        []string
	presetDescription string
	presetRole        string
	presetFile        string
)

func init() {
	presetShowCmd.Flags().StringArrayVar(&presetVars, "var", nil, "Template variable key=value (repeatable)")
	presetNewCmd.Flags().StringVar(&presetDescription, "description", "", "One-line description")
	presetNewCmd.Flags().StringVar(&presetRole, "role", string(langgraph.RoleSystem), "Role of the opening message")
	presetNewCmd.Flags().StringVarP(&presetFile, "file", "f", "", "Read the body from a file instead of stdin")

	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetShowCmd)
	presetCmd.AddCommand(presetNewCmd)
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		presets, err := prompts.List()
		if err != nil {
			return err
		}

		headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
		cellStyle := lipgloss.NewStyle().Padding(0, 1)

		rows := make([][]string, 0, len(presets))
		for _, p := range presets {
			source := "user"
			if p.Builtin {
				source = "builtin"
			}
			rows = append(rows, []string{p.Name, source, p.Description})
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("NAME", "SOURCE", "DESCRIPTION").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})

		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a preset's rendered opening message",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := prompts.Load(args[0])
		if err != nil {
			return err
		}
		vars, err := parseKeyValues(presetVars)
		if err != nil {
			return err
		}
		text, err := p.Render(vars)
		if err != nil {
			return err
		}
		if text == "" {
			text = infoStyle.Render("(empty: no opening message)")
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

var presetNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a user preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var body []byte
		var err error
		if presetFile != "" {
			body, err = os.ReadFile(presetFile)
		} else {
			body, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return fmt.Errorf("reading preset body: %w", err)
		}

		p := &prompts.Preset{
			Name:        strings.TrimSuffix(args[0], ".md"),
			Description: presetDescription,
			Role:        langgraph.Role(presetRole),
			Body:        string(body),
		}
		if _, err := p.Render(nil); err != nil {
			return err
		}
		if err := prompts.Save(p); err != nil {
			return fmt.Errorf("saving preset: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %q\n", p.Name)
		return nil
	},
}
