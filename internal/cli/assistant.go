package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var assistantJSON bool

func init() {
	assistantCreateCmd.Flags().BoolVar(&assistantJSON, "json", false, "Print the full assistant record")
	assistantCmd.AddCommand(assistantCreateCmd)
}

var assistantCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Manage assistants",
}

var assistantCreateCmd = &cobra.Command{
	Use:   "create <graph-id>",
	Short: "Create an assistant for a deployed graph and print its id",
	Long: `Create an assistant for a deployed graph and print its id.

Put the id in server.assistant_id (or LANGGRAPH_ASSISTANT_ID) so runs are
routed to it.`,
	Example: `  langbridge assistant create agent
  langbridge config set server.assistant_id "$(langbridge assistant create agent)"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newClient(appConfig).CreateAssistant(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if assistantJSON {
			data, err := json.MarshalIndent(a, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling assistant: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.AssistantID)
		return nil
	},
}
