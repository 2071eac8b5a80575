package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alanmeadows/langbridge/internal/langgraph"
)

var (
	sendThread string
	sendPreset string
	sendVars   []string
	sendJSON   bool
)

func init() {
	sendCmd.Flags().StringVarP(&sendThread, "thread", "t", "", "Send on an existing thread")
	sendCmd.Flags().StringVarP(&sendPreset, "preset", "p", "", "Preset that opens the conversation")
	sendCmd.Flags().StringArrayVar(&sendVars, "var", nil, "Preset template variable key=value (repeatable)")
	sendCmd.Flags().BoolVar(&sendJSON, "json", false, "Write every fragment as a JSON line instead of the reply text")
}

var sendCmd = &cobra.Command{
	Use:   "send <text>",
	Short: "Send one message and stream the reply",
	Long: `Send a single user message and stream the reply to stdout.

The thread id is printed to stderr so the conversation can be continued
with --thread or with 'langbridge chat --thread'. With --json every
fragment is written verbatim as {"event":...,"data":...}, one per line.`,
	Example: `  langbridge send "What moved NVDA today?"
  langbridge send --preset analyst --var ticker=AAPL "Summarize the last quarter"
  langbridge send --json "hi" | jq .event`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := presetMessages(sendPreset, sendVars)
		if err != nil {
			return err
		}
		msgs := append(seed, langgraph.Message{
			ID:      uuid.NewString(),
			Role:    langgraph.RoleUser,
			Content: jsonString(strings.Join(args, " ")),
		})

		orch := newOrchestrator(sendThread)
		_, err = streamTurn(cmd.Context(), orch, msgs, cmd.OutOrStdout(), sendJSON)
		if id := orch.ThreadID(); id != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), infoStyle.Render("thread "+id))
		}
		return err
	},
}
