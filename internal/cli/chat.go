package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alanmeadows/langbridge/internal/chat"
	"github.com/alanmeadows/langbridge/internal/langgraph"
	"github.com/alanmeadows/langbridge/internal/prompts"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var (
	chatThread string
	chatPreset string
	chatVars   []string
)

func init() {
	chatCmd.Flags().StringVarP(&chatThread, "thread", "t", "", "Resume an existing thread instead of creating one")
	chatCmd.Flags().StringVarP(&chatPreset, "preset", "p", "", "Preset that opens the conversation (default from chat.preset)")
	chatCmd.Flags().StringArrayVar(&chatVars, "var", nil, "Preset template variable key=value (repeatable)")
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with the configured assistant.

Each line you type is appended to the conversation and the whole history is
sent as one run; the reply streams in as the server produces it. The thread
is created on the first message and reused for the rest of the session.

Commands:
  /thread   print the current thread id
  /state    print the thread's server-side state
  /quit     leave (Ctrl-D works too)`,
	Example: `  langbridge chat
  langbridge chat --preset analyst --var ticker=NVDA
  langbridge chat --thread 6f1c...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, err := presetMessages(chatPreset, chatVars)
		if err != nil {
			return err
		}
		orch := newOrchestrator(chatThread)
		return runChat(cmd.Context(), orch, cmd.InOrStdin(), cmd.OutOrStdout(), seed)
	},
}

// newOrchestrator wires one orchestrator to the configured server.
func newOrchestrator(threadID string, extra ...chat.Observer) *chat.Orchestrator {
	observers := append([]chat.Observer{chat.NewSlogObserver(slog.Default())}, extra...)
	opts := []chat.Option{chat.WithObserver(chat.NewMultiObserver(observers...))}
	if threadID != "" {
		opts = append(opts, chat.WithThreadID(threadID))
	}
	return chat.New(newClient(appConfig), opts...)
}

// presetMessages resolves a preset name (falling back to chat.preset) into
// opening messages.
func presetMessages(name string, vars []string) ([]langgraph.Message, error) {
	if name == "" && appConfig != nil {
		name = appConfig.Chat.Preset
	}
	if name == "" {
		return nil, nil
	}
	p, err := prompts.Load(name)
	if err != nil {
		return nil, err
	}
	kv, err := parseKeyValues(vars)
	if err != nil {
		return nil, err
	}
	msgs, err := p.Messages(kv)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].ID = uuid.NewString()
	}
	return msgs, nil
}

// runChat is the REPL loop. The history grows by one user and one
// assistant message per turn and is resent whole on every run.
func runChat(ctx context.Context, orch *chat.Orchestrator, in io.Reader, out io.Writer, seed []langgraph.Message) error {
	history := append([]langgraph.Message(nil), seed...)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if id := orch.ThreadID(); id != "" {
		fmt.Fprintln(out, infoStyle.Render("resuming thread "+id))
	}

	for {
		fmt.Fprint(out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/thread":
			if id := orch.ThreadID(); id != "" {
				fmt.Fprintln(out, id)
			} else {
				fmt.Fprintln(out, infoStyle.Render("no thread yet"))
			}
			continue
		case "/state":
			state, err := orch.State(ctx)
			if err != nil {
				fmt.Fprintln(out, errStyle.Render(err.Error()))
				continue
			}
			data, _ := json.MarshalIndent(state, "", "  ")
			fmt.Fprintln(out, string(data))
			continue
		}

		history = append(history, langgraph.Message{
			ID:      uuid.NewString(),
			Role:    langgraph.RoleUser,
			Content: jsonString(line),
		})

		reply, err := streamTurn(ctx, orch, history, out, false)
		if err != nil {
			fmt.Fprintln(out, errStyle.Render(err.Error()))
			if errors.Is(err, context.Canceled) {
				return err
			}
			// A turn that never started leaves the user's line unanswered;
			// drop it so the next attempt does not send it twice.
			if reply == "" {
				history = history[:len(history)-1]
			}
		}
		if reply != "" {
			history = append(history, langgraph.Message{
				ID:      uuid.NewString(),
				Role:    langgraph.RoleAssistant,
				Content: jsonString(reply),
			})
		}
	}
}

// streamTurn runs one turn, writing the reply to out as it arrives. With
// raw set, each fragment is written as a JSON line instead. It returns the
// reply text assembled so far, even on error.
func streamTurn(ctx context.Context, orch *chat.Orchestrator, messages []langgraph.Message, out io.Writer, raw bool) (string, error) {
	resp, err := orch.Stream(ctx, messages)
	if err != nil {
		return "", err
	}
	defer resp.Close()

	tr := chat.NewTranscript()
	enc := json.NewEncoder(out)
	for frag, err := range resp.All() {
		if err != nil {
			if !raw {
				fmt.Fprintln(out)
			}
			return tr.Text(), err
		}
		delta := tr.Add(frag)
		if raw {
			if err := enc.Encode(frag); err != nil {
				return tr.Text(), err
			}
			continue
		}
		fmt.Fprint(out, delta)
	}
	if !raw {
		fmt.Fprintln(out)
	}
	return tr.Text(), nil
}

func jsonString(s string) json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}
