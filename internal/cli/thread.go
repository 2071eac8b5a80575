package cli

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/alanmeadows/langbridge/internal/langgraph"
)

var threadCmd = &cobra.Command{
	Use:   "thread",
	Short: "Create threads and inspect or edit their state",
	Long: `Work with threads directly.

A thread is the server-side conversation: its message history and any other
values the graph keeps live on the LangGraph server, never locally.`,
	Example: `  langbridge thread create
  langbridge thread state 6f1c...
  langbridge thread update 6f1c... --set ticker=NVDA --as-node analyst`,
}

var (
	threadStateJSON bool
	threadFile      string
	threadSets      []string
	threadAsNode    string
)

func init() {
	threadStateCmd.Flags().BoolVar(&threadStateJSON, "json", false, "Print the full state as JSON")
	threadUpdateCmd.Flags().StringVarP(&threadFile, "file", "f", "", "YAML or JSON file holding the values to write")
	threadUpdateCmd.Flags().StringArrayVar(&threadSets, "set", nil, "Set a value with a dotted key path, key=value (repeatable)")
	threadUpdateCmd.Flags().StringVar(&threadAsNode, "as-node", "", "Attribute the update to this graph node")

	threadCmd.AddCommand(threadCreateCmd)
	threadCmd.AddCommand(threadStateCmd)
	threadCmd.AddCommand(threadUpdateCmd)
}

var threadCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty thread and print its id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		thread, err := newClient(appConfig).CreateThread(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), thread.ThreadID)
		return nil
	},
}

var threadStateCmd = &cobra.Command{
	Use:   "state <thread-id>",
	Short: "Show a thread's current state",
	Long: `Show a thread's current state.

By default prints a summary table of the top-level state values, the nodes
scheduled next and the checkpoint. Use --json for the full document.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := newClient(appConfig).GetState(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if threadStateJSON {
			data, err := json.MarshalIndent(state, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderState(args[0], state))
		return nil
	},
}

var threadUpdateCmd = &cobra.Command{
	Use:   "update <thread-id>",
	Short: "Write values into a thread's state",
	Long: `Write values into a thread's state.

Values come from --file (YAML or JSON), from --set key=value pairs, or both;
--set is applied on top of the file. Scalars given to --set are parsed as
bool, integer or float when possible and kept as strings otherwise. The
server's confirmation is printed as JSON.`,
	Example: `  langbridge thread update 6f1c... --set ticker=NVDA --set horizon.days=30
  langbridge thread update 6f1c... --file values.yaml --as-node analyst`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if threadFile == "" && len(threadSets) == 0 {
			return fmt.Errorf("nothing to write: pass --file or --set")
		}
		values, err := buildValues(threadFile, threadSets)
		if err != nil {
			return err
		}
		confirmed, err := newClient(appConfig).UpdateState(cmd.Context(), args[0], langgraph.StateUpdate{
			Values: values,
			AsNode: threadAsNode,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(confirmed))
		return nil
	},
}

// buildValues merges a YAML/JSON file and dotted key=value pairs into one
// JSON object.
func buildValues(file string, sets []string) (json.RawMessage, error) {
	doc := []byte("{}")
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		if _, ok := v.(map[string]any); !ok {
			return nil, fmt.Errorf("%s: values must be a mapping", file)
		}
		doc, err = json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", file, err)
		}
	}

	for _, kv := range sets {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		var err error
		doc, err = sjson.SetBytes(doc, key, parseScalar(raw))
		if err != nil {
			return nil, fmt.Errorf("setting key %q: %w", key, err)
		}
	}
	return doc, nil
}

// parseScalar tries bool, then integer, then float, then keeps the string.
// Only "true" and "false" are bools, and numbers written with a leading zero
// (zip codes, ids) stay strings.
func parseScalar(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if hasLeadingZero(raw) {
		return raw
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return raw
}

func hasLeadingZero(raw string) bool {
	s := strings.TrimLeft(raw, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}

// parseKeyValues turns key=value pairs into a map.
func parseKeyValues(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid %q: want key=value", kv)
		}
		out[k] = v
	}
	return out, nil
}

// renderState summarizes a state as a table of top-level values.
func renderState(threadID string, state *langgraph.ThreadState) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Bold(true)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Thread:"), threadID)
	if len(state.Next) > 0 {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Next:"), strings.Join(state.Next, ", "))
	}
	if id := checkpointID(state.Checkpoint); id != "" {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Checkpoint:"), id)
	}

	var values map[string]json.RawMessage
	if err := json.Unmarshal(state.Values, &values); err != nil || len(values) == 0 {
		b.WriteString("No state values.")
		return b.String()
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, summarizeValue(values[k])})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	b.WriteString(t.String())
	return b.String()
}

// summarizeValue renders scalars as-is and collections by their size.
func summarizeValue(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch x := v.(type) {
	case []any:
		return fmt.Sprintf("[%d items]", len(x))
	case map[string]any:
		return fmt.Sprintf("{%d keys}", len(x))
	case string:
		if utf8.RuneCountInString(x) > 60 {
			return string([]rune(x)[:57]) + "..."
		}
		return x
	default:
		return string(raw)
	}
}

func checkpointID(raw json.RawMessage) string {
	var cp struct {
		CheckpointID string `json:"checkpoint_id"`
	}
	if err := json.Unmarshal(raw, &cp); err != nil {
		return ""
	}
	return cp.CheckpointID
}
