package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/tidwall/jsonc"
	"github.com/tidwall/sjson"

	"github.com/alanmeadows/langbridge/internal/config"
	"github.com/alanmeadows/langbridge/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage langbridge configuration",
	Long:  `Show and modify langbridge configuration values.`,
}

var (
	configJSONFlag bool
	configUserFlag bool
)

func init() {
	configShowCmd.Flags().BoolVar(&configJSONFlag, "json", false, "Output raw JSON without formatting")
	configSetCmd.Flags().BoolVar(&configUserFlag, "user", false, "Write to the user config instead of the project config")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show merged configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		redacted := appConfig.Redacted()

		var data []byte
		var err error
		if configJSONFlag {
			data, err = json.Marshal(redacted)
		} else {
			data, err = json.MarshalIndent(redacted, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a configuration value using a dotted key path.

The value is written to .langbridge/langbridge.jsonc in the current
directory (or the file named by --config), or to the user config with
--user. The file is created if it does not exist.

Note: JSONC comments are not preserved on write.`,
	Example: `  langbridge config set server.url http://localhost:2024
  langbridge config set server.assistant_id agent
  langbridge config set dashboard.port 8080
  langbridge config set --user server.api_key lsv2_...`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		switch {
		case configUserFlag:
			path = config.UserConfigPath()
			if path == "" {
				return fmt.Errorf("cannot determine user config directory")
			}
		case path == "":
			path = config.ProjectConfigPath()
		}

		value := parseScalar(args[1])
		if err := setConfigValue(cmd.Context(), path, args[0], value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", args[0], value, path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively write the user config",
	Long: `Prompt for the server URL, assistant id, model and API key and write
them to ~/.config/langbridge/langbridge.jsonc. Current values are
pre-filled; leaving the API key empty keeps the stored one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.UserConfigPath()
		if path == "" {
			return fmt.Errorf("cannot determine user config directory")
		}

		serverURL := appConfig.Server.URL
		assistantID := appConfig.Server.AssistantID
		modelName := appConfig.Run.ModelName
		var apiKey string

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("LangGraph server URL").
					Value(&serverURL).
					Validate(func(s string) error {
						u, err := url.Parse(s)
						if err != nil || u.Scheme == "" || u.Host == "" {
							return fmt.Errorf("enter an absolute URL like http://127.0.0.1:5000")
						}
						return nil
					}),
				huh.NewInput().
					Title("Assistant ID").
					Description("Graph or assistant id runs are sent to").
					Value(&assistantID),
				huh.NewSelect[string]().
					Title("Model").
					Options(
						huh.NewOption("OpenAI", "openai"),
						huh.NewOption("Anthropic", "anthropic"),
						huh.NewOption("Google", "google"),
					).
					Value(&modelName),
				huh.NewInput().
					Title("API key (optional)").
					EchoMode(huh.EchoModePassword).
					Value(&apiKey),
			),
		)

		if err := form.Run(); err != nil {
			return fmt.Errorf("form cancelled: %w", err)
		}

		values := map[string]any{
			"server.url":          serverURL,
			"server.assistant_id": assistantID,
			"run.model_name":      modelName,
		}
		if apiKey != "" {
			values["server.api_key"] = apiKey
		}
		for key, v := range values {
			if err := setConfigValue(cmd.Context(), path, key, v); err != nil {
				return err
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

// setConfigValue sets a dotted key in a JSONC file under its lock. The file
// may hold an API key, so it is written 0600.
func setConfigValue(ctx context.Context, path, key string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return store.WithLock(ctx, path, store.DefaultLockTimeout, func() error {
		existing := []byte("{}")
		if data, err := os.ReadFile(path); err == nil {
			// sjson needs plain JSON.
			existing = jsonc.ToJSON(data)
		}

		updated, err := sjson.SetBytes(existing, key, value)
		if err != nil {
			return fmt.Errorf("setting key %q: %w", key, err)
		}
		if !json.Valid(updated) {
			return fmt.Errorf("config %s is not valid JSON after setting %q", path, key)
		}
		if err := store.WriteFile(path, updated, 0600); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		return nil
	})
}
