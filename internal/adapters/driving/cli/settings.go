package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding backend, data directory and search defaults.

Settings are stored in config.toml and take effect on the next run.
Environment variables prefixed with CHAPTERDEX_ override the file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding backend",
	Long: `Interactively select the embedding backend.

The hash backend needs no external service. Remote backends are pinged
before the configuration is accepted. Rebuild the index afterwards with
'chapterdex index build' since vectors from different models are not
comparable.`,
	RunE: runSettingsEmbedding,
}

var settingsDataDirCmd = &cobra.Command{
	Use:   "data-dir [dir]",
	Short: "Set the snapshot directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsDataDir,
}

var settingsStorageCmd = &cobra.Command{
	Use:   "storage [json|sqlite]",
	Short: "Select the snapshot storage backend",
	Long: `Select where chapters, metadata and embeddings are persisted.

  json    one JSON file per table in the data directory (default)
  sqlite  a single chapterdex.db SQLite database in the data directory

Existing data is not migrated; re-import and rebuild the index after switching.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(domain.StorageBackendJSON), string(domain.StorageBackendSQLite)},
	RunE:      runSettingsStorage,
}

var (
	searchDefaultLimit int
	searchDefaultType  string
)

var settingsSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Set search defaults",
	Long: `Set the limit and search type used when a request leaves them unset.

Example:
  chapterdex settings search --limit 5 --type semantic`,
	RunE: runSettingsSearch,
}

func init() {
	settingsSearchCmd.Flags().IntVar(&searchDefaultLimit, "limit", 0, "default result limit")
	settingsSearchCmd.Flags().StringVar(&searchDefaultType, "type", "", "default search type (semantic, keyword, hybrid)")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsDataDirCmd)
	settingsCmd.AddCommand(settingsStorageCmd)
	settingsCmd.AddCommand(settingsSearchCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(styled(cmd, headingStyle, "Current Settings"))
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Data dir: %s\n", settings.DataDir)
	cmd.Printf("  Backend: %s\n", settings.Storage)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Backend: %s\n", settings.Embedding.Backend.Description())
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.Backend.IsRemote() {
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
		if settings.Embedding.BaseURL != "" {
			cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
		}
		if settings.Embedding.Backend == domain.EmbeddingBackendOpenAI {
			if settings.Embedding.APIKey != "" {
				cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
			} else {
				cmd.Printf("  API Key: (not set)\n")
			}
		}
		cmd.Printf("  Rate limit: %.1f/s (burst %d)\n", settings.Embedding.RateLimit, settings.Embedding.Burst)
	} else if n := len(settings.Embedding.Vocabulary); n > 0 {
		cmd.Printf("  Extra vocabulary: %d terms\n", n)
	}
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Workers: %d\n", settings.Index.Workers)
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Default limit: %d\n", settings.Search.DefaultLimit)
	cmd.Printf("  Default type: %s\n", settings.Search.DefaultType)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Port: %d\n", settings.Server.Port)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(styled(cmd, warnStyle, fmt.Sprintf("Warning: %v", err)))
		cmd.Println("Run 'chapterdex settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	return configureEmbeddingBackend(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func configureEmbeddingBackend(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Backend")
	backends := domain.AllEmbeddingBackends()
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(backends), 1)
	selected := backends[idx-1]

	var model, baseURL, apiKey string
	if selected.IsRemote() {
		defaultModel := domain.DefaultEmbeddingModels()[selected]
		cmd.Printf("Enter model name [%s]: ", defaultModel)
		if model = readLine(reader); model == "" {
			model = defaultModel
		}

		cmd.Print("Enter base URL (blank for default): ")
		baseURL = readLine(reader)

		if selected == domain.EmbeddingBackendOpenAI {
			cmd.Print("Enter API key: ")
			apiKey = readSecret(cmd.InOrStdin(), reader)
			cmd.Println()
			if apiKey == "" {
				return errors.New("API key is required for this backend")
			}
		}
	}

	if err := settingsService.SetEmbeddingBackend(selected, model, baseURL, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding backend: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	label := selected.Description()
	if model != "" {
		label += " (" + model + ")"
	}
	cmd.Printf("Embedding backend configured: %s\n", label)
	cmd.Println("Run 'chapterdex index build' to re-embed all chapters.")
	return nil
}

func runSettingsDataDir(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.SetDataDir(args[0]); err != nil {
		return fmt.Errorf("failed to set data dir: %w", err)
	}
	cmd.Printf("Data dir set to: %s\n", args[0])
	return nil
}

func runSettingsStorage(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	backend := domain.StorageBackend(strings.ToLower(args[0]))
	if !backend.IsValid() {
		return fmt.Errorf("%w: storage backend %q", domain.ErrInvalidInput, args[0])
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings.Storage = backend
	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Storage backend set to: %s\n", backend)
	return nil
}

func runSettingsSearch(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if searchDefaultLimit == 0 && searchDefaultType == "" {
		return errors.New("nothing to change: pass --limit or --type")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if searchDefaultLimit != 0 {
		if searchDefaultLimit < 0 {
			return fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
		}
		settings.Search.DefaultLimit = searchDefaultLimit
	}
	if searchDefaultType != "" {
		t := domain.SearchType(searchDefaultType)
		if !t.IsValid() {
			return fmt.Errorf("%w: search type %q", domain.ErrInvalidInput, searchDefaultType)
		}
		settings.Search.DefaultType = t
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Printf("Search defaults: limit %d, type %s\n", settings.Search.DefaultLimit, settings.Search.DefaultType)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo when in is a terminal and falls back to the
// line reader otherwise.
func readSecret(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
