// Package cli provides the cobra command tree for chapterdex.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chapterdex/internal/core/ports/driving"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	dataDir   string
	configDir string
)

// Services configured by SetServices or the bootstrap function.
var (
	chapterService  driving.ChapterService
	searchService   driving.SearchService
	indexService    driving.IndexService
	importService   driving.ImportService
	settingsService driving.SettingsService
	closeServices   func()
)

// Options are the global flag values handed to the bootstrap function.
type Options struct {
	DataDir   string
	ConfigDir string
}

// Services bundles the driving ports the commands call.
type Services struct {
	Chapters driving.ChapterService
	Search   driving.SearchService
	Index    driving.IndexService
	Import   driving.ImportService
	Settings driving.SettingsService

	// Close releases resources such as embedding clients. Optional.
	Close func()
}

// BootstrapFunc wires services once global flags are parsed.
type BootstrapFunc func(opts Options) (*Services, error)

var bootstrap BootstrapFunc

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "chapterdex",
	Short: "Search a documentation corpus by keyword and meaning",
	Long: `chapterdex indexes documentation chapters and answers keyword, semantic
and hybrid searches over them.

Import document-structure files, build the vector index, then search from
the command line, the terminal UI, the REST API or an MCP client.`,
	SilenceUsage:      true,
	PersistentPreRunE: prepare,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "snapshot directory (default ~/.chapterdex/data)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.chapterdex)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that wires services from flags.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices installs services directly, bypassing bootstrap.
func SetServices(s *Services) {
	chapterService = s.Chapters
	searchService = s.Search
	indexService = s.Index
	importService = s.Import
	settingsService = s.Settings
	closeServices = s.Close
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if closeServices != nil {
			closeServices()
		}
	}()
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}

func prepare(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipBootstrap] == "true" || bootstrap == nil || chapterService != nil {
		return nil
	}

	s, err := bootstrap(Options{DataDir: dataDir, ConfigDir: configDir})
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(s)
	return nil
}

// requireService returns a uniform error for unconfigured services.
func requireService(ok bool, name string) error {
	if !ok {
		return fmt.Errorf("%s service not configured", name)
	}
	return nil
}
