package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chapterdex/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/chapterdex/internal/core/services"
)

var (
	servePort     int
	serveHost     string
	serveAutoPort bool
	serveRebuild  time.Duration
)

// autoPortRange is how many ports above the configured one --auto-port tries.
const autoPortRange = 100

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the JSON REST API.

The port defaults to server.port from the config file (3001).

Examples:
  chapterdex serve
  chapterdex serve --port 8080 --host 127.0.0.1
  chapterdex serve --auto-port --rebuild-every 1h
  curl 'http://localhost:3001/api/hybrid-search?query=принтер'`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (0 = use settings)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen address (default all interfaces)")
	serveCmd.Flags().BoolVar(&serveAutoPort, "auto-port", false, "use the next free port if the port is taken")
	serveCmd.Flags().DurationVar(&serveRebuild, "rebuild-every", 0, "rebuild the vector index periodically (0 = never)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := httpapi.NewServer(&httpapi.Ports{
		Search:   searchService,
		Chapters: chapterService,
		Index:    indexService,
	})
	if err != nil {
		return err
	}

	port := servePort
	if port <= 0 && settingsService != nil {
		if s, err := settingsService.Get(); err == nil {
			port = s.Server.Port
		}
	}
	if port <= 0 {
		return fmt.Errorf("no port configured; use --port")
	}

	if serveAutoPort {
		free, err := httpapi.FindAvailablePort(serveHost, port, port+autoPortRange)
		if err != nil {
			return err
		}
		port = free
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveRebuild > 0 {
		if err := requireService(indexService != nil, "index"); err != nil {
			return err
		}
		scheduler := services.NewScheduler(time.Minute)
		scheduler.Add("index-rebuild", serveRebuild, services.RebuildTask(indexService))
		go func() { _ = scheduler.Start(ctx) }()
		cmd.Printf("Rebuilding the vector index every %s\n", serveRebuild)
	}

	addr := fmt.Sprintf("%s:%d", serveHost, port)
	cmd.Printf("REST API listening on http://localhost:%d\n", port)
	return server.Run(ctx, addr)
}
