package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/nexus/internal/config"
	"github.com/roach88/nexus/internal/dispatch"
	"github.com/roach88/nexus/internal/httpapi"
	"github.com/roach88/nexus/internal/metrics"
)

// shutdownTimeout bounds how long in-flight requests may take to drain.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions

	// onListen is called with the bound address once the listener is up.
	onListen func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP telemetry service",
		Long: `Open (and migrate) the database, then serve the insert, update, delete
and query routes until interrupted.

Example:
  nexus serve --config nexus.yaml
  nexus serve --db-location /var/lib/nexus --port 9000 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().String(config.KeyHost, "", "listen host")
	cmd.Flags().Int(config.KeyPort, 0, "listen port")
	cmd.Flags().Int(config.KeyMaxLimit, 0, "largest page size a query may request")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) (err error) {
	cfg, err := loadConfig(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, opts.Verbose, cmd.ErrOrStderr())

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			err = multierr.Append(err, WrapExitError(ExitFailure, "error closing database", closeErr))
		}
	}()

	m := metrics.New()
	d, err := dispatch.New(st,
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(m),
		dispatch.WithMaxLimit(cfg.Query.MaxLimit),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build dispatcher", err)
	}

	gin.SetMode(gin.ReleaseMode)
	api := httpapi.NewServer(d, st, httpapi.WithLogger(logger), httpapi.WithMetrics(m))

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}
	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	addr := ln.Addr().String()
	logger.Info("listening", "addr", addr, "db", absPath(cfg.DatabasePath()))
	formatterFor(cmd, opts.RootOptions).VerboseLog("Listening on %s", addr)
	if opts.onListen != nil {
		opts.onListen(addr)
	}

	if err := g.Wait(); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	logger.Info("stopped")
	return nil
}
