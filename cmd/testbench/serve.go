// Serve command for the testbench CLI.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/testbench/internal/httpapi"
	"github.com/mesh-intelligence/testbench/internal/log"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the test session control plane over HTTP",
	Long: `Serve exposes the session lifecycle as an HTTP control plane so
browser-driven test runners can start, update, and end sessions
remotely.

Endpoints:
  POST /testsession/start
  POST /testsession/update
  POST /testsession/end
  POST /testsession/clear
  GET  /testsession/state`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := buildManager()
		if err != nil {
			fail("serve", err)
		}
		defer func() { _ = mgr.Close() }()

		srv := &http.Server{
			Addr:         flagAddr,
			Handler:      httpapi.New(mgr),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Infof("test session control plane listening on %s", flagAddr)
			errCh <- srv.ListenAndServe()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				fail("serve", err)
			}
		case sig := <-stop:
			log.Infof("received %s, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				fail("serve", err)
			}
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "127.0.0.1:8099", "listen address for the control plane")
}
