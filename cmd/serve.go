package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/redraft-cli/internal/rewrite"
	"github.com/KaramelBytes/redraft-cli/internal/server"
	"github.com/KaramelBytes/redraft-cli/internal/session"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a novel over a local JSON HTTP API",
	Example: `  redraft serve novel.txt
  redraft serve novel.txt --addr 127.0.0.1:9000`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		sess := session.New(session.Options{Versioner: newVersioner(c), Logger: logger})
		if err := sess.Open(args[0]); err != nil {
			return err
		}
		rewriters := func(profile string) (rewrite.Rewriter, string, error) {
			return newRewriterFunc(c, profile)
		}
		srv := server.NewServer(sess, rewriters, c.Direction, logger)

		addr := serveAddr
		if addr == "" {
			addr = c.ServeAddr
		}
		opts := rewrite.OptionsFromConfig(c)
		httpServer := &http.Server{
			Addr:         addr,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: time.Duration(opts.RetryMax)*opts.HTTPTimeout + 30*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			logger.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			httpServer.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving %s on http://%s (%d chapters)\n", args[0], addr, sess.Book().Len())
		logger.Info("starting redraft api", "addr", addr, "file", args[0])
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config serve_addr)")
}
