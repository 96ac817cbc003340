// Package httpd implements the ops API server command.
package httpd

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/bidcrawl/cmd/common"
	"github.com/jonesrussell/bidcrawl/internal/httpd"
)

// Command returns the httpd command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the read-only ops API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := httpd.NewServer(deps.Notices, deps.Logs, deps.Log)

			if serveErr := srv.Serve(ctx, deps.Cfg.Server.Address); serveErr != nil &&
				!errors.Is(serveErr, http.ErrServerClosed) {
				return serveErr
			}
			return nil
		},
	}
}
