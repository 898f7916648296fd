package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server and storage health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			err := client.Get("/api/v1/health", &result)
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
				// degraded still has a health body, but no error code
				out := NewOutput(cfg.Output)
				out.Print(HealthResult{Status: "degraded", Storage: "unreachable"})
				return fmt.Errorf("server is degraded")
			}
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
