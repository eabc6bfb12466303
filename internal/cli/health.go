package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// ErrUnhealthy is returned when the server answers but reports a problem
var ErrUnhealthy = errors.New("server unhealthy")

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Calls /health and prints the reported status and round trip time.
Exits non-zero when the server cannot reach its store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			start := time.Now()
			status, err := client.GetWithStatus("/health", &result)
			if err != nil {
				return err
			}
			result.LatencyMS = time.Since(start).Milliseconds()

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)

			if status != http.StatusOK {
				return fmt.Errorf("%w: HTTP %d, status %q", ErrUnhealthy, status, result.Status)
			}
			return nil
		},
	}
}
