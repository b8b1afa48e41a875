package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/knygynas/internal/config"
	"github.com/conneroisu/knygynas/internal/monitoring"
	"github.com/conneroisu/knygynas/internal/store"
	"github.com/conneroisu/knygynas/internal/validation"
	"github.com/conneroisu/knygynas/internal/version"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the catalog",
	Long: `Checks that the storage backend loads and the shared fragments exist.

With --url the checks of a running server are fetched from its /health
endpoint instead. This command is used by container health checks and
deployment readiness probes; it exits non-zero when unhealthy.

Examples:
  knygynas health                                # Check local storage and fragments
  knygynas health --url http://localhost:8080    # Probe a running server
  knygynas health --verbose                      # Print the full JSON report`,
	RunE: runHealthCheck,
}

var (
	healthURL     string
	healthTimeout time.Duration
	healthVerbose bool
)

var errUnhealthy = errors.New("catalog is unhealthy")

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().StringVar(&healthURL, "url", "", "Base URL of a running server to probe")
	healthCmd.Flags().
		DurationVarP(&healthTimeout, "timeout", "t", 3*time.Second, "Timeout for health checks")
	healthCmd.Flags().BoolVarP(&healthVerbose, "verbose", "v", false, "Verbose health check output")
}

func runHealthCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
	defer cancel()

	var (
		resp monitoring.HealthResponse
		err  error
	)
	if healthURL != "" {
		resp, err = probeHealth(ctx, healthURL)
	} else {
		resp, err = localHealth(ctx)
	}
	if err != nil {
		return err
	}

	if err := writeHealth(cmd.OutOrStdout(), resp, healthVerbose); err != nil {
		return err
	}
	if resp.Status == monitoring.HealthStatusUnhealthy {
		return errUnhealthy
	}
	return nil
}

func localHealth(ctx context.Context) (monitoring.HealthResponse, error) {
	cfg, err := config.Load()
	if err != nil {
		return monitoring.HealthResponse{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	st, err := store.OpenExisting(cfg.Storage)
	if err != nil {
		return monitoring.HealthResponse{}, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	defer st.Close()

	hm := monitoring.NewHealthMonitor(version.Get().Short(), nil)
	hm.RegisterCheck(monitoring.StorageHealthChecker(st))
	hm.RegisterCheck(monitoring.TemplatesHealthChecker(cfg.Templates.Dir,
		cfg.Templates.Header, cfg.Templates.Footer))
	return hm.Check(ctx), nil
}

func probeHealth(ctx context.Context, baseURL string) (monitoring.HealthResponse, error) {
	var resp monitoring.HealthResponse

	if err := validation.ValidateURL(baseURL); err != nil {
		return resp, fmt.Errorf("health URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+"/health", nil)
	if err != nil {
		return resp, err
	}
	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		return resp, fmt.Errorf("server not responding: %w", err)
	}
	defer httpResp.Body.Close()

	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return resp, fmt.Errorf("decoding health response (HTTP %d): %w", httpResp.StatusCode, err)
	}
	return resp, nil
}

func writeHealth(w io.Writer, resp monitoring.HealthResponse, verbose bool) error {
	if verbose {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	}

	names := make([]string, 0, len(resp.Checks))
	for name := range resp.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "Status: %s\n", resp.Status)
	for _, name := range names {
		check := resp.Checks[name]
		line := fmt.Sprintf("  %s: %s", name, check.Status)
		if check.Message != "" {
			line += " (" + check.Message + ")"
		}
		fmt.Fprintln(w, line)
	}
	return nil
}
