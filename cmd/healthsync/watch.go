package healthsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	watchInterval    time.Duration
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync on an interval until interrupted",
	Long:  "watch syncs immediately and then every --interval. A failed sync is reported and the next tick tries again. With --metrics-addr it serves Prometheus metrics on /metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(e *cliEnv) error {
			s, err := e.session()
			if err != nil {
				return err
			}
			if s.Health == nil {
				return fmt.Errorf("watch needs health_dir to be configured")
			}
			interval := e.cfg.WatchInterval
			if cmd.Flags().Changed("interval") {
				interval = watchInterval
			}
			if interval < time.Minute {
				return fmt.Errorf("--interval must be at least 1m")
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			if watchMetricsAddr != "" {
				metricsSrv := newMetricsServer(watchMetricsAddr)
				go func() {
					e.log.WithField("addr", watchMetricsAddr).Info("metrics listening")
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						e.log.WithError(err).Error("metrics server error")
					}
				}()
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
						e.log.WithError(err).Warn("metrics server shutdown")
					}
				}()
			}

			out := cmd.OutOrStdout()
			tick := func() {
				res, err := s.Sync(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					e.log.WithError(err).Warn("sync failed")
					fmt.Fprintln(out, statusLine(s.Store.Snapshot()))
					return
				}
				fmt.Fprintf(out, "%s | %d steps | %.1f kcal out\n", statusLine(s.Store.Snapshot()), res.Totals.Steps, res.Totals.TotalEnergy())
				if res.SummaryErr != nil {
					e.log.WithError(res.SummaryErr).Warn("summary refresh failed")
				}
			}
			return runTicker(ctx, interval, tick)
		})
	},
}

func newMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
}

// runTicker calls fn now and then on every tick until ctx ends. fn is never
// called once ctx is done.
func runTicker(ctx context.Context, interval time.Duration, fn func()) error {
	if ctx.Err() != nil {
		return nil
	}
	fn()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			fn()
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Time between syncs (default from config)")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")
}
