// Command navsim propagates straight-line tracks through a generated
// telescope detector and checks the navigator against a brute-force scan.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/detector-navigator/core"
	"github.com/signalsfoundry/detector-navigator/internal/config"
	"github.com/signalsfoundry/detector-navigator/internal/logging"
	"github.com/signalsfoundry/detector-navigator/internal/observability"
	"github.com/signalsfoundry/detector-navigator/kb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the configuration is loaded.
type app struct {
	configPath string
	logOut     io.Writer

	cfg config.Config
	log logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "navsim",
		Short: "Propagate tracks through a telescope detector with the navigator",
		Long: `navsim builds a telescope detector of box volumes, propagates a grid of
straight-line tracks through it and reports how the navigation went.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML configuration file")

	root.AddCommand(newRunCmd(a), newScanCmd(a))
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	out := a.logOut
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	a.log = cfg.Logger(out)
	return nil
}

// setup builds the detector and the track grid described by the config.
func (a *app) setup(ctx context.Context) (*kb.Detector, []core.Track, error) {
	det, err := core.BuildTelescope(a.cfg.Geometry(), func(e kb.Event) {
		a.log.Debug(ctx, "volume registered",
			logging.Uint("volume", e.Index),
			logging.String("name", e.Name),
			logging.Float("z_min", e.Bounds.Min.Z),
			logging.Float("z_max", e.Bounds.Max.Z),
		)
	})
	if err != nil {
		return nil, nil, err
	}
	tracks, err := core.UniformTracks(a.cfg.TrackGrid())
	if err != nil {
		return nil, nil, err
	}
	a.log.Info(ctx, "detector built",
		logging.String("detector", det.Name()),
		logging.Int("volumes", det.NumVolumes()),
		logging.Int("tracks", len(tracks)),
	)
	return det, tracks, nil
}

func (a *app) stateOptions() []core.StateOption {
	return []core.StateOption{core.WithTolerance(a.cfg.Navigation.Tolerance)}
}

func serveMetrics(addr string, collector *observability.NavigationCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
