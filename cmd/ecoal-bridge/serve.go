package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adamwoolhether/ecoalbridge/client"
	"github.com/adamwoolhether/ecoalbridge/config"
	"github.com/adamwoolhether/ecoalbridge/ecoal"
	"github.com/adamwoolhether/ecoalbridge/poller"
	"github.com/adamwoolhether/ecoalbridge/status"
	"github.com/adamwoolhether/ecoalbridge/web/middleware"
	"github.com/adamwoolhether/ecoalbridge/web/mux"
	"github.com/adamwoolhether/ecoalbridge/web/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Poll the controller and serve the status API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *flags)
		},
	}
}

func runServe(ctx context.Context, flags rootFlags) error {
	cfg, log, err := loadConfig(flags)
	if err != nil {
		return err
	}

	mappings, err := cfg.Mappings()
	if err != nil {
		return err
	}

	svc, err := newService(cfg, log, ecoal.WithRegisters(pollList(mappings)...))
	if err != nil {
		return err
	}

	if _, err := svc.CheckHardware(ctx); err != nil {
		switch {
		case errors.Is(err, ecoal.ErrUnsupportedHardware):
			log.Warn("controller not supported, continuing", "error", err)
		default:
			log.Warn("hardware check failed, continuing", "error", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store := status.NewStore(time.Now())

	p, err := poller.New(svc, store, cfg.PollInterval(),
		poller.WithLogger(log),
		poller.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}

	app := mux.New(
		mux.WithLogger(log),
		mux.WithMiddleware(
			middleware.CORS(cfg.CORSOrigins),
			middleware.CSRF(log, cfg.CORSOrigins...),
			middleware.Logger(log),
			middleware.Errors(log),
			middleware.Panics(),
		),
	)

	status.Routes(app, store, svc, status.Config{
		DeviceName:   cfg.DeviceName,
		DeviceID:     cfg.DeviceID(),
		PollInterval: cfg.PollInterval(),
		Sensors:      append(slices.Clone(ecoal.Sensors), customSensors(mappings)...),
		Gatherer:     reg,
	})

	srv := server.New(app,
		server.WithHost(cfg.HTTPAddr),
		server.WithWriteTimeout(cfg.RequestTimeout()+5*time.Second),
		server.WithLogger(log),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })

	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	log.Info("bridge stopped")

	return nil
}

func newService(cfg config.Config, log *slog.Logger, opts ...ecoal.Option) (*ecoal.Service, error) {
	c, err := client.Build(
		client.WithTimeout(cfg.RequestTimeout()),
		client.WithThrottle(cfg.ThrottleRPS, cfg.ThrottleBurst),
		client.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	opts = append([]ecoal.Option{ecoal.WithLogger(log)}, opts...)

	return ecoal.New(c, ecoal.Config{
		Host:     cfg.ECoalHost,
		Username: cfg.ECoalUsername,
		Password: cfg.ECoalPassword,
	}, opts...), nil
}

// pollList is the default register set plus the registers named by the
// custom mappings, without duplicates.
func pollList(mappings []config.CustomMapping) []string {
	ids := slices.Clone(ecoal.PolledRegisters)
	for _, m := range mappings {
		if !slices.Contains(ids, m.TID) {
			ids = append(ids, m.TID)
		}
	}

	return ids
}

func customSensors(mappings []config.CustomMapping) []ecoal.Sensor {
	out := make([]ecoal.Sensor, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, ecoal.Sensor{
			TID:      m.TID,
			UniqueID: "custom_" + m.SafeID,
			Name:     m.Name,
			Unit:     "°C",
			Kind:     ecoal.KindTemperature,
		})
	}

	return out
}
