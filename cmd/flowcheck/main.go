//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 THL A29 Limited, a Tencent company.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Flowcheck runs the fault-injection conformance matrix of trpc-flow.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"trpc.group/trpc-go/trpc-flow"
	"trpc.group/trpc-go/trpc-flow/conformance"
	"trpc.group/trpc-go/trpc-flow/faultinject"
	"trpc.group/trpc-go/trpc-flow/log"
	"trpc.group/trpc-go/trpc-flow/metrics"
	"trpc.group/trpc-go/trpc-flow/metrics/prometheus"
)

func main() {
	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.Debugf("flowcheck: set GOMAXPROCS: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "flowcheck",
		Usage:   "check that streams survive faults thrown at every lifecycle point",
		Version: flow.Version(),
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the conformance matrix",
				Flags:  runFlags(),
				Action: runAction,
			},
			{
				Name:  "points",
				Usage: "list the fault injection points",
				Action: func(c *cli.Context) error {
					for _, p := range faultinject.Points() {
						fmt.Fprintf(c.App.Writer, "%-20s %s\n", p, conformance.SideOf(p))
					}
					return nil
				},
			},
		},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "trpc-flow config file, yaml or toml",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "text",
			Usage: "report format, text or json",
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "number of cases run at the same time, overrides conformance.parallelism",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "timeout of a single case, overrides conformance.timeout_ms",
		},
		&cli.StringFlag{
			Name:  "points",
			Usage: "comma separated injection points, all points if empty",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "list the cases whose point was never reached",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "serve the prometheus sink on this address while the cases run",
		},
	}
}

func runAction(c *cli.Context) error {
	cfg, closer, err := setup(c.String("config"))
	if err != nil {
		return err
	}
	defer func() {
		if err := closer(); err != nil {
			log.Debugf("flowcheck: close: %v", err)
		}
	}()

	ccfg := conformance.ConfigFrom(cfg)
	if n := c.Int("parallel"); n > 0 {
		ccfg.Parallelism = n
	}
	if d := c.Duration("timeout"); d > 0 {
		ccfg.Timeout = d
	}
	if list := c.String("points"); list != "" {
		if ccfg.Points, err = faultinject.ParsePoints(list); err != nil {
			return cli.Exit(err.Error(), 2)
		}
	}
	format := c.String("format")
	if format != "text" && format != "json" {
		return cli.Exit(fmt.Sprintf("unknown format %q", format), 2)
	}

	if addr := c.String("metrics-addr"); addr != "" {
		shutdown, err := serveMetrics(addr)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	report, runErr := conformance.Run(c.Context, ccfg)
	if err := write(c, report, format); err != nil {
		return err
	}
	if runErr != nil {
		log.Debugf("flowcheck: %v", runErr)
		return cli.Exit(fmt.Sprintf("%d of %d cases failed", report.Failed, len(report.Cases)), 1)
	}
	return nil
}

func setup(path string) (*flow.Config, func() error, error) {
	var (
		cfg *flow.Config
		err error
	)
	if path == "" {
		cfg = flow.GlobalConfig()
	} else {
		if cfg, err = flow.LoadConfig(path); err != nil {
			return nil, nil, cli.Exit(err.Error(), 2)
		}
		flow.SetGlobalConfig(cfg)
	}
	closer, err := flow.Setup(cfg)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), 2)
	}
	return cfg, closer, nil
}

// serveMetrics exposes the prometheus sink installed by the config.
func serveMetrics(addr string) (func(), error) {
	s, _ := metrics.GetMetricsSink(prometheus.Name)
	sink, ok := s.(*prometheus.Sink)
	if !ok {
		return nil, cli.Exit("metrics-addr requires the prometheus sink in metrics.sinks", 2)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: sink.Handler()}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("flowcheck: serve metrics: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func write(c *cli.Context, report *conformance.Report, format string) error {
	if format == "json" {
		data, err := report.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(c.App.Writer, string(data))
		return err
	}
	return report.WriteText(c.App.Writer, c.Bool("verbose"))
}
