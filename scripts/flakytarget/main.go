// Flakytarget is a demo upstream for local runs of the proxy. It answers
// with its own name and fails a configurable share of requests so eviction
// can be watched through poolctl.
//
// Usage:
//
//	go run ./scripts/flakytarget --port 8081 --name a
//	go run ./scripts/flakytarget --port 8082 --name b --fail-every 3 --fail-status 503
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/urfave/cli"

	"github.com/angeloszaimis/target-pool/internal/httpserver"
	"github.com/angeloszaimis/target-pool/pkg/logger"
)

func main() {
	app := cli.NewApp()
	app.Name = "flakytarget"
	app.Usage = "Demo upstream that fails on purpose"
	app.Flags = []cli.Flag{
		cli.IntFlag{Name: "port", Value: 8081, Usage: "port to listen on"},
		cli.StringFlag{Name: "name", Value: "target", Usage: "name echoed in responses"},
		cli.IntFlag{Name: "fail-every", Usage: "fail every n-th request, 0 never fails"},
		cli.IntFlag{Name: "fail-status", Value: http.StatusInternalServerError, Usage: "status used for failures"},
	}
	app.Action = func(c *cli.Context) error {
		log := logger.New(os.Stdout, "info", false, "dev")
		t := newFlakyTarget(c.String("name"), c.Int("fail-every"), c.Int("fail-status"), log)

		srv, err := httpserver.New(fmt.Sprintf(":%d", c.Int("port")), t)
		if err != nil {
			return err
		}

		log.Info("Starting demo target", slog.String("addr", srv.Addr()), slog.String("name", t.name))
		return srv.Start()
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
