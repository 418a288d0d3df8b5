// Loadtest sends concurrent requests through the proxy and reports how they
// were spread across targets, using the X-Backend-Server response header.
//
// Usage:
//
//	go run ./scripts/loadtest --url http://localhost:8080/ --concurrency 10 --requests 1000
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/buger/goterm"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "loadtest"
	app.Usage = "Measure target distribution through the proxy"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "url", Value: "http://localhost:8080/", Usage: "proxy URL"},
		cli.StringFlag{Name: "method", Value: "GET", Usage: "HTTP method"},
		cli.IntFlag{Name: "concurrency", Value: 10, Usage: "number of concurrent workers"},
		cli.IntFlag{Name: "requests", Value: 100, Usage: "total number of requests"},
		cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "per-request timeout"},
	}
	app.Action = func(c *cli.Context) error {
		run := &loadRun{
			url:         c.String("url"),
			method:      c.String("method"),
			concurrency: c.Int("concurrency"),
			requests:    c.Int("requests"),
			timeout:     c.Duration("timeout"),
		}

		report := run.execute()
		fmt.Print(report.String())

		if report.failures() > 0 {
			return cli.NewExitError(goterm.Color(fmt.Sprintf("%d requests failed", report.failures()), goterm.RED), 2)
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
