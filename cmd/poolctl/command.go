package main

import (
	"fmt"
	"io"

	"github.com/urfave/cli"

	"github.com/angeloszaimis/target-pool/internal/admin"
)

const defaultAPI = "http://localhost:9090"

type Command struct {
	out    io.Writer
	client *admin.Client
}

func NewCommand(out io.Writer) *Command {
	return &Command{out: out}
}

func (cmd *Command) Run(args []string) error {
	app := cli.NewApp()
	app.Name = "poolctl"
	app.Usage = "Command line interface to a running target pool"
	app.Writer = cmd.out
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "api",
			Value:  defaultAPI,
			Usage:  "admin API address",
			EnvVar: "POOLCTL_API",
		},
	}
	app.Before = func(c *cli.Context) error {
		cmd.client = admin.NewClient(c.GlobalString("api"))
		return nil
	}
	app.Commands = []cli.Command{
		NewStatusCommand(cmd),
		NewTargetCommand(cmd),
	}

	return app.Run(args)
}

func NewStatusCommand(cmd *Command) cli.Command {
	return cli.Command{
		Name:   "status",
		Usage:  "Show pool policy, members and dispatch metrics",
		Action: cmd.statusAction,
	}
}

func NewTargetCommand(cmd *Command) cli.Command {
	return cli.Command{
		Name:  "target",
		Usage: "Operations with targets",
		Subcommands: []cli.Command{
			{
				Name:   "ls",
				Usage:  "List targets in selection order",
				Action: cmd.listTargetsAction,
			},
			{
				Name:  "add",
				Usage: "Add a target to the pool",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "address, a", Usage: "url in form <scheme>://<host>:<port>"},
					cli.IntFlag{Name: "weight, w", Value: 1, Usage: "relative weight"},
				},
				Action: cmd.addTargetAction,
			},
			{
				Name:  "rm",
				Usage: "Remove a target from the pool",
				Flags: []cli.Flag{
					cli.StringFlag{Name: "address, a", Usage: "target address"},
				},
				Action: cmd.removeTargetAction,
			},
		},
	}
}

func (cmd *Command) statusAction(c *cli.Context) error {
	status, err := cmd.client.Status()
	if err != nil {
		return err
	}

	snap, err := cmd.client.Metrics()
	if err != nil {
		return err
	}

	targets, err := cmd.client.Targets()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.out, "Policy: %s\nTargets: %d\nUptime: %s\nExhausted: %d\n\n",
		status.Policy, status.Targets, snap.Uptime, snap.PoolExhausted)
	fmt.Fprint(cmd.out, targetsOverview(targets, snap))
	return nil
}

func (cmd *Command) listTargetsAction(c *cli.Context) error {
	targets, err := cmd.client.Targets()
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.out, targetsTable(targets))
	return nil
}

func (cmd *Command) addTargetAction(c *cli.Context) error {
	address := c.String("address")
	if address == "" {
		return fmt.Errorf("missing --address")
	}

	if err := cmd.client.AddTarget(address, c.Int("weight")); err != nil {
		return err
	}

	cmd.printOk("target %s added", address)
	return nil
}

func (cmd *Command) removeTargetAction(c *cli.Context) error {
	address := c.String("address")
	if address == "" {
		return fmt.Errorf("missing --address")
	}

	if err := cmd.client.RemoveTarget(address); err != nil {
		return err
	}

	cmd.printOk("target %s removed", address)
	return nil
}
