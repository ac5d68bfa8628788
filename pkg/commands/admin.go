package commands

import (
	"errors"

	"github.com/acorn-io/kids-market/pkg/deletion"
	"github.com/acorn-io/kids-market/pkg/identity"
	"github.com/acorn-io/kids-market/pkg/roster"
	"github.com/rancher/wrangler/pkg/signals"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type adminCommand struct{}

func (a *adminCommand) enter(c *cli.Context) error {
	ctx := c.Context
	d, err := openDevice(ctx, c)
	if err != nil {
		return err
	}
	defer d.Close()

	route, err := identity.New(d.session, d.screen, d.creds).Enter(ctx)
	if err != nil {
		return err
	}
	logrus.Debugf("admin entry routed to %s", route)
	return nil
}

func (a *adminCommand) signUp(c *cli.Context) error {
	ctx := c.Context
	d, err := openDevice(ctx, c)
	if err != nil {
		return err
	}
	defer d.Close()

	_, err = identity.New(d.session, d.screen, d.creds).
		SignUp(ctx, c.String("email"), c.String("password"), c.String("display-name"))
	return err
}

func (a *adminCommand) signIn(c *cli.Context) error {
	ctx := c.Context
	d, err := openDevice(ctx, c)
	if err != nil {
		return err
	}
	defer d.Close()

	_, err = identity.New(d.session, d.screen, d.creds).SignIn(ctx, c.String("email"), c.String("password"))
	return err
}

// roster keeps the live roster on the console until interrupted.
func (a *adminCommand) roster(c *cli.Context) error {
	ctx := signals.SetupSignalContext()
	d, err := openDevice(ctx, c)
	if err != nil {
		return err
	}
	defer d.Close()

	view := roster.NewView(d.session, d.screen)
	defer view.Close()
	if err := view.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func (a *adminCommand) deleteAccount(c *cli.Context) error {
	ctx := c.Context
	d, err := openDevice(ctx, c)
	if err != nil {
		return err
	}
	defer d.Close()

	workflow := deletion.New(d.session, d.screen, d.creds)
	workflow.Confirm()
	if !c.Bool("yes") {
		workflow.Cancel()
		return errors.New("account deletion not confirmed, pass --yes")
	}

	report, err := workflow.Run(ctx)
	logrus.WithFields(logrus.Fields{
		"childrenDeleted": report.ChildrenDeleted,
		"childrenFailed":  report.ChildrenFailed,
		"adminDeleted":    report.AdminDeleted,
	}).Info("account deletion finished")
	return err
}

func adminCommands() *cli.Command {
	cmd := adminCommand{}

	credentials := []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Usage:    "Admin email address",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "Admin password",
			EnvVars:  []string{"KIDS_MARKET_ADMIN_PASSWORD"},
			Required: true,
		},
	}

	return &cli.Command{
		Name:  "admin",
		Usage: "parent account screens",
		Subcommands: []*cli.Command{
			{
				Name:   "enter",
				Usage:  "sign in automatically if possible, otherwise show the sign-in or sign-up form",
				Action: cmd.enter,
				Flags:  clientFlags(),
				Before: Before,
			},
			{
				Name:   "signup",
				Usage:  "create an admin account and print its join code",
				Action: cmd.signUp,
				Flags: append(append(credentials, &cli.StringFlag{
					Name:  "display-name",
					Usage: "Name shown to children",
				}), clientFlags()...),
				Before: Before,
			},
			{
				Name:   "signin",
				Usage:  "sign in to an existing admin account",
				Action: cmd.signIn,
				Flags:  append(credentials, clientFlags()...),
				Before: Before,
			},
			{
				Name:   "roster",
				Usage:  "watch the children linked to the signed-in admin",
				Action: cmd.roster,
				Flags:  clientFlags(),
				Before: Before,
			},
			{
				Name:   "delete-account",
				Usage:  "delete the signed-in admin and every linked child",
				Action: cmd.deleteAccount,
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "confirm the deletion",
					},
				}, clientFlags()...),
				Before: Before,
			},
		},
	}
}
