package commands

import (
	"github.com/acorn-io/kids-market/pkg/identity"
	"github.com/acorn-io/kids-market/pkg/linking"
	"github.com/acorn-io/kids-market/pkg/ui"
	"github.com/urfave/cli/v2"
)

type childCommand struct{}

// join signs the child in anonymously and links it to an admin, unless an
// earlier join on this device still holds.
func (j *childCommand) join(c *cli.Context) error {
	ctx := c.Context
	d, err := openDevice(ctx, c)
	if err != nil {
		return err
	}
	defer d.Close()

	flows := identity.New(d.session, d.screen, d.creds)
	flows.OpenChildJoin()
	if _, err := flows.SignInAnonymously(ctx); err != nil {
		return err
	}
	if d.screen.Visible(ui.ChildMainPanel) {
		return nil
	}

	_, err = linking.NewLinker(d.session, d.screen, d.creds).Join(ctx, c.String("code"), c.String("name"))
	return err
}

func childCommands() *cli.Command {
	cmd := childCommand{}

	return &cli.Command{
		Name:  "child",
		Usage: "child account screens",
		Subcommands: []*cli.Command{
			{
				Name:   "join",
				Usage:  "link this device to an admin with a join code",
				Action: cmd.join,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "code",
						Usage:    "Join code shown on the admin dashboard",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Child name shown to the admin",
					},
				}, clientFlags()...),
				Before: Before,
			},
		},
	}
}
