package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/authguard/cmd/app/commands"
	"github.com/allisson/authguard/internal/app"
	"github.com/allisson/authguard/internal/config"
)

func getUserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-user",
			Usage: "Create a new subject in the credential store",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Email address of the subject",
				},
				&cli.StringFlag{
					Name:     "password",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Initial password",
				},
				&cli.FloatFlag{
					Name:  "lat",
					Usage: "Latitude of the subject's usual location",
				},
				&cli.FloatFlag{
					Name:  "lon",
					Usage: "Longitude of the subject's usual location",
				},
				&cli.BoolFlag{
					Name:  "with-location",
					Usage: "Store the usual location from --lat/--lon",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				users, err := container.UserRepository()
				if err != nil {
					return err
				}

				input := commands.CreateUserInput{
					Email:    cmd.String("email"),
					Password: cmd.String("password"),
				}
				if cmd.Bool("with-location") {
					input.Lat = cmd.Float("lat")
					input.Lon = cmd.Float("lon")
					input.WithLocation = true
				}

				return commands.RunCreateUser(
					ctx,
					users,
					container.PasswordService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					input,
				)
			},
		},
		{
			Name:  "enroll-template",
			Usage: "Enroll a biometric template for an existing subject",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "Subject id (UUID)",
				},
				&cli.StringFlag{
					Name:     "modality",
					Aliases:  []string{"m"},
					Required: true,
					Usage:    "Biometric modality: face, fingerprint or voice",
				},
				&cli.StringFlag{
					Name:     "capture-file",
					Aliases:  []string{"f"},
					Required: true,
					Usage:    "Path to the reference capture file",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				users, err := container.UserRepository()
				if err != nil {
					return err
				}

				return commands.RunEnrollTemplate(
					ctx,
					users,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
					cmd.String("modality"),
					cmd.String("capture-file"),
				)
			},
		},
	}
}
