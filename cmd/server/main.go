package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to a TOML config file",
		Value:   os.Getenv("ACADEMIA_CONFIG"),
	}

	app := &cli.Command{
		Name:  "academia",
		Usage: "Academia Authenticator server",
		Flags: []cli.Flag{configFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), "")
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "listen address, overrides server.addr",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return serve(ctx, c.String("config"), c.String("addr"))
				},
			},
			{
				Name:  "collection",
				Usage: "Manage the NFT collection",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "Create the collection with the configured wallet as treasury",
						Action: func(ctx context.Context, c *cli.Command) error {
							tokenID, err := createCollection(ctx, c.String("config"))
							if err != nil {
								return err
							}
							fmt.Printf("collection created: %s\nset HEDERA_TOKEN_ID=%s\n", tokenID, tokenID)
							return nil
						},
					},
				},
			},
		},
	}

	return app.Run(ctx, os.Args)
}
