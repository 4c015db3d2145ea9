package cli

import (
	"context"

	"github.com/kioku-app/kioku/pkg/server"
	"github.com/kioku-app/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg       config
		addr      string
		jwtSecret string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":8000",
			Sources:     cli.EnvVars("KIOKU_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "Secret for signing session tokens",
			Sources:     cli.EnvVars("KIOKU_JWT_SECRET"),
			Destination: &jwtSecret,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			uc, err := cfg.newUsecases(ctx, jwtSecret)
			if err != nil {
				return err
			}

			srv := server.New(uc.auth, uc.memory, uc.retrieval, uc.chat)

			logging.Default().Info("starting server", "addr", addr)
			if err := srv.Run(addr); err != nil {
				return goerr.Wrap(err, "server stopped")
			}
			return nil
		},
	}
}
