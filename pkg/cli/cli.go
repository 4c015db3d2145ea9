package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	// Local development reads configuration from .env; a missing file is fine.
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "kioku",
		Usage: "Personal memory knowledge base with grounded chat",
		Commands: []*cli.Command{
			serveCommand(),
			chatCommand(),
			newCommand(),
			listCommand(),
			searchCommand(),
			deleteCommand(),
			reindexCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
