package cli

import (
	"context"
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/usecase/chat"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// sessionTitleLimit caps the transcript title taken from the first message.
const sessionTitleLimit = 60

// sessionTitle derives a transcript title from the opening message,
// truncated on a rune boundary so the title stays valid UTF-8.
func sessionTitle(s string) string {
	if len(s) <= sessionTitleLimit {
		return s
	}
	cut := sessionTitleLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func chatCommand() *cli.Command {
	var (
		cfg    config
		userID string
		save   bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Aliases:     []string{"u"},
			Usage:       "User ID to chat as",
			Sources:     cli.EnvVars("KIOKU_USER_ID"),
			Destination: &userID,
			Required:    true,
		},
		&cli.BoolFlag{
			Name:        "save",
			Usage:       "Save the conversation transcript on exit",
			Destination: &save,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive conversation grounded in your memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			var chatOpts []chat.Option
			if save {
				storage, err := cfg.newStorage(ctx)
				if err != nil {
					return err
				}
				chatOpts = append(chatOpts, chat.WithStorage(storage))
			}

			uc, err := cfg.newUsecases(ctx, "", chatOpts...)
			if err != nil {
				return err
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize readline")
			}
			defer rl.Close()

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " thinking..."

			fmt.Fprintf(c.Root().Writer, "Chat session started. Type 'exit' to quit.\n")

			var history []model.ChatTurn
			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt || err == io.EOF {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}
				if line == "exit" {
					break
				}
				if line == "" {
					continue
				}

				sp.Start()
				answer := uc.chat.Answer(ctx, model.UserID(userID), line, history)
				sp.Stop()

				fmt.Fprintf(c.Root().Writer, "%s\n", answer.Text)
				for _, ref := range answer.Citations {
					fmt.Fprintf(c.Root().Writer, "  [%s] %s (%.2f)\n", ref.ID, ref.Title, ref.Score)
				}

				history = append(history,
					model.ChatTurn{Role: model.ChatRoleUser, Content: line},
					model.ChatTurn{Role: model.ChatRoleAssistant, Content: answer.Text, Citations: answer.Citations},
				)
			}

			if save && len(history) > 0 {
				saved, err := uc.chat.SaveSession(ctx, model.UserID(userID), sessionTitle(history[0].Content), history)
				if err != nil {
					return goerr.Wrap(err, "failed to save session")
				}
				fmt.Fprintf(c.Root().Writer, "Session saved: %s\n", saved.ID)
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}
