package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/kioku-app/kioku/pkg/usecase/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func userFlag(userID *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "user-id",
		Aliases:     []string{"u"},
		Usage:       "Owner user ID",
		Sources:     cli.EnvVars("KIOKU_USER_ID"),
		Destination: userID,
		Required:    true,
	}
}

func newCommand() *cli.Command {
	var (
		cfg     config
		userID  string
		title   string
		content string
		url     string
		tags    []string
	)

	flags := []cli.Flag{
		userFlag(&userID),
		&cli.StringFlag{
			Name:        "title",
			Aliases:     []string{"t"},
			Usage:       "Memory title",
			Destination: &title,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "content",
			Aliases:     []string{"c"},
			Usage:       "Memory content",
			Destination: &content,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "url",
			Usage:       "Source URL",
			Destination: &url,
		},
		&cli.StringSliceFlag{
			Name:        "tag",
			Usage:       "Tag (repeatable)",
			Destination: &tags,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "new",
		Usage: "Create a new memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			uc, err := cfg.newUsecases(ctx, "")
			if err != nil {
				return err
			}

			created, err := uc.memory.Create(ctx, model.UserID(userID), memory.CreateInput{
				Title:   title,
				Content: content,
				URL:     url,
				Tags:    tags,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create memory")
			}

			fmt.Fprintf(c.Root().Writer, "Created memory: %s\n", created.ID)
			if created.EmbeddingID == "" {
				fmt.Fprintf(c.Root().Writer, "Warning: memory is not indexed yet; run 'kioku reindex' to retry\n")
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	var (
		cfg    config
		userID string
		search string
		tags   []string
	)

	flags := []cli.Flag{
		userFlag(&userID),
		&cli.StringFlag{
			Name:        "search",
			Aliases:     []string{"s"},
			Usage:       "Substring filter on title and content",
			Destination: &search,
		},
		&cli.StringSliceFlag{
			Name:        "tag",
			Usage:       "Tag filter (repeatable)",
			Destination: &tags,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			uc, err := cfg.newUsecases(ctx, "")
			if err != nil {
				return err
			}

			memories, total, err := uc.memory.List(ctx, model.UserID(userID), repository.ListMemoriesOptions{
				Search: search,
				Tags:   tags,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to list memories")
			}

			for _, m := range memories {
				fmt.Fprintf(c.Root().Writer, "%s  %s  [%s]\n", m.ID, m.Title, strings.Join(m.Tags, ", "))
			}
			fmt.Fprintf(c.Root().Writer, "%d of %d memories\n", len(memories), total)
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	var (
		cfg    config
		userID string
		limit  int64
	)

	flags := []cli.Flag{
		userFlag(&userID),
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum candidates requested from the vector index",
			Value:       10,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Semantic search over memories",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			query := strings.Join(c.Args().Slice(), " ")
			if query == "" {
				return goerr.New("query is required")
			}

			uc, err := cfg.newUsecases(ctx, "")
			if err != nil {
				return err
			}

			result, err := uc.retrieval.Search(ctx, model.UserID(userID), query, int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to search memories")
			}

			for _, m := range result.Memories {
				fmt.Fprintf(c.Root().Writer, "%.3f  %s  %s\n", m.Score, m.ID, m.Title)
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	var (
		cfg      config
		userID   string
		memoryID string
	)

	flags := []cli.Flag{
		userFlag(&userID),
		&cli.StringFlag{
			Name:        "memory-id",
			Aliases:     []string{"id"},
			Usage:       "Memory ID to delete",
			Destination: &memoryID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "delete",
		Usage: "Delete a memory and its vector entry",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			uc, err := cfg.newUsecases(ctx, "")
			if err != nil {
				return err
			}

			if err := uc.memory.Delete(ctx, model.UserID(userID), model.MemoryID(memoryID)); err != nil {
				return goerr.Wrap(err, "failed to delete memory")
			}

			fmt.Fprintf(c.Root().Writer, "Deleted memory: %s\n", memoryID)
			return nil
		},
	}
}

func reindexCommand() *cli.Command {
	var (
		cfg    config
		userID string
	)

	flags := []cli.Flag{userFlag(&userID)}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "reindex",
		Usage: "Retry embedding for memories without a vector entry",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			uc, err := cfg.newUsecases(ctx, "")
			if err != nil {
				return err
			}

			indexed, err := uc.memory.Reindex(ctx, model.UserID(userID))
			if err != nil {
				return goerr.Wrap(err, "failed to reindex memories")
			}

			fmt.Fprintf(c.Root().Writer, "Indexed %d memories\n", indexed)
			return nil
		},
	}
}
