package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/starford/recordbook/internal"
	"github.com/starford/recordbook/internal/apperr"
	"github.com/starford/recordbook/internal/models"
	"github.com/starford/recordbook/internal/parser"
	pkgconfig "github.com/starford/recordbook/pkg/config"
)

// stdout receives command output.
var stdout io.Writer = os.Stdout

const defaultHistoryLimit = 20

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "recordbook",
		Usage: "Keep id,name,age,address records in a plain text file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("RECORDBOOK_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create an empty record file, truncating an existing one",
				Action: withService(initAction),
			},
			{
				Name:      "add",
				Usage:     "Add a record",
				ArgsUsage: "ID NAME AGE ADDRESS",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "line", Usage: `Record as "id,name,age,address"`},
				},
				Action: withService(addAction),
			},
			{
				Name:      "find",
				Usage:     "Print records whose field equals value",
				ArgsUsage: "FIELD=VALUE",
				Action:    withService(findAction),
			},
			{
				Name:   "list",
				Usage:  "Print every record",
				Action: withService(listAction),
			},
			{
				Name:      "delete",
				Usage:     "Delete records whose field equals value",
				ArgsUsage: "FIELD=VALUE",
				Action:    withService(deleteAction),
			},
			{
				Name:      "edit",
				Usage:     "Change the name, age or address of a record",
				ArgsUsage: "ID FIELD VALUE",
				Action:    withService(editAction),
			},
			{
				Name:      "backup",
				Usage:     "Copy the record file to PATH",
				ArgsUsage: "PATH",
				Action:    withService(backupAction),
			},
			{
				Name:      "restore",
				Usage:     "Replace the record file with the contents of PATH",
				ArgsUsage: "PATH",
				Action:    withService(restoreAction),
			},
			{
				Name:      "export",
				Usage:     "Write the records to an xlsx workbook",
				ArgsUsage: "PATH",
				Action:    withService(exportAction),
			},
			{
				Name:   "clear",
				Usage:  "Delete every record",
				Action: withService(clearAction),
			},
			{
				Name:      "history",
				Usage:     "Show the most recent journaled operations",
				ArgsUsage: "[LIMIT]",
				Action:    withService(historyAction),
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcpAction,
			},
		},
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(cmd.String("config"), "", cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

type serviceAction func(ctx context.Context, cmd *cli.Command, sess *internal.Session) error

// withService opens a session for one-shot commands. Logs go to stderr as
// text so that stdout only carries command output.
func withService(fn serviceAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

		sess, err := internal.OpenSession(cfg, logger)
		if err != nil {
			return err
		}
		defer sess.Close()
		return fn(ctx, cmd, sess)
	}
}

func wantArgs(cmd *cli.Command, n int) error {
	if cmd.NArg() != n {
		return fmt.Errorf("%w: %s expects %s", apperr.ErrInvalidInput, cmd.Name, cmd.ArgsUsage)
	}
	return nil
}

func initAction(ctx context.Context, _ *cli.Command, sess *internal.Session) error {
	if err := sess.Service.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "initialized %s\n", sess.Service.Path())
	return nil
}

func addAction(ctx context.Context, cmd *cli.Command, sess *internal.Session) error {
	var (
		rec models.Record
		err error
	)
	if line := cmd.String("line"); line != "" {
		rec, err = parser.ParseRecord(line)
	} else {
		if err := wantArgs(cmd, 4); err != nil {
			return err
		}
		a := cmd.Args()
		rec, err = parser.ParseFields(a.Get(0), a.Get(1), a.Get(2), a.Get(3))
	}
	if err != nil {
		return err
	}

	added, err := sess.Service.Add(ctx, rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "added %s\n", added)
	return nil
}

func findAction(ctx context.Context, cmd *cli.Command, sess *internal.Session) error {
	if err := wantArgs(cmd, 1); err != nil {
		return err
	}
	q, err := parser.ParseAssignment(cmd.Args().First())
	if err != nil {
		return err
	}
	recs, err := sess.Service.Find(ctx, q.Field, q.Value)
	if err != nil {
		return err
	}
	printRecords(recs)
	return nil
}

func listAction(ctx context.Context, _ *cli.Command, sess *internal.Session) error {
	recs, err := sess.Service.List(ctx)
	if err != nil {
		return err
	}
	printRecords(recs)
	return nil
}

func deleteAction(ctx context.Context, cmd *cli.Command, sess *internal.Session) error {
	if err := wantArgs(cmd, 1); err != nil {
		return err
	}
	q, err := parser.ParseAssignment(cmd.Args().First())
	if err != nil {
		return err
	}
	n, err := sess.Service.Delete(ctx, q.Field, q.Value)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "deleted %d\n", n)
	return nil
}

func editAction(ctx context.Context, cmd *cli.Command, sess *internal.Session) error {
	if err := wantArgs(cmd, 3); err != nil {
		return err
	}
	a := cmd.Args()
	id, err := parser.ParseID(a.Get(0))
	if err != nil {
		return err
	}
	updated, err := sess.Service.Edit(ctx, id, a.Get(1), a.Get(2))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "updated %s\n", updated)
	return nil
}

func backupAction(ctx context.Context, cmd *cli.Command, sess *internal.Session) error {
	if err := wantArgs(cmd, 1); err != nil {
		return err
	}
	dst := cmd.Args().First()
	if err := sess.Service.Backup(ctx, dst); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "backed up to %s\n", dst)
	return nil
}

func restoreAction(ctx context.Context, cmd *cli.Command, sess *internal.Session) error {
	if err := wantArgs(cmd, 1); err != nil {
		return err
	}
	src := cmd.Args().First()
	if err := sess.Service.Restore(ctx, src); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "restored from %s (%d records)\n", src, sess.Service.Len())
	return nil
}

func exportAction(ctx context.Context, cmd *cli.Command, sess *internal.Session) error {
	if err := wantArgs(cmd, 1); err != nil {
		return err
	}
	dst := cmd.Args().First()
	if err := sess.Service.Export(ctx, dst); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported to %s\n", dst)
	return nil
}

func clearAction(ctx context.Context, _ *cli.Command, sess *internal.Session) error {
	if err := sess.Service.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "cleared")
	return nil
}

func historyAction(ctx context.Context, cmd *cli.Command, sess *internal.Session) error {
	limit := defaultHistoryLimit
	if cmd.NArg() > 0 {
		n, err := strconv.Atoi(cmd.Args().First())
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: limit must be a positive number", apperr.ErrInvalidInput)
		}
		limit = n
	}

	entries, err := sess.Service.History(ctx, limit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		target := ""
		if e.RecordID != nil {
			target = " id=" + strconv.Itoa(*e.RecordID)
		}
		if e.Field != "" {
			target += " " + e.Field + "=" + e.Value
		} else if e.Value != "" {
			target += " " + e.Value
		}
		fmt.Fprintf(stdout, "%s %-7s %-6s%s affected=%d\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Op, e.Outcome, target, e.Affected)
	}
	return nil
}

func printRecords(recs []models.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(stdout, "no records")
		return
	}
	for _, r := range recs {
		fmt.Fprintln(stdout, r.String())
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg)); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}
