package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cryptodash/internal/config"
	"cryptodash/internal/database"
	"cryptodash/internal/models"
	"cryptodash/internal/portfolio"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

var configPath = flag.String("config", "config.yaml", "path to an optional YAML config file")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, "seed")
	commander.Register(commander.HelpCommand(), "")
	commander.Register(&defaultsCmd{}, "")
	commander.Register(&importCmd{}, "")
	commander.Register(&exportCmd{}, "")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// holdingsRepo is the slice of database.Repo the seed commands write through.
type holdingsRepo interface {
	LoadHoldings(ctx context.Context) ([]models.Holding, error)
	SaveHoldings(ctx context.Context, holdings []models.Holding) error
}

func openRepo(ctx context.Context) (*database.Repo, func(), error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect failed: %w", err)
	}
	return database.New(db, logger), func() { db.Close() }, nil
}

// edit loads the stored holdings into an in-memory store, applies fn and
// writes the result back. Unlike the server, a failed write is an error.
func edit(ctx context.Context, repo holdingsRepo, fn func(*portfolio.Store) error) ([]models.Holding, error) {
	current, err := repo.LoadHoldings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	store := portfolio.NewStore(nil, logger)
	store.ReplaceAllHoldings(ctx, current)

	if err := fn(store); err != nil {
		return nil, err
	}
	next := store.Holdings()
	if err := repo.SaveHoldings(ctx, next); err != nil {
		return nil, fmt.Errorf("save holdings: %w", err)
	}
	return next, nil
}

func installDefaults(ctx context.Context, repo holdingsRepo, force bool) ([]models.Holding, error) {
	return edit(ctx, repo, func(s *portfolio.Store) error {
		if n := len(s.Holdings()); n > 0 && !force {
			return fmt.Errorf("portfolio already has %d holdings; use -force to replace them", n)
		}
		s.ReplaceAllHoldings(ctx, portfolio.DefaultHoldings())
		return nil
	})
}

func importHoldings(ctx context.Context, repo holdingsRepo, rows []models.Holding, mode string) ([]models.Holding, error) {
	return edit(ctx, repo, func(s *portfolio.Store) error {
		switch mode {
		case "replace":
			s.ReplaceAllHoldings(ctx, rows)
		case "merge":
			s.MergeHoldings(ctx, rows)
		default:
			return fmt.Errorf("unknown import mode %q", mode)
		}
		return nil
	})
}

type defaultsCmd struct {
	force bool
}

func (*defaultsCmd) Name() string     { return "defaults" }
func (*defaultsCmd) Synopsis() string { return "install the built-in default holdings" }
func (*defaultsCmd) Usage() string {
	return `seed defaults [-force]

  Writes the default holdings to the database. Refuses to touch a
  non-empty portfolio unless -force is given.
`
}

func (c *defaultsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "replace existing holdings")
}

func (c *defaultsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	repo, closeFn, err := openRepo(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	installed, err := installDefaults(ctx, repo, c.force)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("installed %d default holdings\n", len(installed))
	return subcommands.ExitSuccess
}

type importCmd struct {
	mode string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "load holdings from a Symbol,Amount CSV file" }
func (*importCmd) Usage() string {
	return `seed import -mode replace|merge <file.csv>

  replace swaps the whole portfolio for the file's rows; merge overwrites
  only the symbols present in the file. Unparseable lines are reported and
  skipped.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.mode, "mode", "", "replace or merge (required)")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.mode != "replace" && c.mode != "merge") || f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	file, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer file.Close()

	rows, rejected, err := portfolio.ReadCSV(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}
	for _, r := range rejected {
		fmt.Fprintf(os.Stderr, "line %d skipped (%s): %s\n", r.Line, r.Reason, r.Raw)
	}

	repo, closeFn, err := openRepo(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	after, err := importHoldings(ctx, repo, rows, c.mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("imported %d rows (%s), portfolio now has %d holdings\n", len(rows), c.mode, len(after))
	return subcommands.ExitSuccess
}

type exportCmd struct{}

func (*exportCmd) Name() string             { return "export" }
func (*exportCmd) Synopsis() string         { return "write holdings as CSV to stdout" }
func (*exportCmd) Usage() string            { return "seed export > portfolio.csv\n" }
func (*exportCmd) SetFlags(_ *flag.FlagSet) {}

func (*exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	repo, closeFn, err := openRepo(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeFn()

	holdings, err := repo.LoadHoldings(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := portfolio.WriteCSV(os.Stdout, holdings); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
