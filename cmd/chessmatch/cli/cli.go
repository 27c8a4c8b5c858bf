// Package cli implements the "chessmatch db" maintenance commands
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"chessmatch/internal/storage"
)

// Run is the entry point for the CLI mini-app
func Run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, delete, query, moves")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:], out)
	case "delete":
		return runDelete(args[1:], out)
	case "query":
		return runQuery(args[1:], out)
	case "moves":
		return runMoves(args[1:], out)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// pathFlag parses a flag set that always carries -path
func pathFlag(name string, args []string, out io.Writer, extra func(*flag.FlagSet)) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	path := fs.String("path", "", "Database file path (required)")
	if extra != nil {
		extra(fs)
	}

	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *path == "" {
		return "", fmt.Errorf("database path required")
	}
	return *path, nil
}

func runInit(args []string, out io.Writer) error {
	path, err := pathFlag("init", args, out, nil)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(path)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Fprintf(out, "Database initialized at: %s\n", path)
	return nil
}

func runDelete(args []string, out io.Writer) error {
	path, err := pathFlag("delete", args, out, nil)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	if err := store.DeleteDB(); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}

	fmt.Fprintf(out, "Database deleted: %s\n", path)
	return nil
}

func runQuery(args []string, out io.Writer) error {
	var matchID, engineName string
	path, err := pathFlag("query", args, out, func(fs *flag.FlagSet) {
		fs.StringVar(&matchID, "matchId", "", "Match ID to filter (optional, * for all)")
		fs.StringVar(&engineName, "engine", "", "Engine name on either side (optional, * for all)")
	})
	if err != nil {
		return err
	}

	store, err := storage.NewStore(path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	matches, err := store.QueryMatches(matchID, engineName)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Match ID\tLabel\tWhite\tBlack\tResult\tPlies\tStart Time")
	fmt.Fprintln(w, strings.Repeat("-", 96))

	for _, m := range matches {
		fmt.Fprintf(w, "%s\t%s\t%s (%s)\t%s (%s)\t%s %s\t%d\t%s\n",
			shortID(m.MatchID),
			m.Label,
			m.WhiteName, m.WhiteProtocol,
			m.BlackName, m.BlackProtocol,
			m.Score, m.Verdict,
			m.MoveCount,
			m.StartTimeUTC.Format(time.DateTime),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nFound %d match(es)\n", len(matches))
	return nil
}

func runMoves(args []string, out io.Writer) error {
	var matchID string
	path, err := pathFlag("moves", args, out, func(fs *flag.FlagSet) {
		fs.StringVar(&matchID, "matchId", "", "Match ID (required)")
	})
	if err != nil {
		return err
	}
	if matchID == "" {
		return fmt.Errorf("match id required")
	}

	store, err := storage.NewStore(path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	moves, err := store.QueryMoves(matchID)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(moves) == 0 {
		fmt.Fprintln(out, "No moves found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Ply\tSide\tUCI\tSAN\tSource\tTime\tReason")
	for _, m := range moves {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%dms\t%s\n",
			m.Ply, m.PlayerColor, m.MoveUCI, m.MoveSAN, m.Source, m.ElapsedMs, m.Reason)
	}
	w.Flush()
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}
