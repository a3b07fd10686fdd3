package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ternarybob/stockscan/internal/app"
	"github.com/ternarybob/stockscan/internal/common"
	"github.com/ternarybob/stockscan/internal/models"
	"github.com/ternarybob/stockscan/internal/services/credentials"
)

// errUsage signals a malformed command line; main exits with status 2.
var errUsage = errors.New("usage error")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands = []command{
	{"search", "search [-o text|json|yaml] <keywords>", runSearch},
	{"fetch", "fetch [-o text|json|yaml] <symbol>", runFetch},
	{"watch", "watch <symbol>", runWatch},
	{"key", "key set <value> | key show | key clear", runKey},
	{"cache", "cache list | cache clear-search | cache invalidate <symbol> | cache compact", runCache},
	{"reset", "reset -yes", runReset},
}

func findCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usageError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// parseOutputFlags parses the -o flag shared by search and fetch.
func parseOutputFlags(name string, args []string) (string, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("o", formatText, "Output format: text, json or yaml")
	if err := fs.Parse(args); err != nil {
		return "", nil, usageError("%s: %v", name, err)
	}
	if !validFormat(*format) {
		return "", nil, usageError("%s: unknown output format %q", name, *format)
	}
	return *format, fs.Args(), nil
}

func runSearch(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	format, rest, err := parseOutputFlags("search", args)
	if err != nil {
		return err
	}
	query := strings.Join(rest, " ")
	if strings.TrimSpace(query) == "" {
		return usageError("search: keywords required")
	}

	result := a.Loader.Search(ctx, query)
	switch result.Status {
	case models.ResultFailed:
		return fmt.Errorf("search failed: %s", result.Reason)
	case models.ResultEmpty:
		if result.Reason != "" {
			a.Logger.Info().Str("query", query).Str("reason", result.Reason).Msg("Search returned no results")
		}
	}
	return writeSearchResults(out, format, result.Value)
}

func runFetch(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	format, rest, err := parseOutputFlags("fetch", args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return usageError("fetch: exactly one symbol required")
	}

	st := a.Loader.Load(ctx, rest[0])
	if st.Err != nil {
		return st.Err
	}
	if st.Data == nil {
		return fmt.Errorf("no data for %s", rest[0])
	}

	a.Logger.Debug().
		Str("symbol", st.Symbol).
		Str("source", string(st.Source)).
		Str("load_id", st.LoadID).
		Msg("Fetched stock data")

	return writeStockData(out, format, st.Data)
}

func runWatch(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return usageError("watch: exactly one symbol required")
	}

	updates, unsubscribe := a.Loader.Subscribe()
	defer unsubscribe()

	a.Loader.Select(ctx, args[0])
	if err := a.StartRefresher(ctx); err != nil {
		return err
	}
	defer a.Refresher.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			line := stateLine(st.Symbol, st.Loading, st.Err, st.Data, string(st.Source))
			fmt.Fprintf(out, "%s  %s\n", time.Now().Format("15:04:05"), line)
		}
	}
}

func runKey(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("key: subcommand required (set, show, clear)")
	}

	switch args[0] {
	case "set":
		if len(args) != 2 {
			return usageError("key set: exactly one value required")
		}
		if err := a.Credentials.SetAPIKey(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(out, "API key saved")
		return nil

	case "show":
		key, source, err := a.Credentials.Resolve(ctx)
		if err != nil {
			fmt.Fprintln(out, "No API key configured")
			return nil
		}
		fmt.Fprintf(out, "%s (source: %s)\n", credentials.Mask(key), source)
		return nil

	case "clear":
		if err := a.Credentials.ClearAPIKey(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "API key cleared")
		return nil

	default:
		return usageError("key: unknown subcommand %q", args[0])
	}
}

func runCache(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("cache: subcommand required (list, clear-search, invalidate, compact)")
	}

	switch args[0] {
	case "list":
		symbols, err := a.Cache.ListCachedSymbols(ctx)
		if err != nil {
			return err
		}
		rows := make([]cachedSymbol, 0, len(symbols))
		for _, sym := range symbols {
			row := cachedSymbol{Symbol: sym}
			if entry, ok := a.Cache.GetDataset(ctx, sym); ok {
				row.CapturedAt = entry.CapturedAt
				row.Fresh = a.Cache.IsFresh(entry.CapturedAt)
			}
			rows = append(rows, row)
		}
		return writeCachedSymbols(out, rows)

	case "clear-search":
		if err := a.Cache.ClearSearch(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Search cache cleared")
		return nil

	case "invalidate":
		if len(args) != 2 {
			return usageError("cache invalidate: exactly one symbol required")
		}
		symbol := common.NormalizeSymbol(args[1])
		if err := a.Cache.Invalidate(ctx, symbol); err != nil {
			return err
		}
		fmt.Fprintf(out, "Invalidated %s\n", symbol)
		return nil

	case "compact":
		if err := a.StorageManager.Compact(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Storage compacted")
		return nil

	default:
		return usageError("cache: unknown subcommand %q", args[0])
	}
}

// runReset removes every stored entry: the API key and both caches.
func runReset(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	yes := fs.Bool("yes", false, "Confirm removal of all stored data")
	if err := fs.Parse(args); err != nil {
		return usageError("reset: %v", err)
	}
	if fs.NArg() != 0 {
		return usageError("reset: unexpected arguments %v", fs.Args())
	}
	if !*yes {
		return usageError("reset: removes the stored API key and all cached data, pass -yes to confirm")
	}

	if err := a.StorageManager.KeyValueStorage().DeleteAll(ctx); err != nil {
		return err
	}
	a.Logger.Warn().Msg("All stored data removed")
	fmt.Fprintln(out, "All stored data removed")
	return nil
}
