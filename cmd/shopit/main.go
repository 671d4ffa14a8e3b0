// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/poiesic/shopit"
	"github.com/poiesic/shopit/config"
	"github.com/poiesic/shopit/core"
	"github.com/poiesic/shopit/price"
	"github.com/poiesic/shopit/search"
	"github.com/poiesic/shopit/storage"
	"github.com/urfave/cli/v2"
)

const defaultTarget = "cli"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	configFlag := &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to YAML configuration file",
		Required: true,
	}
	targetFlag := &cli.StringFlag{
		Name:    "target",
		Aliases: []string{"t"},
		Usage:   "Display target to render results to",
		Value:   defaultTarget,
	}
	searchFlags := []cli.Flag{
		configFlag,
		targetFlag,
		&cli.StringFlag{
			Name:     "descriptors",
			Aliases:  []string{"d"},
			Usage:    "Path to YAML file listing the items to search for",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "Print each search stage to stderr",
		},
	}

	return &cli.App{
		Name:  "shopit",
		Usage: "Find purchasable products for interior design items",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "search",
				Usage:  "Search every provider for the listed items and keep the relevant results",
				Action: searchCommand,
				Flags:  searchFlags,
			},
			{
				Name:   "brand",
				Usage:  "Search for the listed items made by one brand",
				Action: brandCommand,
				Flags: append(searchFlags,
					&cli.StringFlag{
						Name:     "brand",
						Aliases:  []string{"b"},
						Usage:    "Brand the products must be made by",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Product category, e.g. headphones",
					},
				),
			},
			{
				Name:   "view",
				Usage:  "Print the last results rendered to a display target",
				Action: viewCommand,
				Flags:  []cli.Flag{configFlag, targetFlag},
			},
			{
				Name:   "clear",
				Usage:  "Discard a display target and its results",
				Action: clearCommand,
				Flags:  []cli.Flag{configFlag, targetFlag},
			},
		},
	}
}

func openStore(c *cli.Context) (*shopit.Store, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if !c.IsSet("log-level") {
		if err := configureLogging(cfg.Logging.Level); err != nil {
			return nil, err
		}
	}
	store, err := shopit.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func searchCommand(c *cli.Context) error {
	return runSearch(c, func(ctx context.Context, s *search.Searcher, session *core.Session, items []core.ItemDescriptor, monitor search.SearchMonitor) (*core.SearchView, error) {
		return s.SearchWithMonitor(ctx, session, items, monitor)
	})
}

func brandCommand(c *cli.Context) error {
	brand, category := c.String("brand"), c.String("category")
	return runSearch(c, func(ctx context.Context, s *search.Searcher, session *core.Session, items []core.ItemDescriptor, monitor search.SearchMonitor) (*core.SearchView, error) {
		return s.SearchBrandWithMonitor(ctx, session, items, brand, category, monitor)
	})
}

type searchFunc func(ctx context.Context, s *search.Searcher, session *core.Session, items []core.ItemDescriptor, monitor search.SearchMonitor) (*core.SearchView, error)

func runSearch(c *cli.Context, run searchFunc) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	items, err := config.LoadDescriptors(c.String("descriptors"))
	if err != nil {
		return err
	}

	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	target := c.String("target")
	if err := store.DisplayRepository().RegisterTarget(ctx, target); err != nil {
		return fmt.Errorf("failed to register display target: %w", err)
	}

	searcher, err := store.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Release()

	var monitor search.SearchMonitor
	if c.Bool("trace") {
		monitor = &traceMonitor{w: c.App.ErrWriter}
	}

	session := &core.Session{ID: target, DisplayTarget: target}
	view, err := run(ctx, searcher, session, items, monitor)
	if errors.Is(err, core.ErrUnclearBrand) {
		return cli.Exit("The brand is unclear. Which brand do you mean?", 2)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printView(c.App.Writer, view, store.Config().Localization.Currency)
	return nil
}

func viewCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	view, err := store.DisplayRepository().GetView(c.Context, c.String("target"))
	if errors.Is(err, storage.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("nothing rendered to %q", c.String("target")), 1)
	}
	if err != nil {
		return err
	}
	printView(c.App.Writer, view, store.Config().Localization.Currency)
	return nil
}

func clearCommand(c *cli.Context) error {
	store, err := openStore(c)
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.DisplayRepository().ClearTarget(c.Context, c.String("target"))
	if errors.Is(err, storage.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("no display target %q", c.String("target")), 1)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Cleared %s\n", c.String("target"))
	return nil
}

func printView(w io.Writer, view *core.SearchView, currency string) {
	fmt.Fprintf(w, "Found %d products\n", view.TotalProducts)
	for _, category := range view.Categories {
		fmt.Fprintln(w)
		header := fmt.Sprintf("%s (%s)", category.Name, category.Query)
		if category.Degraded {
			header += " [suggestions only, providers unavailable]"
		}
		fmt.Fprintln(w, header)
		if len(category.Products) == 0 {
			fmt.Fprintln(w, "  no matching products")
		}
		for i, p := range category.Products {
			line := fmt.Sprintf("  %d. %s", i+1, p.Title)
			if p.Price.IsSet() {
				line += " | " + price.Format(p.Price, currency)
			}
			if p.Merchant != "" {
				line += " | " + p.Merchant
			}
			fmt.Fprintf(w, "%s [%s]\n", line, p.Provenance)
			if p.Link != "" {
				fmt.Fprintf(w, "     %s\n", p.Link)
			}
		}
	}
}

// traceMonitor prints search stages as they happen.
type traceMonitor struct {
	mu sync.Mutex
	w  io.Writer
}

var _ search.SearchMonitor = (*traceMonitor)(nil)

func (m *traceMonitor) printf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.w, format+"\n", args...)
}

func (m *traceMonitor) Start(descriptors []core.ItemDescriptor) {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	m.printf("searching for %s", strings.Join(names, ", "))
}

func (m *traceMonitor) ProviderFinished(descriptor string, provenance core.Provenance, products int, err error) {
	if err != nil {
		m.printf("  %s: %s failed: %v", descriptor, provenance, err)
		return
	}
	m.printf("  %s: %s returned %d", descriptor, provenance, products)
}

func (m *traceMonitor) Degraded(descriptor string, products int) {
	m.printf("  %s: all providers failed, %d placeholders", descriptor, products)
}

func (m *traceMonitor) Filtered(descriptor string, before, after int) {
	m.printf("  %s: kept %d of %d", descriptor, after, before)
}

func (m *traceMonitor) Rendered(target string, view *core.SearchView) {
	m.printf("rendered %d products to %s", view.TotalProducts, target)
}

func (m *traceMonitor) RenderSkipped(target string, reason string) {
	m.printf("not rendered to %s: %s", target, reason)
}

func (m *traceMonitor) Finish(view *core.SearchView) {
	m.printf("done: %d categories", len(view.Categories))
}

func setupLogger(c *cli.Context) error {
	return configureLogging(c.String("log-level"))
}

func configureLogging(levelStr string) error {
	// Map string to slog.Level
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
