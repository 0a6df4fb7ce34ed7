// Package cli wires the go-flags command tree to the management layer and
// hosts the server bootstrap.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"feedhub/app/cfg"
	"feedhub/app/crawler"
	"feedhub/app/database"
	"feedhub/app/feed"
	"feedhub/app/manage"
)

type options struct {
	cfg.Cfg

	Feed   FeedCommand   `command:"feed" description:"Manage feeds"`
	Group  GroupCommand  `command:"group" description:"Manage groups"`
	Server ServerCommand `command:"server" description:"Start the management API and the background crawler"`
}

// Run parses the command line and executes the selected command.
func Run() error {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		cfg.Set(&opts.Cfg)
		setupLogging(opts.Debug)
		return cmd.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(flagsErr.Message)
			return nil
		}
		return err
	}

	return nil
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// app bundles the store, the fetch-parse pipeline, and the management
// layer for one command invocation.
type app struct {
	db      *database.DB
	feeds   *database.FeedRepository
	groups  *database.GroupRepository
	items   *database.ItemRepository
	manager *manage.Manager
	crawler *crawler.Crawler
}

func openApp() (*app, error) {
	c := cfg.Get()

	db, err := database.NewConnection(c.Database)
	if err != nil {
		return nil, err
	}

	if _, _, err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	feeds := database.NewFeedRepository(db)
	groups := database.NewGroupRepository(db)
	items := database.NewItemRepository(db)

	fetcher := feed.NewFetcher(feed.NewHTTPClient(), c.UserAgent, c.FetchTimeoutDuration())
	pipeline := feed.NewPipeline(fetcher, feed.NewParser())

	return &app{
		db:      db,
		feeds:   feeds,
		groups:  groups,
		items:   items,
		manager: manage.New(feeds, groups, items, pipeline),
		crawler: crawler.New(pipeline, feeds, items),
	}, nil
}

func (a *app) Close() {
	a.db.Close()
}
