package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"feedhub/app/crawler"
)

type FeedCommand struct {
	List   FeedListCommand   `command:"list" description:"List all feeds"`
	Add    FeedAddCommand    `command:"add" description:"Add a new feed"`
	Delete FeedDeleteCommand `command:"delete" description:"Delete a feed"`
	Crawl  FeedCrawlCommand  `command:"crawl" description:"Crawl a feed manually"`
	Items  FeedItemsCommand  `command:"items" description:"Show the stored items of a feed"`
	Import FeedImportCommand `command:"import" description:"Add feeds from a YAML subscriptions file"`
}

type FeedListCommand struct{}

func (c *FeedListCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	feeds, err := app.manager.ListFeeds(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tURL\tLAST CRAWLED")
	for _, f := range feeds {
		lastCrawled := "never"
		if f.LastCrawledAt != nil {
			lastCrawled = f.LastCrawledAt.Local().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", f.ID, f.Title, f.URL, lastCrawled)
	}
	return w.Flush()
}

type FeedAddCommand struct {
	Group string `short:"g" long:"group" description:"Group to add the feed to"`
	Args  struct {
		URL string `positional-arg-name:"url" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *FeedAddCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	f, err := app.manager.AddFeed(context.Background(), c.Args.URL, c.Group)
	if err != nil {
		return err
	}

	fmt.Printf("Feed added: #%d %s (%s)\n", f.ID, f.Title, f.Link)
	if c.Group != "" {
		fmt.Printf("Feed added to group %q\n", c.Group)
	}
	return nil
}

type FeedDeleteCommand struct {
	Args struct {
		ID int64 `positional-arg-name:"id" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *FeedDeleteCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	f, err := app.manager.DeleteFeed(context.Background(), c.Args.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Feed deleted: #%d %s\n", f.ID, f.Title)
	return nil
}

type FeedCrawlCommand struct {
	Args struct {
		ID int64 `positional-arg-name:"id" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *FeedCrawlCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	f, err := app.manager.GetFeed(ctx, c.Args.ID)
	if err != nil {
		return err
	}

	result, err := app.crawler.Crawl(ctx, *f)
	if err != nil {
		return err
	}
	if result.Outcome != crawler.OutcomeOK {
		return fmt.Errorf("crawl of feed #%d failed: %w", f.ID, result.Err)
	}

	fmt.Printf("Crawled feed #%d %s: %d new items\n", f.ID, f.Title, result.NewItems)
	return nil
}

type FeedItemsCommand struct {
	Limit int `short:"n" long:"limit" default:"20" description:"Maximum number of items to show"`
	Args  struct {
		ID int64 `positional-arg-name:"id" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *FeedItemsCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	items, err := app.manager.FeedItems(context.Background(), c.Args.ID, c.Limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPUBLISHED\tTITLE\tLINK")
	for _, item := range items {
		published := ""
		if item.PublishedAt != nil {
			published = item.PublishedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", item.ID, published, item.Title, item.Link)
	}
	return w.Flush()
}
