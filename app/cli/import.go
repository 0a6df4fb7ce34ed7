package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"feedhub/app/database"
)

// subscriptionFile is the YAML format accepted by `feed import`:
//
//	feeds:
//	  - url: https://example.com/feed.xml
//	    group: news
type subscriptionFile struct {
	Feeds []subscription `yaml:"feeds"`
}

type subscription struct {
	URL   string `yaml:"url"`
	Group string `yaml:"group"`
}

func loadSubscriptions(path string) ([]subscription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions file: %w", err)
	}

	var file subscriptionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse subscriptions file: %w", err)
	}

	for i, sub := range file.Feeds {
		if sub.URL == "" {
			return nil, fmt.Errorf("subscription %d has no url", i+1)
		}
	}

	return file.Feeds, nil
}

type FeedImportCommand struct {
	Args struct {
		File string `positional-arg-name:"file" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *FeedImportCommand) Execute(args []string) error {
	subs, err := loadSubscriptions(c.Args.File)
	if err != nil {
		return err
	}

	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	// Groups named in the file are created up front so feed additions
	// only fail for feed-level reasons.
	for _, sub := range subs {
		if sub.Group == "" {
			continue
		}
		if _, err := app.manager.EnsureGroup(ctx, sub.Group); err != nil {
			return err
		}
	}

	added, skipped, failed := 0, 0, 0
	for _, sub := range subs {
		f, err := app.manager.AddFeed(ctx, sub.URL, sub.Group)
		switch {
		case errors.Is(err, database.ErrAlreadyExists):
			fmt.Printf("Skipped %s: already subscribed\n", sub.URL)
			skipped++
		case err != nil:
			fmt.Printf("Failed %s: %v\n", sub.URL, err)
			failed++
		default:
			fmt.Printf("Added #%d %s\n", f.ID, f.Title)
			added++
		}
	}

	fmt.Printf("Imported %d feeds (%d skipped, %d failed)\n", added, skipped, failed)
	return nil
}
