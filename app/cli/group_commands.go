package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

type GroupCommand struct {
	List    GroupListCommand    `command:"list" description:"List all groups"`
	Add     GroupAddCommand     `command:"add" description:"Add a group"`
	AddFeed GroupAddFeedCommand `command:"add-feed" description:"Add a feed to a group"`
	Delete  GroupDeleteCommand  `command:"delete" description:"Delete a group"`
	Show    GroupShowCommand    `command:"show" description:"Show the feeds of a group"`
}

type GroupListCommand struct{}

func (c *GroupListCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	groups, err := app.manager.ListGroups(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE")
	for _, g := range groups {
		fmt.Fprintf(w, "%d\t%s\n", g.ID, g.Title)
	}
	return w.Flush()
}

type GroupAddCommand struct {
	Args struct {
		Name string `positional-arg-name:"name" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *GroupAddCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	group, err := app.manager.CreateGroup(context.Background(), c.Args.Name)
	if err != nil {
		return err
	}

	fmt.Printf("Group %q added\n", group.Title)
	return nil
}

type GroupAddFeedCommand struct {
	Args struct {
		FeedID int64  `positional-arg-name:"feed-id" required:"yes"`
		Name   string `positional-arg-name:"group" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *GroupAddFeedCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	group, err := app.manager.AddFeedToGroup(context.Background(), c.Args.FeedID, c.Args.Name)
	if err != nil {
		return err
	}

	fmt.Printf("Feed #%d added to group %q\n", c.Args.FeedID, group.Title)
	return nil
}

type GroupDeleteCommand struct {
	Args struct {
		Name string `positional-arg-name:"name" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *GroupDeleteCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	feedCount, err := app.manager.DeleteGroup(context.Background(), c.Args.Name)
	if err != nil {
		return err
	}

	if feedCount > 0 {
		fmt.Printf("Warning: %d feeds still belonged to this group\n", feedCount)
	}
	fmt.Printf("Group %q deleted\n", c.Args.Name)
	return nil
}

type GroupShowCommand struct {
	Args struct {
		Name string `positional-arg-name:"name" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *GroupShowCommand) Execute(args []string) error {
	app, err := openApp()
	if err != nil {
		return err
	}
	defer app.Close()

	group, feeds, err := app.manager.GroupFeeds(context.Background(), c.Args.Name)
	if err != nil {
		return err
	}

	fmt.Printf("Group %q:\n\n", group.Title)
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tURL")
	for _, f := range feeds {
		fmt.Fprintf(w, "%d\t%s\t%s\n", f.ID, f.Title, f.URL)
	}
	return w.Flush()
}
