package cfg

import "time"

type Cfg struct {
	// Store configuration
	Database string `short:"d" long:"database" env:"FEEDHUB_DATABASE" default:"feedhub.db" description:"Path to the sqlite database file"`

	// Crawl engine configuration
	WorkerCount  int `long:"worker-count" env:"FEEDHUB_WORKER_COUNT" default:"5" description:"Number of concurrent crawl workers"`
	PollInterval int `long:"poll-interval" env:"FEEDHUB_POLL_INTERVAL" default:"300" description:"Seconds after a crawl attempt before a feed is due again"`
	TickInterval int `long:"tick-interval" env:"FEEDHUB_TICK_INTERVAL" default:"30" description:"Seconds between scheduling passes"`
	FetchTimeout int `long:"fetch-timeout" env:"FEEDHUB_FETCH_TIMEOUT" default:"30" description:"Timeout in seconds for a single feed fetch"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"FEEDHUB_USER_AGENT" default:"feedhub/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"FEEDHUB_DEBUG" description:"Enable debug logging"`

	Version string `no-flag:"yes"`
}

func (c *Cfg) PollEvery() time.Duration {
	return time.Duration(c.PollInterval) * time.Second
}

func (c *Cfg) TickEvery() time.Duration {
	return time.Duration(c.TickInterval) * time.Second
}

func (c *Cfg) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}
