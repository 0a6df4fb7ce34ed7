package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalHelpers(t *testing.T) {
	c := &Cfg{PollInterval: 300, TickInterval: 30, FetchTimeout: 10}

	assert.Equal(t, 5*time.Minute, c.PollEvery())
	assert.Equal(t, 30*time.Second, c.TickEvery())
	assert.Equal(t, 10*time.Second, c.FetchTimeoutDuration())
}

func TestSetAndGet(t *testing.T) {
	c := &Cfg{Database: "test.db"}
	Set(c)

	got := Get()
	assert.Equal(t, "test.db", got.Database)
	assert.Equal(t, GetVersion(), got.Version)
}
