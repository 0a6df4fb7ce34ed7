package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSubscriptions(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSubscriptions(t *testing.T) {
	path := writeSubscriptions(t, `feeds:
  - url: https://example.com/feed.xml
    group: news
  - url: https://example.org/atom.xml
`)

	subs, err := loadSubscriptions(path)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.Equal(t, "https://example.com/feed.xml", subs[0].URL)
	assert.Equal(t, "news", subs[0].Group)
	assert.Equal(t, "https://example.org/atom.xml", subs[1].URL)
	assert.Empty(t, subs[1].Group)
}

func TestLoadSubscriptionsMissingURL(t *testing.T) {
	path := writeSubscriptions(t, `feeds:
  - group: news
`)

	_, err := loadSubscriptions(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no url")
}

func TestLoadSubscriptionsInvalidYAML(t *testing.T) {
	path := writeSubscriptions(t, "feeds: [not closed")

	_, err := loadSubscriptions(path)
	require.Error(t, err)
}

func TestLoadSubscriptionsMissingFile(t *testing.T) {
	_, err := loadSubscriptions(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
