package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// RedditResolver turns subreddit pages into their .rss listing.
type RedditResolver struct{}

func NewRedditResolver() *RedditResolver {
	return &RedditResolver{}
}

func (p *RedditResolver) Name() string {
	return "reddit"
}

func (p *RedditResolver) CanHandle(rawURL string) bool {
	if strings.HasSuffix(strings.TrimSuffix(rawURL, "/"), ".rss") {
		return false
	}
	return strings.Contains(rawURL, "://www.reddit.com/r/") ||
		strings.Contains(rawURL, "://reddit.com/r/") ||
		strings.Contains(rawURL, "://old.reddit.com/r/")
}

func (p *RedditResolver) Priority() int {
	return 50
}

func (p *RedditResolver) Resolve(_ context.Context, rawURL string, _ *http.Client) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing reddit url: %w", err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/") + ".rss"
	return u.String(), nil
}

// YouTubeResolver turns channel pages into the channel's videos.xml feed.
type YouTubeResolver struct{}

func NewYouTubeResolver() *YouTubeResolver {
	return &YouTubeResolver{}
}

func (p *YouTubeResolver) Name() string {
	return "youtube"
}

func (p *YouTubeResolver) CanHandle(rawURL string) bool {
	return (strings.Contains(rawURL, "://www.youtube.com/channel/") ||
		strings.Contains(rawURL, "://youtube.com/channel/")) &&
		channelID(rawURL) != ""
}

func (p *YouTubeResolver) Priority() int {
	return 50
}

func (p *YouTubeResolver) Resolve(_ context.Context, rawURL string, _ *http.Client) (string, error) {
	id := channelID(rawURL)
	if id == "" {
		return "", fmt.Errorf("no channel id in %s", rawURL)
	}
	return "https://www.youtube.com/feeds/videos.xml?channel_id=" + url.QueryEscape(id), nil
}

func channelID(rawURL string) string {
	parts := strings.SplitN(rawURL, "/channel/", 2)
	if len(parts) != 2 {
		return ""
	}
	id := strings.SplitN(parts[1], "/", 2)[0]
	id = strings.SplitN(id, "?", 2)[0]
	return id
}
