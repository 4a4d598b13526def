package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/aktagon/inbox-sorter/internal/fetch"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

var (
	titlePattern   = regexp.MustCompile(`"title":"((?:[^"\\]|\\.)+)"`)
	channelPattern = regexp.MustCompile(`"channelName":"((?:[^"\\]|\\.)+)"`)
	ownerPattern   = regexp.MustCompile(`"ownerChannelName":"((?:[^"\\]|\\.)+)"`)
)

// VideoInfo is what the watch page tells us about a video.
type VideoInfo struct {
	Title   string
	Channel string
}

// Info scrapes the title and channel from the video's watch page, defaulting
// to "Unknown Title" and "Unknown Channel".
func (c *Client) Info(ctx context.Context, videoID string) (*VideoInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.watchURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("v", videoID)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching watch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &fetch.HTTPError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading watch page: %w", err)
	}
	page := string(body)

	info := &VideoInfo{
		Title:   firstMatch(page, "Unknown Title", titlePattern),
		Channel: firstMatch(page, "Unknown Channel", channelPattern, ownerPattern),
	}
	return info, nil
}

func firstMatch(page, fallback string, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(page); len(m) == 2 {
			return unescapeJSON(m[1])
		}
	}
	return fallback
}

// unescapeJSON decodes the escapes of a JSON string body (\", &, ...).
func unescapeJSON(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}
	return out
}
