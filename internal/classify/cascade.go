package classify

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/aktagon/inbox-sorter/internal/content"
)

// LinkRule maps a link shape to a label. Patterns are matched against the
// lower-cased host, path and query of the link, so a pattern anchored with ^
// must match the host itself rather than text in the query.
type LinkRule struct {
	Name     string
	Patterns []*regexp.Regexp
	Label    content.Label
}

// Matches reports whether any of the rule's patterns match the link.
func (r LinkRule) Matches(link string) bool {
	return r.matchTarget(linkTarget(link))
}

func (r LinkRule) matchTarget(target string) bool {
	if target == "" {
		return false
	}
	for _, re := range r.Patterns {
		if re.MatchString(target) {
			return true
		}
	}
	return false
}

// onHost compiles a pattern that matches domain or any of its subdomains,
// followed by rest.
func onHost(domain, rest string) *regexp.Regexp {
	return regexp.MustCompile(`^(?:[a-z0-9-]+\.)*` + regexp.QuoteMeta(domain) + rest)
}

// DefaultLinkRules is the link cascade in priority order. The first matching
// rule wins; links matching none fall through to WebsiteFallback.
//
// Order matters: an Instagram reel must be seen as video before the post rule
// and the generic website fallback can claim it, and Facebook links are
// routed to manual handling before any video rule is consulted.
var DefaultLinkRules = []LinkRule{
	{
		Name: "youtube",
		Patterns: []*regexp.Regexp{
			onHost("youtube.com", `/watch\?v=[\w-]+`),
			onHost("youtube.com", `/shorts/[\w-]+`),
			onHost("youtu.be", `/[\w-]+`),
		},
		Label: content.Label{Type: content.TypeVideo, Platform: content.PlatformYouTube},
	},
	{
		Name: "facebook",
		Patterns: []*regexp.Regexp{
			onHost("facebook.com", `(?:/|$)`),
			onHost("fb.watch", `/`),
		},
		Label: content.Label{Type: content.TypeManualProcessing, Platform: content.PlatformFacebook},
	},
	{
		Name: "instagram_video",
		Patterns: []*regexp.Regexp{
			onHost("instagram.com", `/reels?/[\w-]+`),
			onHost("instagram.com", `/tv/[\w-]+`),
		},
		Label: content.Label{Type: content.TypeVideo, Platform: content.PlatformInstagram},
	},
	{
		Name: "instagram_post",
		Patterns: []*regexp.Regexp{
			onHost("instagram.com", `/p/[\w-]+`),
		},
		Label: content.Label{Type: content.TypeWebsite, Platform: content.PlatformInstagram},
	},
	{
		Name: "tiktok",
		Patterns: []*regexp.Regexp{
			onHost("tiktok.com", `/.+/video/[\w-]+`),
			regexp.MustCompile(`^(?:vm|vt)\.tiktok\.com/[\w-]+`),
		},
		Label: content.Label{Type: content.TypeVideo, Platform: content.PlatformTikTok},
	},
}

// WebsiteFallback labels any link no rule claimed.
var WebsiteFallback = content.Label{Type: content.TypeWebsite, Platform: content.PlatformWeb}

// matchLink runs the link cascade and returns the winning rule name and label.
func matchLink(rules []LinkRule, link string) (string, content.Label) {
	target := linkTarget(link)
	for _, rule := range rules {
		if rule.matchTarget(target) {
			return rule.Name, rule.Label
		}
	}
	return "website", WebsiteFallback
}

// linkTarget reduces a link to "host/path?query", lower-cased, without the
// scheme, userinfo, port or fragment. Links without a scheme are read as
// https. It returns "" when no host can be parsed.
func linkTarget(link string) string {
	s := strings.ToLower(strings.TrimSpace(link))
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	target := u.Hostname() + u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}
