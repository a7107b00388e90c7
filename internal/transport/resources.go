package transport

import (
	"net/url"
	"strings"
)

// Resource names understood by Request.
const (
	ResourceLogin                = "login"
	ResourceLogout               = "logout"
	ResourceQESync               = "qeSync"
	ResourceAutocompleteUserList = "autocompleteUserList"
	ResourceTimelineFeed         = "timelineFeed"
	ResourceRecentRecipients     = "recentRecipients"
	ResourceInbox                = "inbox"
	ResourceMegaphoneLog         = "megaphoneLog"
	ResourceUserInfo             = "userInfo"
	ResourceUserFeed             = "userFeed"
	ResourceChallenge            = "challenge"
)

// resources maps resource names to path templates relative to the API root.
// "{name}" placeholders are filled from Request params.
var resources = map[string]string{
	ResourceLogin:                "accounts/login/",
	ResourceLogout:               "accounts/logout/",
	ResourceQESync:               "qe/sync/",
	ResourceAutocompleteUserList: "friendships/autocomplete_user_list/",
	ResourceTimelineFeed:         "feed/timeline/",
	ResourceRecentRecipients:     "direct_share/recent_recipients/",
	ResourceInbox:                "direct_v2/inbox/",
	ResourceMegaphoneLog:         "megaphone/log/",
	ResourceUserInfo:             "users/{id}/info/",
	ResourceUserFeed:             "feed/user/{id}/",
	ResourceChallenge:            "{path}",
}

// KnownResource reports whether name is in the resource table.
func KnownResource(name string) bool {
	_, ok := resources[name]
	return ok
}

// expand fills the placeholders of a template. Values are path-escaped,
// except "path", which is an already-formed relative path.
func expand(tmpl string, params map[string]string) (string, bool) {
	var b strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			return b.String(), true
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			return "", false
		}
		name := tmpl[open+1 : open+end]
		v, ok := params[name]
		if !ok || v == "" {
			return "", false
		}
		b.WriteString(tmpl[:open])
		if name == "path" {
			b.WriteString(strings.TrimPrefix(v, "/"))
		} else {
			b.WriteString(url.PathEscape(v))
		}
		tmpl = tmpl[open+end+1:]
	}
}
