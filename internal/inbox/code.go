package inbox

import (
	"regexp"
	"slices"
	"time"
)

// codePattern matches a six digit code, optionally split in two groups.
var codePattern = regexp.MustCompile(`\b(\d{3})[ -]?(\d{3})\b`)

// ExtractCode returns the first verification code in text.
func ExtractCode(text string) (string, bool) {
	m := codePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1] + m[2], true
}

// Message is one SMS or email held by a gateway.
type Message struct {
	From       string    `json:"from"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// latestCode returns the code of the newest message. Older messages are
// never searched: their codes belong to earlier verifications.
func latestCode(msgs []Message) (string, bool) {
	if len(msgs) == 0 {
		return "", false
	}
	newest := slices.MaxFunc(msgs, func(a, b Message) int {
		return a.ReceivedAt.Compare(b.ReceivedAt)
	})
	return ExtractCode(newest.Subject + "\n" + newest.Body)
}
