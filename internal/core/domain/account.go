package domain

import (
	"bytes"
	"encoding/json"
)

// PK is a platform object id. The API sends it as a JSON number or a
// string; it is kept as a string either way.
type PK string

// UnmarshalJSON implements json.Unmarshaler.
func (p *PK) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PK(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = PK(n.String())
	return nil
}

// String returns the id.
func (p PK) String() string { return string(p) }

// Account is the public profile of a platform account.
type Account struct {
	ID             PK     `json:"pk"`
	Username       string `json:"username"`
	FullName       string `json:"full_name"`
	IsPrivate      bool   `json:"is_private"`
	IsVerified     bool   `json:"is_verified"`
	ProfilePicURL  string `json:"profile_pic_url"`
	MediaCount     int    `json:"media_count"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	Biography      string `json:"biography"`
}

// Media is one item of a media feed.
type Media struct {
	ID        string   `json:"id"`
	Code      string   `json:"code"`
	TakenAt   int64    `json:"taken_at"`
	MediaType int      `json:"media_type"`
	LikeCount int      `json:"like_count"`
	Caption   *Caption `json:"caption,omitempty"`
}

// Caption is the text attached to a media item.
type Caption struct {
	Text string `json:"text"`
}

// CaptionText returns the caption text or "".
func (m *Media) CaptionText() string {
	if m.Caption == nil {
		return ""
	}
	return m.Caption.Text
}
