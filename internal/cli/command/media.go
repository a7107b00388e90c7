package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/mobsession-go/internal/cli/output"
	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/platform"
)

// mediaView is the printable form of a media item.
type mediaView struct {
	ID      string    `json:"id" yaml:"id"`
	Code    string    `json:"code" yaml:"code"`
	Type    string    `json:"type" yaml:"type"`
	Likes   int       `json:"likes" yaml:"likes"`
	TakenAt time.Time `json:"taken_at" yaml:"taken_at"`
	Caption string    `json:"caption,omitempty" yaml:"caption,omitempty" table:"wide"`
}

func newMediaView(m domain.Media) mediaView {
	v := mediaView{
		ID:      m.ID,
		Code:    m.Code,
		Type:    mediaType(m.MediaType),
		Likes:   m.LikeCount,
		Caption: m.CaptionText(),
	}
	if m.TakenAt > 0 {
		v.TakenAt = time.Unix(m.TakenAt, 0).UTC()
	}
	return v
}

func mediaType(t int) string {
	switch t {
	case 1:
		return "photo"
	case 2:
		return "video"
	case 8:
		return "carousel"
	default:
		return fmt.Sprintf("type-%d", t)
	}
}

// MediaCommand returns the media command.
func MediaCommand() *cli.Command {
	return &cli.Command{
		Name:  "media",
		Usage: "List the media of an account, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "account-id",
				Usage: "Account whose media to list (default: the logged-in account)",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of items; 0 lists everything",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "cursor",
				Usage: "Resume after this cursor (printed by a previous run)",
			},
		},
		Action: mediaAction,
	}
}

func mediaAction(c *cli.Context) (err error) {
	env := getEnv(c)
	kv, err := env.openKV()
	if err != nil {
		return err
	}
	defer closeKV(kv, &err)

	s, err := env.establish(c.Context, kv)
	if err != nil {
		return describe(err)
	}
	defer func() {
		if serr := s.Save(c.Context); serr != nil {
			env.log.Warn("failed to store cookies", "error", serr)
		}
	}()

	accountID := c.String("account-id")
	if accountID == "" {
		if accountID, err = s.GetAccountID(c.Context); err != nil {
			return describe(err)
		}
	}

	feed := platform.NewUserMediaFeed(s, accountID)
	if cursor := c.String("cursor"); cursor != "" {
		feed.SetCursor(cursor)
	}

	limit := c.Int("limit")
	progress := output.NewProgressBar(env.stderr, "media", limit)
	items := make([]mediaView, 0)
	truncated := false
	for feed.MoreAvailable() && (limit <= 0 || len(items) < limit) {
		page, err := feed.Get(c.Context)
		if err != nil {
			return describe(err)
		}
		if limit > 0 && len(items)+len(page) > limit {
			page = page[:limit-len(items)]
			truncated = true
		}
		for _, m := range page {
			items = append(items, newMediaView(m))
		}
		progress.Add(len(page))
	}
	progress.Finish()

	if err := env.print(items); err != nil {
		return err
	}

	// The cursor is the id of the last item returned.
	switch {
	case truncated:
		fmt.Fprintf(env.stderr, "more available, resume with --cursor %s\n", items[len(items)-1].ID)
	case feed.MoreAvailable():
		fmt.Fprintf(env.stderr, "more available, resume with --cursor %s\n", feed.Cursor())
	}
	return nil
}
