package platform

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yndnr/mobsession-go/internal/core/domain"
	"github.com/yndnr/mobsession-go/internal/core/service"
	"github.com/yndnr/mobsession-go/internal/transport"
)

// UserMediaFeed pages through the media of one account.
//
// Pages are requested with a rank token built from the logged-in account,
// and the id of the last item of a page is the cursor of the next one.
type UserMediaFeed struct {
	session   *service.Session
	accountID string

	mu            sync.Mutex
	cursor        string
	moreAvailable bool
	started       bool
	rankToken     string
}

// NewUserMediaFeed creates a feed over the media of accountID.
func NewUserMediaFeed(s *service.Session, accountID string) *UserMediaFeed {
	return &UserMediaFeed{session: s, accountID: accountID}
}

type userFeedPage struct {
	Items         []domain.Media `json:"items"`
	MoreAvailable bool           `json:"more_available"`
}

// Get fetches the next page and advances the cursor.
func (f *UserMediaFeed) Get(ctx context.Context) ([]domain.Media, error) {
	if f.accountID == "" {
		return nil, domain.ErrMissingArgument.WithDetails("account id")
	}
	token, err := f.token(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	cursor := f.cursor
	f.mu.Unlock()

	req := transport.Get(transport.ResourceUserFeed).
		Param("id", f.accountID).
		Query("rank_token", token)
	if cursor != "" {
		req.Query("max_id", cursor)
	}

	var page userFeedPage
	if err := f.session.Do(ctx, req, &page); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	f.moreAvailable = page.MoreAvailable
	if f.moreAvailable && len(page.Items) > 0 {
		f.cursor = page.Items[len(page.Items)-1].ID
	}
	return page.Items, nil
}

// All collects pages until the feed is exhausted or limit items were
// gathered. limit <= 0 means no limit.
func (f *UserMediaFeed) All(ctx context.Context, limit int) ([]domain.Media, error) {
	var all []domain.Media
	for {
		items, err := f.Get(ctx)
		if err != nil {
			return all, err
		}
		all = append(all, items...)
		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}
		if !f.MoreAvailable() || len(items) == 0 {
			return all, nil
		}
	}
}

// MoreAvailable reports whether another page exists. It is true before
// the first page is fetched.
func (f *UserMediaFeed) MoreAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.started || f.moreAvailable
}

// Cursor returns the max_id of the next page, or "".
func (f *UserMediaFeed) Cursor() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

// SetCursor resumes the feed from a saved cursor.
func (f *UserMediaFeed) SetCursor(cursor string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cursor = cursor
}

// token returns the rank token, "<account id>_<uuid>", creating it on
// first use.
func (f *UserMediaFeed) token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rankToken != "" {
		return f.rankToken, nil
	}
	id, err := f.session.GetAccountID(ctx)
	if err != nil {
		return "", err
	}
	f.rankToken = RankToken(id)
	return f.rankToken, nil
}

// RankToken builds a pagination rank token for accountID.
func RankToken(accountID string) string {
	return accountID + "_" + uuid.NewString()
}
