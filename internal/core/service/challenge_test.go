package service

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/mobsession-go/internal/core/domain"
)

// eventLog records the order of side effects across fakes.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.events)
}

type fakeChallenge struct {
	typ     domain.ChallengeType
	session *Session
	log     *eventLog
	codeErr error
}

func (c *fakeChallenge) Type() domain.ChallengeType { return c.typ }

func (c *fakeChallenge) Phone(_ context.Context, number string) (Challenge, error) {
	c.log.add("phone:" + number)
	return c, nil
}

func (c *fakeChallenge) Code(_ context.Context, code string) (*Session, error) {
	c.log.add("code:" + code)
	if c.codeErr != nil {
		return nil, c.codeErr
	}
	return c.session, nil
}

type fakeOpener struct {
	challenge *fakeChallenge
	opened    []domain.Checkpoint
	err       error
}

func (o *fakeOpener) Open(_ context.Context, s *Session, cp domain.Checkpoint) (Challenge, error) {
	o.opened = append(o.opened, cp)
	if o.err != nil {
		return nil, o.err
	}
	if o.challenge.session == nil {
		o.challenge.session = s
	}
	return o.challenge, nil
}

type fakePhoneInbox struct {
	phones []string
	codes  map[string]string
	log    *eventLog
}

func (p *fakePhoneInbox) GetPhones(context.Context) ([]string, error) {
	p.log.add("get-phones")
	return p.phones, nil
}

func (p *fakePhoneInbox) GetLastVerificationCode(_ context.Context, number string) (string, error) {
	p.log.add("get-code:" + number)
	code, ok := p.codes[number]
	if !ok {
		return "", domain.ErrVerificationCodeNotFound
	}
	return code, nil
}

type fakeEmailInbox struct {
	code string
	log  *eventLog
}

func (e *fakeEmailInbox) GetLastVerificationCode(context.Context) (string, error) {
	e.log.add("get-email-code")
	return e.code, nil
}

func mailboxFactory(log *eventLog, code string, gotAddr, gotPass *string) EmailInboxFactory {
	return func(address, password string) (EmailInbox, error) {
		log.add("open-mailbox")
		*gotAddr, *gotPass = address, password
		return &fakeEmailInbox{code: code, log: log}, nil
	}
}

func recordingSleeper(log *eventLog, slept *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		log.add("sleep")
		*slept = append(*slept, d)
		return nil
	}
}

func TestResolver_Phone(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	log := &eventLog{}
	var slept []time.Duration
	var picked int

	opener := &fakeOpener{challenge: &fakeChallenge{typ: domain.ChallengeTypePhone, log: log}}
	phone := &fakePhoneInbox{
		phones: []string{"+10000000001", "+10000000002", "+10000000003"},
		codes:  map[string]string{"+10000000002": "123456", "+10000000003": "999999"},
		log:    log,
	}
	r := NewChallengeResolver(opener, nil,
		WithPicker(func(n int) int { picked = n; return 1 }),
		WithSleeper(recordingSleeper(log, &slept)),
	)

	got, err := r.Resolve(context.Background(), s, testCheckpoint(), VerificationChannels{Phone: phone})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != s {
		t.Error("Resolve() returned a different session")
	}

	want := []string{"get-phones", "phone:+10000000002", "sleep", "get-code:+10000000002", "code:123456"}
	if events := log.list(); !slices.Equal(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	if picked != 3 {
		t.Errorf("picker called with n = %d, want 3", picked)
	}
	if len(slept) != 1 || slept[0] != DefaultPhoneDelay {
		t.Errorf("slept = %v, want [%v]", slept, DefaultPhoneDelay)
	}
	if len(opener.opened) != 1 || opener.opened[0].APIPath != "/challenge/1/abc/" {
		t.Errorf("opened = %+v", opener.opened)
	}
}

func TestResolver_PhoneDefaultPickerStaysInPool(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	log := &eventLog{}

	phones := []string{"+1", "+2", "+3", "+4"}
	codes := map[string]string{}
	for _, p := range phones {
		codes[p] = "code" + p
	}
	r := NewChallengeResolver(
		&fakeOpener{challenge: &fakeChallenge{typ: domain.ChallengeTypePhone, log: log}}, nil,
		WithPhoneDelay(0),
	)

	if _, err := r.Resolve(context.Background(), s, testCheckpoint(), VerificationChannels{
		Phone: &fakePhoneInbox{phones: phones, codes: codes, log: log},
	}); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	var submitted, fetched, coded []string
	for _, e := range log.list() {
		switch {
		case len(e) > 6 && e[:6] == "phone:":
			submitted = append(submitted, e[6:])
		case len(e) > 9 && e[:9] == "get-code:":
			fetched = append(fetched, e[9:])
		case len(e) > 5 && e[:5] == "code:":
			coded = append(coded, e[5:])
		}
	}
	if len(submitted) != 1 || !slices.Contains(phones, submitted[0]) {
		t.Fatalf("submitted numbers = %v, want exactly one from the pool", submitted)
	}
	if len(fetched) != 1 || fetched[0] != submitted[0] {
		t.Errorf("code fetched for %v, want %s", fetched, submitted[0])
	}
	if len(coded) != 1 || coded[0] != "code"+submitted[0] {
		t.Errorf("codes submitted = %v", coded)
	}
}

func TestResolver_Email(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	log := &eventLog{}
	var addr, pass string

	r := NewChallengeResolver(
		&fakeOpener{challenge: &fakeChallenge{typ: domain.ChallengeTypeEmail, log: log}},
		mailboxFactory(log, "654321", &addr, &pass),
	)

	got, err := r.Resolve(context.Background(), s, testCheckpoint(), VerificationChannels{
		Email: "alice@example.com", EmailPassword: "mailpw",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != s {
		t.Error("Resolve() returned a different session")
	}
	if addr != "alice@example.com" || pass != "mailpw" {
		t.Errorf("mailbox opened with %q/%q", addr, pass)
	}
	want := []string{"open-mailbox", "get-email-code", "code:654321"}
	if events := log.list(); !slices.Equal(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestResolver_OtherTypeNotImplemented(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	log := &eventLog{}
	var addr, pass string

	r := NewChallengeResolver(
		&fakeOpener{challenge: &fakeChallenge{typ: domain.ChallengeTypeOther, log: log}},
		mailboxFactory(log, "1", &addr, &pass),
	)

	_, err := r.Resolve(context.Background(), s, testCheckpoint(), VerificationChannels{
		Email: "alice@example.com",
		Phone: &fakePhoneInbox{phones: []string{"+1"}, log: log},
	})
	if !errors.Is(err, domain.ErrChallengeNotImplemented) {
		t.Fatalf("Resolve() error = %v, want ErrChallengeNotImplemented", err)
	}
	if events := log.list(); len(events) != 0 {
		t.Errorf("side-channel calls = %v, want none", events)
	}
}

func TestResolver_Failures(t *testing.T) {
	rejected := domain.ErrChallengeRejected.WithDetails("wrong code")

	tests := []struct {
		name       string
		typ        domain.ChallengeType
		channels   func(log *eventLog) VerificationChannels
		codeErr    error
		wantErr    error
		wantEvents []string
	}{
		{
			name:     "no phone inbox",
			typ:      domain.ChallengeTypePhone,
			channels: func(*eventLog) VerificationChannels { return VerificationChannels{} },
			wantErr:  domain.ErrSideChannelUnavailable,
		},
		{
			name: "empty phone pool",
			typ:  domain.ChallengeTypePhone,
			channels: func(log *eventLog) VerificationChannels {
				return VerificationChannels{Phone: &fakePhoneInbox{log: log}}
			},
			wantErr:    domain.ErrNoPhoneAvailable,
			wantEvents: []string{"get-phones"},
		},
		{
			name: "no code received",
			typ:  domain.ChallengeTypePhone,
			channels: func(log *eventLog) VerificationChannels {
				return VerificationChannels{Phone: &fakePhoneInbox{phones: []string{"+1"}, log: log}}
			},
			wantErr:    domain.ErrVerificationCodeNotFound,
			wantEvents: []string{"get-phones", "phone:+1", "sleep", "get-code:+1"},
		},
		{
			name: "bad code is not retried",
			typ:  domain.ChallengeTypePhone,
			channels: func(log *eventLog) VerificationChannels {
				return VerificationChannels{Phone: &fakePhoneInbox{
					phones: []string{"+1"}, codes: map[string]string{"+1": "000000"}, log: log,
				}}
			},
			codeErr:    rejected,
			wantErr:    domain.ErrChallengeRejected,
			wantEvents: []string{"get-phones", "phone:+1", "sleep", "get-code:+1", "code:000000"},
		},
		{
			name:     "no email address",
			typ:      domain.ChallengeTypeEmail,
			channels: func(*eventLog) VerificationChannels { return VerificationChannels{} },
			wantErr:  domain.ErrSideChannelUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			s := env.session(t)
			log := &eventLog{}
			var slept []time.Duration

			r := NewChallengeResolver(
				&fakeOpener{challenge: &fakeChallenge{typ: tt.typ, log: log, codeErr: tt.codeErr}},
				nil,
				WithPicker(func(int) int { return 0 }),
				WithSleeper(recordingSleeper(log, &slept)),
			)

			_, err := r.Resolve(context.Background(), s, testCheckpoint(), tt.channels(log))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
			if events := log.list(); !slices.Equal(events, tt.wantEvents) {
				t.Errorf("events = %v, want %v", events, tt.wantEvents)
			}
		})
	}
}

func TestResolver_OpenFailure(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	openErr := domain.ErrTransport.WithDetails("challenge")

	r := NewChallengeResolver(&fakeOpener{err: openErr}, nil)
	if _, err := r.Resolve(context.Background(), s, testCheckpoint(), VerificationChannels{}); !errors.Is(err, domain.ErrTransport) {
		t.Errorf("Resolve() error = %v, want ErrTransport", err)
	}

	if _, err := r.Resolve(context.Background(), s, nil, VerificationChannels{}); !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Resolve(nil checkpoint) error = %v, want ErrMissingArgument", err)
	}
}

func TestResolver_PhoneDelayHonoursContext(t *testing.T) {
	env := newTestEnv(t)
	s := env.session(t)
	log := &eventLog{}

	r := NewChallengeResolver(
		&fakeOpener{challenge: &fakeChallenge{typ: domain.ChallengeTypePhone, log: log}}, nil,
		WithPhoneDelay(time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Resolve(ctx, s, testCheckpoint(), VerificationChannels{
		Phone: &fakePhoneInbox{phones: []string{"+1"}, codes: map[string]string{"+1": "1"}, log: log},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Resolve() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("phone delay did not stop on cancellation")
	}
	if slices.Contains(log.list(), "get-code:+1") {
		t.Error("code fetched after cancellation")
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("sleepContext() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepContext(cancelled) error = %v", err)
	}
	if err := sleepContext(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("sleepContext(cancelled, 0) error = %v", err)
	}
}
