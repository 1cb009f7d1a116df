package resolver

import (
	"context"
	"errors"
	"sync"

	"github.com/edgard/finmatbot/internal/archive"
	"github.com/edgard/finmatbot/internal/config"
	"github.com/edgard/finmatbot/internal/database"
)

type fakeLedger struct {
	mu       sync.Mutex
	users    map[int64]*database.User
	logs     []database.MessageLog
	failNext error
	// raceConsume makes ConsumeQuota behave as if another message took the last unit.
	raceConsume bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{users: map[int64]*database.User{}}
}

func (l *fakeLedger) GetOrCreateUser(_ context.Context, p database.Profile) (*database.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure(); err != nil {
		return nil, err
	}
	u, ok := l.users[p.ID]
	if !ok {
		u = &database.User{ID: p.ID}
		l.users[p.ID] = u
	}
	copied := *u
	return &copied, nil
}

func (l *fakeLedger) MarkVerified(_ context.Context, userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	u, ok := l.users[userID]
	if !ok {
		return database.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

func (l *fakeLedger) ConsumeQuota(_ context.Context, userID int64, ceiling int, entry *database.MessageLog) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure(); err != nil {
		return 0, err
	}
	u, ok := l.users[userID]
	if !ok {
		return 0, database.ErrUserNotFound
	}
	if l.raceConsume {
		u.TotalUsed = ceiling
	}
	if u.TotalUsed >= ceiling {
		return 0, database.ErrQuotaExceeded
	}
	u.TotalUsed++
	if entry != nil {
		l.logs = append(l.logs, *entry)
	}
	return u.TotalUsed, nil
}

func (l *fakeLedger) AppendLog(_ context.Context, entry *database.MessageLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.takeFailure(); err != nil {
		return err
	}
	l.logs = append(l.logs, *entry)
	return nil
}

func (l *fakeLedger) takeFailure() error {
	err := l.failNext
	l.failNext = nil
	return err
}

func (l *fakeLedger) put(u database.User) *database.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.users[u.ID] = &u
	copied := u
	return &copied
}

func (l *fakeLedger) user(id int64) database.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.users[id]
}

func (l *fakeLedger) entries() []database.MessageLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]database.MessageLog(nil), l.logs...)
}

type fakeArchive map[archive.Key]archive.Record

func (a fakeArchive) Lookup(date string, exercise int) (archive.Record, bool) {
	rec, ok := a[archive.Key{Date: date, Exercise: exercise}]
	return rec, ok
}

type fakeAnswerer struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
}

func (a *fakeAnswerer) Answer(_ context.Context, prompt string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prompts = append(a.prompts, prompt)
	return a.answer, a.err
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

var errStorage = errors.New("disk I/O error")

func testConfig() *config.Config {
	return &config.Config{
		Course: config.CourseConfig{
			Name:         "Matematica Finanziaria",
			TotalQuota:   300,
			UnlockSecret: "sblocco",
		},
		Messages: config.DefaultMessages,
	}
}

func testArchive() fakeArchive {
	return fakeArchive{
		{Date: "2024-06-10", Exercise: 3}: {
			Date:          "2024-06-10",
			Exercise:      3,
			Title:         "Ammortamento francese",
			ResultShort:   "€ 1.234,56",
			SolutionSteps: "Calcolo la rata\nCostruisco il piano",
			Version:       "v1",
		},
	}
}
