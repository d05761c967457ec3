package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/sedbot/internal/config"
	"github.com/edgard/sedbot/internal/database"
	"github.com/edgard/sedbot/internal/metrics"
	"github.com/edgard/sedbot/internal/replacer"
)

type fakeStore struct {
	mu       sync.Mutex
	saved    []*database.Message
	recent   []*database.Message
	err      error
	resetFor []int64
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) SaveMessage(_ context.Context, m *database.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, m)
	return nil
}

func (f *fakeStore) GetRecentMessages(context.Context, int64, int) ([]*database.Message, error) {
	return f.recent, f.err
}

func (f *fakeStore) DeleteChatMessages(_ context.Context, chatID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetFor = append(f.resetFor, chatID)
	return int64(len(f.recent)), f.err
}

func (f *fakeStore) PruneMessages(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeStore) RunSQLMaintenance(context.Context) error { return nil }

type fakeSender struct {
	sent chan *bot.SendMessageParams
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: make(chan *bot.SendMessageParams, 10)}
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.sent <- params
	return &models.Message{}, nil
}

func (f *fakeSender) next(t *testing.T) string {
	t.Helper()
	return f.nextParams(t).Text
}

func (f *fakeSender) nextParams(t *testing.T) *bot.SendMessageParams {
	t.Helper()
	select {
	case params := <-f.sent:
		return params
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a sent message")
		return nil
	}
}

func (f *fakeSender) none(t *testing.T) {
	t.Helper()
	select {
	case params := <-f.sent:
		t.Fatalf("unexpected message sent: %q", params.Text)
	case <-time.After(50 * time.Millisecond):
	}
}

func testDeps(t *testing.T, store database.Store) HandlerDeps {
	t.Helper()

	gate, err := replacer.NewGate([]string{"forbidden"})
	if err != nil {
		t.Fatalf("NewGate() unexpected error: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return HandlerDeps{
		Logger: log,
		Config: &config.Config{
			Telegram: config.TelegramConfig{AdminUserID: 1},
			Replacer: config.ReplacerConfig{HistoryLimit: 50},
			Messages: config.MessagesConfig{
				BlockedPhrase: "blocked",
				NoMatch:       "no match",
				ResetDone:     "reset",
				Unauthorized:  "nope",
				GeneralError:  "oops",
			},
		},
		Store:   store,
		Engine:  replacer.NewEngine(nil, replacer.WithMention(TelegramMention), replacer.WithLogger(log)),
		Decoder: replacer.NewDecoder(gate),
	}
}

func commandUpdate(text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   100,
			Chat: models.Chat{ID: -42},
			From: &models.User{ID: 9, Username: "caller"},
			Text: text,
		},
	}
}

func TestReplaceHandler(t *testing.T) {
	t.Parallel()

	history := []*database.Message{
		{UserID: 9, Username: "@caller", Content: "!s old/new"},
		{UserID: 3, Username: "@bot", Content: "the quick fox", IsBot: true},
		{UserID: 2, Username: "@alice", Content: "the quick fox"},
		{UserID: 4, Username: "Bob", Content: "another quick fox"},
	}

	tests := []struct {
		name     string
		text     string
		store    *fakeStore
		result   string
		expected string
	}{
		{
			name:     "replaces newest matching message",
			text:     "!s quick/slow",
			store:    &fakeStore{recent: history},
			result:   metrics.ResultReplaced,
			expected: "@alice the **slow** fox",
		},
		{
			name:     "deletes when replacement is missing",
			text:     "!s quick ",
			store:    &fakeStore{recent: history},
			result:   metrics.ResultReplaced,
			expected: "@alice the fox",
		},
		{
			name:     "blocked phrase",
			text:     "!s quick/forbidden",
			store:    &fakeStore{recent: history},
			result:   metrics.ResultBlocked,
			expected: "blocked",
		},
		{
			name:     "empty search",
			text:     "!s /slow",
			store:    &fakeStore{recent: history},
			result:   metrics.ResultEmpty,
			expected: "no match",
		},
		{
			name:     "no match",
			text:     "!s zebra/horse",
			store:    &fakeStore{recent: history},
			result:   metrics.ResultNoMatch,
			expected: "no match",
		},
		{
			name:     "store failure",
			text:     "!s quick/slow",
			store:    &fakeStore{err: errors.New("db down")},
			result:   metrics.ResultError,
			expected: "oops",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := newFakeSender()
			h := replaceHandler{deps: testDeps(t, tt.store)}

			if got := h.handle(context.Background(), api, commandUpdate(tt.text)); got != tt.result {
				t.Errorf("handle() result = %q, want %q", got, tt.result)
			}
			if got := api.next(t); got != tt.expected {
				t.Errorf("sent %q, want %q", got, tt.expected)
			}
			api.none(t)
		})
	}
}

func TestReplaceHandlerMentionsAuthorWithoutUsername(t *testing.T) {
	t.Parallel()

	store := &fakeStore{recent: []*database.Message{
		{UserID: 4, Username: "Bób", Content: "another quick fox"},
	}}
	api := newFakeSender()
	h := replaceHandler{deps: testDeps(t, store)}

	if got := h.handle(context.Background(), api, commandUpdate("!s quick/slow")); got != metrics.ResultReplaced {
		t.Fatalf("handle() result = %q, want %q", got, metrics.ResultReplaced)
	}

	params := api.nextParams(t)
	if params.Text != "Bób another **slow** fox" {
		t.Errorf("sent %q", params.Text)
	}
	if len(params.Entities) != 1 {
		t.Fatalf("entities = %+v, want one text mention", params.Entities)
	}
	entity := params.Entities[0]
	if entity.Type != models.MessageEntityTypeTextMention || entity.Offset != 0 || entity.Length != 3 {
		t.Errorf("unexpected entity %+v", entity)
	}
	if entity.User == nil || entity.User.ID != 4 {
		t.Errorf("entity user = %+v, want id 4", entity.User)
	}
}

func TestReplyParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		author   replacer.Message
		mention  string
		entities int
	}{
		{name: "username mention notifies by itself", author: replacer.Message{AuthorID: "1"}, mention: "@alice", entities: 0},
		{name: "first name gets text mention", author: replacer.Message{AuthorID: "2"}, mention: "Ann", entities: 1},
		{name: "non numeric author id", author: replacer.Message{AuthorID: "x"}, mention: "Ann", entities: 0},
		{name: "empty mention", author: replacer.Message{AuthorID: "3"}, mention: "", entities: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			params := replyParams(-1, tt.author, tt.mention, "body")
			if params.Text != tt.mention+" body" {
				t.Errorf("Text = %q", params.Text)
			}
			if len(params.Entities) != tt.entities {
				t.Errorf("entities = %+v, want %d", params.Entities, tt.entities)
			}
		})
	}
}

func TestReplaceHandlerSilentWithoutNoMatchMessage(t *testing.T) {
	t.Parallel()

	deps := testDeps(t, &fakeStore{})
	deps.Config.Messages.NoMatch = ""
	api := newFakeSender()

	h := replaceHandler{deps: deps}
	if got := h.handle(context.Background(), api, commandUpdate("!s nothing/here")); got != metrics.ResultNoMatch {
		t.Errorf("handle() result = %q, want %q", got, metrics.ResultNoMatch)
	}
	api.none(t)
}

func TestHistoryHandlerRecords(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	h := historyHandler{deps: testDeps(t, store)}

	h.record(context.Background(), &models.Update{Message: &models.Message{
		ID: 5, Chat: models.Chat{ID: -1}, Date: 1700000000,
		From: &models.User{ID: 2, FirstName: "Ann"}, Text: "hello",
	}})
	h.record(context.Background(), &models.Update{EditedMessage: &models.Message{
		ID: 5, Chat: models.Chat{ID: -1}, Date: 1700000000,
		From: &models.User{ID: 2, FirstName: "Ann"}, Text: "hello there",
	}})
	h.record(context.Background(), &models.Update{Message: &models.Message{
		ID: 6, Chat: models.Chat{ID: -1}, From: &models.User{ID: 2},
	}})

	if len(store.saved) != 2 {
		t.Fatalf("saved %d messages, want 2", len(store.saved))
	}
	if store.saved[1].Content != "hello there" || store.saved[1].MessageID != 5 {
		t.Errorf("edited message saved as %+v", store.saved[1])
	}
}

func TestRecordFromMessage(t *testing.T) {
	t.Parallel()

	if RecordFromMessage(nil) != nil {
		t.Error("nil message must not produce a record")
	}
	if RecordFromMessage(&models.Message{Text: "x"}) != nil {
		t.Error("message without sender must not produce a record")
	}

	row := RecordFromMessage(&models.Message{
		ID:      12,
		Chat:    models.Chat{ID: -100},
		Date:    1700000000,
		From:    &models.User{ID: 7, Username: "carol", IsBot: true},
		Caption: "photo caption",
	})
	if row == nil {
		t.Fatal("expected a record for captioned message")
	}
	if row.Content != "photo caption" || row.Username != "@carol" || !row.IsBot || row.ChatID != -100 {
		t.Errorf("unexpected record: %+v", row)
	}
	if !row.Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("timestamp = %v", row.Timestamp)
	}
}

func TestToReplacerMessagesAndMention(t *testing.T) {
	t.Parallel()

	msgs := ToReplacerMessages([]*database.Message{
		{UserID: 1, Username: "@a", Content: "one"},
		nil,
		{UserID: 2, Content: "two", IsBot: true},
	})
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].AuthorID != "1" || msgs[0].Content != "one" || msgs[1].IsBot != true {
		t.Errorf("unexpected conversion: %+v", msgs)
	}
	if got := TelegramMention(msgs[0]); got != "@a" {
		t.Errorf("TelegramMention() = %q, want @a", got)
	}
	if got := TelegramMention(msgs[1]); got != "2" {
		t.Errorf("TelegramMention() fallback = %q, want 2", got)
	}
}

func TestResetHandler(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	api := newFakeSender()
	h := resetHandler{deps: testDeps(t, store)}

	h.handle(context.Background(), api, commandUpdate("/sed_reset"))

	if len(store.resetFor) != 1 || store.resetFor[0] != -42 {
		t.Errorf("reset chats = %v, want [-42]", store.resetFor)
	}
	if got := api.next(t); got != "reset" {
		t.Errorf("sent %q, want reset", got)
	}
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	deps := testDeps(t, &fakeStore{})
	admin := &models.Update{Message: &models.Message{From: &models.User{ID: 1}}}
	other := &models.Update{Message: &models.Message{From: &models.User{ID: 2}}}

	if !isAdmin(deps, admin) {
		t.Error("admin not recognised")
	}
	if isAdmin(deps, other) {
		t.Error("non-admin treated as admin")
	}
	if isAdmin(deps, &models.Update{}) {
		t.Error("update without message treated as admin")
	}
}

func TestRegisterAllCommands(t *testing.T) {
	t.Parallel()

	handlers := RegisterAllCommands(testDeps(t, &fakeStore{}))
	for _, key := range []string{replacer.CommandPrefix, "/start", "/help", "/sed_reset"} {
		h, ok := handlers[key]
		if !ok || h.Handler == nil {
			t.Errorf("handler %q not registered", key)
		}
	}
	if len(handlers["/sed_reset"].Middleware) != 1 {
		t.Error("/sed_reset must be admin-only")
	}
	if handlers[replacer.CommandPrefix].MatchType != bot.MatchTypePrefix {
		t.Error("replace command must match by prefix")
	}
}
