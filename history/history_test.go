package history

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/scrapekit/models"
)

func TestMemory_NewestFirst(t *testing.T) {
	m := NewMemory(10)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	ctx := context.Background()
	for _, u := range []string{"https://a", "https://b", "https://c"} {
		require.NoError(t, m.Record(ctx, &models.HistoryEntry{UserID: "alice", URL: u, Strategy: models.PlainFetch}))
	}
	require.NoError(t, m.Record(ctx, &models.HistoryEntry{UserID: "bob", URL: "https://z"}))

	got, err := m.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "https://c", got[0].URL)
	assert.Equal(t, "https://a", got[2].URL)
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.Equal(t, "2026-01-02 03:07:05", got[0].Record().Date)

	empty, err := m.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemory_Limit(t *testing.T) {
	m := NewMemory(2)
	ctx := context.Background()
	for _, u := range []string{"1", "2", "3"} {
		require.NoError(t, m.Record(ctx, &models.HistoryEntry{UserID: "alice", URL: u}))
	}

	got, err := m.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].URL)
	assert.Equal(t, "2", got[1].URL)
	assert.Equal(t, 2, m.Len())
}

func TestMemory_RequiresUser(t *testing.T) {
	err := NewMemory(0).Record(context.Background(), &models.HistoryEntry{URL: "x"})
	assert.ErrorIs(t, err, ErrNoUser)
}

type failingRecorder struct{ calls int }

func (f *failingRecorder) Record(context.Context, *models.HistoryEntry) error {
	f.calls++
	return errors.New("down")
}

func TestTee(t *testing.T) {
	failing := &failingRecorder{}
	mem := NewMemory(0)

	err := Tee(failing, mem).Record(context.Background(), &models.HistoryEntry{UserID: "alice", URL: "x"})
	require.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, mem.Len(), "later recorders still run")
}

func TestWebhook_SignedDelivery(t *testing.T) {
	type delivery struct {
		body []byte
		sig  string
	}
	got := make(chan delivery, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- delivery{body: body, sig: r.Header.Get(SignatureHeader)}
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, "s3cret")
	entry := &models.HistoryEntry{
		ID:        "id-1",
		UserID:    "alice",
		URL:       "https://example.com",
		Strategy:  models.ParsedFetch,
		Content:   "# T\n\n",
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
	}
	require.NoError(t, w.Record(context.Background(), entry))

	select {
	case d := <-got:
		assert.Equal(t, "sha256="+Sign("s3cret", d.body), d.sig)

		var ev Event
		require.NoError(t, json.Unmarshal(d.body, &ev))
		assert.Equal(t, EventRecorded, ev.Type)
		assert.Equal(t, "alice", ev.UserID)
		assert.Equal(t, "parsed", ev.Data.Strategy)
		assert.Equal(t, "2026-03-04 05:06:07", ev.Data.Date)
	case <-time.After(5 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestDeliver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := Deliver(context.Background(), srv.Client(), srv.URL, "", &Event{Type: EventRecorded})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
