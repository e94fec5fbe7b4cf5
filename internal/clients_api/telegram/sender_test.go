package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiCall struct {
	method  string
	chatID  string
	text    string
	caption string
}

type fakeAPI struct {
	mu         sync.Mutex
	calls      []apiCall
	failPhotos bool
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	w.Header().Set("Content-Type", "application/json")
	if method == "getMe" {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Usage","username":"usage_bot"}}`))
		return
	}

	call := apiCall{
		method:  method,
		chatID:  r.FormValue("chat_id"),
		text:    r.FormValue("text"),
		caption: r.FormValue("caption"),
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	fail := f.failPhotos && method == "sendPhoto"
	f.mu.Unlock()

	if fail {
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: PHOTO_INVALID_DIMENSIONS"}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100123,"type":"supergroup"}}}`))
}

func (f *fakeAPI) snapshot() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func newFakeSender(t *testing.T) (*Sender, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)

	s, err := New(Options{Token: "123:abc", ChatID: "-100123", Endpoint: srv.URL + "/bot%s/%s"})
	require.NoError(t, err)
	return s, api
}

func writePNG(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0644))
	return path
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{ChatID: "1"})
	assert.ErrorIs(t, err, ErrNoToken)

	_, err = New(Options{Token: "x", ChatID: "general"})
	assert.Error(t, err)
}

func TestParseChatID(t *testing.T) {
	id, err := ParseChatID(" -1001234567890 ")
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), id)
}

func TestSendCaptionOnFirstPhoto(t *testing.T) {
	s, api := newFakeSender(t)

	err := s.Send(context.Background(), "Daily report", []Photo{
		{Path: writePNG(t, "bar.png"), Caption: "By app"},
		{Path: writePNG(t, "pie.png"), Caption: "Top apps"},
	})
	require.NoError(t, err)

	calls := api.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "sendPhoto", calls[0].method)
	assert.Equal(t, "-100123", calls[0].chatID)
	assert.Equal(t, "Daily report", calls[0].caption)
	assert.Equal(t, "Top apps", calls[1].caption)
}

func TestSendLongTextAsSeparateMessage(t *testing.T) {
	s, api := newFakeSender(t)
	text := strings.Repeat("x", maxCaptionLength+1)

	require.NoError(t, s.Send(context.Background(), text, []Photo{{Path: writePNG(t, "line.png"), Caption: "Trend"}}))

	calls := api.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "sendMessage", calls[0].method)
	assert.Equal(t, text, calls[0].text)
	assert.Equal(t, "sendPhoto", calls[1].method)
	assert.Equal(t, "Trend", calls[1].caption)
}

func TestSendFailsWhenNothingDelivered(t *testing.T) {
	s, api := newFakeSender(t)
	api.mu.Lock()
	api.failPhotos = true
	api.mu.Unlock()

	err := s.Send(context.Background(), "Daily report", []Photo{{Path: writePNG(t, "bar.png")}})
	assert.Error(t, err)
}

func TestSendTextOnly(t *testing.T) {
	s, api := newFakeSender(t)

	require.NoError(t, s.Send(context.Background(), "No charts today", nil))
	calls := api.snapshot()
	require.Len(t, calls, 1)
	assert.Equal(t, "sendMessage", calls[0].method)
	assert.Equal(t, "No charts today", calls[0].text)
}
