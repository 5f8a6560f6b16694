package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"unlockbot/app/config"
	"unlockbot/app/service/ledger"
	"unlockbot/app/service/queue"
	"unlockbot/app/service/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, secret string) (*Service, *queue.Service, *ledger.Service) {
	t.Helper()

	cfg := &config.Config{
		Server:   config.Server{Port: 10000},
		Telegram: config.Telegram{WebhookPath: "/webhook", SecretToken: secret},
	}

	ledgerSvc, err := ledger.NewService(filepath.Join(t.TempDir(), "unlocks.jsonl"))
	require.NoError(t, err)

	queueSvc := queue.NewService(8)
	svc := NewService(cfg, queueSvc, session.NewStore(10, time.Hour), ledgerSvc)
	svc.now = func() time.Time { return fixedNow }

	return svc, queueSvc, ledgerSvc
}

func postUpdate(t *testing.T, svc *Service, body, secret string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(secretHeader, secret)
	}

	resp, err := svc.app.Test(req)
	require.NoError(t, err)

	return resp.StatusCode
}

const privateText = `{
  "update_id": 1,
  "message": {
    "message_id": 55,
    "from": {"id": 42, "is_bot": false, "first_name": "Alex"},
    "chat": {"id": 42, "type": "private"},
    "date": 1700000000,
    "text": "hello there"
  }
}`

func TestPrivateTextIsQueued(t *testing.T) {
	svc, queueSvc, _ := newTestService(t, "")

	assert.Equal(t, http.StatusOK, postUpdate(t, svc, privateText, ""))
	require.Equal(t, 1, queueSvc.Len())

	msg := <-queueSvc.Channel()
	assert.Equal(t, int64(42), msg.UserID)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "hello there", msg.Text)
	assert.False(t, msg.HasPhoto)
	assert.Equal(t, 55, msg.Route.ReplyToMessageID)
	assert.Equal(t, fixedNow, msg.Now)
}

func TestPhotoUsesCaptionAndLargestSize(t *testing.T) {
	svc, queueSvc, _ := newTestService(t, "")

	body := `{
  "update_id": 2,
  "message": {
    "message_id": 56,
    "from": {"id": 42, "is_bot": false, "first_name": "Alex"},
    "chat": {"id": 42, "type": "private"},
    "date": 1700000000,
    "caption": "me today",
    "photo": [
      {"file_id": "small", "file_unique_id": "s", "width": 90, "height": 90},
      {"file_id": "large", "file_unique_id": "l", "width": 1280, "height": 1280}
    ]
  }
}`

	assert.Equal(t, http.StatusOK, postUpdate(t, svc, body, ""))

	msg := <-queueSvc.Channel()
	assert.True(t, msg.HasPhoto)
	assert.Equal(t, "large", msg.PhotoRef)
	assert.Equal(t, "me today", msg.Text)
}

func TestGroupMessagesAreIgnored(t *testing.T) {
	svc, queueSvc, _ := newTestService(t, "")

	body := strings.Replace(privateText, `"type": "private"`, `"type": "group"`, 1)

	assert.Equal(t, http.StatusOK, postUpdate(t, svc, body, ""))
	assert.Zero(t, queueSvc.Len())
}

func TestUpdatesWithoutMessageAreIgnored(t *testing.T) {
	svc, queueSvc, _ := newTestService(t, "")

	assert.Equal(t, http.StatusOK, postUpdate(t, svc, `{"update_id": 3}`, ""))
	assert.Zero(t, queueSvc.Len())
}

func TestInvalidBodyIsRejected(t *testing.T) {
	svc, _, _ := newTestService(t, "")

	assert.Equal(t, http.StatusBadRequest, postUpdate(t, svc, "not json", ""))
}

func TestSecretTokenIsEnforced(t *testing.T) {
	svc, queueSvc, _ := newTestService(t, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, postUpdate(t, svc, privateText, ""))
	assert.Equal(t, http.StatusUnauthorized, postUpdate(t, svc, privateText, "wrong"))
	assert.Zero(t, queueSvc.Len())

	assert.Equal(t, http.StatusOK, postUpdate(t, svc, privateText, "s3cret"))
	assert.Equal(t, 1, queueSvc.Len())
}

func TestHealthAndStats(t *testing.T) {
	svc, _, ledgerSvc := newTestService(t, "")
	require.NoError(t, ledgerSvc.Record(ledger.Entry{UserID: 1, Stars: 10}))
	svc.store.GetOrCreate(1, fixedNow)

	resp, err := svc.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "ok", string(body))

	resp, err = svc.app.Test(httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats["sessions"])
	assert.Equal(t, 1, stats["unlocks"])
	assert.Equal(t, 0, stats["queued"])
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))
	assert.Equal(t, strings.Repeat("я", 50)+"...", preview(strings.Repeat("я", 60)))
}

func TestRegisterWithoutPublicHost(t *testing.T) {
	svc, _, _ := newTestService(t, "")

	require.NoError(t, svc.Register(nil))
}
