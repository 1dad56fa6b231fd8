package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"skypeconnector/pkg/channel/skype"
	"skypeconnector/pkg/config"
	"skypeconnector/pkg/digester"
	"skypeconnector/pkg/session"
)

type scriptedBackend struct {
	mu        sync.Mutex
	responses []string
	err       error
	requests  []digester.CanonicalRequest
	keys      []string
}

func (b *scriptedBackend) Send(_ context.Context, sessionKey string, request digester.CanonicalRequest) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, request)
	b.keys = append(b.keys, sessionKey)
	if b.err != nil {
		return nil, b.err
	}
	if len(b.responses) == 0 {
		return []byte(`{"answers":[]}`), nil
	}
	next := b.responses[0]
	b.responses = b.responses[1:]
	return []byte(next), nil
}

type recordingReplier struct {
	mu      sync.Mutex
	replies []digester.Message
	inbound []skype.Activity
}

func (r *recordingReplier) Reply(_ context.Context, inbound skype.Activity, msg digester.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, msg)
	r.inbound = append(r.inbound, inbound)
	return nil
}

type keyTranslator struct{}

func (keyTranslator) Translate(key string) string { return "T:" + key }

func newTestService(t *testing.T, backend *scriptedBackend) (*Service, *recordingReplier, session.Store) {
	t.Helper()

	replier := &recordingReplier{}
	sessions := session.NewMemoryStore(time.Hour)
	svc, err := NewService(&config.Config{}, Dependencies{
		Digester: digester.New(config.DigesterConfig{}, keyTranslator{}, nil),
		Backend:  backend,
		Channel:  replier,
		Sessions: sessions,
		Lang:     keyTranslator{},
	}, nil)
	require.NoError(t, err)
	return svc, replier, sessions
}

func postActivity(t *testing.T, svc *Service, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, req)
	return rec
}

func activity(text string, extra string) string {
	encoded, _ := json.Marshal(text)
	return `{"type":"message","id":"act-1","serviceUrl":"https://smba.example","conversation":{"id":"29:user"},` +
		`"from":{"id":"29:user"},"recipient":{"id":"28:bot"},"text":` + string(encoded) + extra + `}`
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	if _, err := NewService(nil, Dependencies{}, nil); err == nil {
		t.Fatal("expected error without config")
	}
	if _, err := NewService(&config.Config{}, Dependencies{}, nil); err == nil {
		t.Fatal("expected error without dependencies")
	}
}

func TestWebhookTextRoundTrip(t *testing.T) {
	backend := &scriptedBackend{responses: []string{
		`{"answers":[{"type":"answer","message":"<p>Hi</p><img src=\"http://cdn/a/logo.png\">"}]}`,
	}}
	svc, replier, sessions := newTestService(t, backend)

	rec := postActivity(t, svc, activity("hello", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, []digester.CanonicalRequest{{"message": "hello"}}, backend.requests)
	require.Equal(t, []string{"skype:29:user"}, backend.keys)

	require.Len(t, replier.replies, 2)
	require.Equal(t, "Hi", replier.replies[0].Text)
	require.Equal(t, "logo.png", replier.replies[1].Attachments[0].Name)
	require.Equal(t, "act-1", replier.inbound[0].ID)

	question, err := sessions.LastQuestion(context.Background(), "skype:29:user")
	require.NoError(t, err)
	require.Equal(t, "hello", question)
}

func TestWebhookThreadsLastQuestionIntoButtons(t *testing.T) {
	backend := &scriptedBackend{responses: []string{
		`{"answers":[{"type":"polarQuestion","message":"Did it help?","options":[{"label":"yes","value":"yes"}]}]}`,
	}}
	svc, replier, _ := newTestService(t, backend)

	rec := postActivity(t, svc, activity("printer broken", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	card, ok := replier.replies[0].Card()
	require.True(t, ok)
	require.Equal(t, "T:yes", card.Buttons[0].Title)
	require.JSONEq(t, `{"message":"printer broken","option":"yes"}`, card.Buttons[0].Value)
}

func TestWebhookPostbackIsDecoded(t *testing.T) {
	backend := &scriptedBackend{responses: []string{`{"type":"answer","message":"ok"}`}}
	svc, replier, _ := newTestService(t, backend)

	rec := postActivity(t, svc, activity(`{"escalateOption":false}`, `,"channelData":{"text":"smbapostback"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, []digester.CanonicalRequest{{"escalateOption": false}}, backend.requests)
	require.Equal(t, []digester.Message{{Text: "ok"}}, replier.replies)
}

func TestWebhookUnknownAnswerSendsFailureMessage(t *testing.T) {
	backend := &scriptedBackend{responses: []string{`{"answers":[{"type":"bogus","message":"x"}]}`}}
	svc, replier, _ := newTestService(t, backend)

	rec := postActivity(t, svc, activity("hello", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []digester.Message{{Text: "T:error_message"}}, replier.replies)
}

func TestWebhookBackendFailureSendsFailureMessage(t *testing.T) {
	backend := &scriptedBackend{err: errors.New("backend down")}
	svc, replier, _ := newTestService(t, backend)

	postActivity(t, svc, activity("hello", ""))
	require.Equal(t, []digester.Message{{Text: "T:error_message"}}, replier.replies)

	status := svc.currentStatus("ok")
	require.Equal(t, int64(1), status.Failed)
}

func TestWebhookIgnoresNonMessageActivities(t *testing.T) {
	backend := &scriptedBackend{}
	svc, replier, _ := newTestService(t, backend)

	rec := postActivity(t, svc, `{"type":"conversationUpdate","conversation":{"id":"c"},"recipient":{"id":"b"}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Empty(t, backend.requests)
	require.Empty(t, replier.replies)
}

func TestWebhookRejectsInvalidJSON(t *testing.T) {
	svc, _, _ := newTestService(t, &scriptedBackend{})

	rec := postActivity(t, svc, `{"type":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndReadiness(t *testing.T) {
	svc, _, _ := newTestService(t, &scriptedBackend{})

	rec := httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	svc.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
