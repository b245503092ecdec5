package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJanitor struct {
	removed int
	err     error
	calls   int
}

func (f *fakeJanitor) RunSweep(context.Context) (int, error) {
	f.calls++
	return f.removed, f.err
}

type fakeRegistrar struct {
	url string
	err error
}

func (f *fakeRegistrar) SetWebhook(_ context.Context, url string) error {
	f.url = url
	return f.err
}

func doGet(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthz(t *testing.T) {
	s := NewServer(Options{Janitor: &fakeJanitor{}})
	rec, body := doGet(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestCronTriggersSweep(t *testing.T) {
	j := &fakeJanitor{removed: 2}
	s := NewServer(Options{Janitor: j})

	rec, body := doGet(t, s.Handler(), "/cron")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cron done", body["status"])
	assert.Equal(t, 1, j.calls)
}

func TestCronSwallowsSweepError(t *testing.T) {
	j := &fakeJanitor{err: errors.New("boom")}
	s := NewServer(Options{Janitor: j})

	rec, body := doGet(t, s.Handler(), "/cron")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cron done", body["status"])
}

func TestSetWebhook(t *testing.T) {
	reg := &fakeRegistrar{}
	s := NewServer(Options{
		Janitor:    &fakeJanitor{},
		Registrar:  reg,
		Token:      "123:abc",
		PublicHost: "bot.example.com",
	})

	rec, body := doGet(t, s.Handler(), "/setwebhook")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://bot.example.com/bot123:abc", body["webhook"])
	assert.Equal(t, "https://bot.example.com/bot123:abc", reg.url)
}

func TestSetWebhookNotConfigured(t *testing.T) {
	s := NewServer(Options{Janitor: &fakeJanitor{}})
	rec, _ := doGet(t, s.Handler(), "/setwebhook")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetWebhookUpstreamFailure(t *testing.T) {
	reg := &fakeRegistrar{err: errors.New("telegram down")}
	s := NewServer(Options{
		Janitor:    &fakeJanitor{},
		Registrar:  reg,
		Token:      "123:abc",
		PublicHost: "bot.example.com",
	})

	rec, body := doGet(t, s.Handler(), "/setwebhook")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotEmpty(t, body["error"])
}
