package endpoints

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/ramadan/internal/db"
	"github.com/Nixie-Tech-LLC/ramadan/internal/http/api"
	"github.com/Nixie-Tech-LLC/ramadan/internal/model"
	"github.com/Nixie-Tech-LLC/ramadan/internal/push"
	"github.com/Nixie-Tech-LLC/ramadan/internal/redis"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeDispatcher struct {
	runs, broadcasts int
	result           push.Result
	err              error
}

func (f *fakeDispatcher) Run(context.Context, time.Time) (push.Result, error) {
	f.runs++
	return f.result, f.err
}

func (f *fakeDispatcher) Broadcast(context.Context) (push.Result, error) {
	f.broadcasts++
	return push.Result{OK: true, Sent: 3, Test: true}, f.err
}

func newRedisStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(mr.Addr(), "", "", 0)
	t.Cleanup(func() { _ = rdb.Close() })
	return redis.NewStore(rdb, ""), mr
}

func setupRouter(store db.Store, dispatcher Dispatcher, secret string) *gin.Engine {
	r := gin.New()
	modules := []api.Module{CronModule(dispatcher, secret, nil)}
	if store != nil {
		modules = append(modules, SubscribeModule(store, "BPublicKey"))
	} else {
		modules = append(modules, SubscribeModule(nil, ""))
	}
	api.MountGroup(r, api.GroupConfig{Prefix: "/api"}, modules...)
	return r
}

func do(r *gin.Engine, method, path, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubscribeStoresSubscription(t *testing.T) {
	store, _ := newRedisStore(t)
	r := setupRouter(store, nil, "")

	w := do(r, http.MethodPost, "/api/push-subscribe",
		`{"subscription":{"endpoint":"https://fcm.googleapis.com/fcm/send/abc","keys":{"p256dh":"BPub","auth":"sec"}},"locale":"en"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	subs, err := store.ListSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, model.LocaleEN, subs[0].Locale)
}

func TestSubscribeDefaultsLocaleToTurkish(t *testing.T) {
	store, _ := newRedisStore(t)
	r := setupRouter(store, nil, "")

	w := do(r, http.MethodPost, "/api/push-subscribe",
		`{"subscription":{"endpoint":"https://push.example.com/1","keys":{"p256dh":"BPub","auth":"sec"}},"locale":"fr"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	subs, err := store.ListSubscriptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.LocaleTR, subs[0].Locale)
}

func TestSubscribeRejectsMalformed(t *testing.T) {
	store, _ := newRedisStore(t)
	r := setupRouter(store, nil, "")

	for _, body := range []string{
		`not json`,
		`{}`,
		`{"subscription":{"endpoint":"https://push.example.com/1","keys":{"p256dh":"BPub"}}}`,
		`{"subscription":{"keys":{"p256dh":"BPub","auth":"sec"}}}`,
	} {
		w := do(r, http.MethodPost, "/api/push-subscribe", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestSubscribeStoreFailures(t *testing.T) {
	r := setupRouter(nil, nil, "")
	w := do(r, http.MethodPost, "/api/push-subscribe", `{}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	store, mr := newRedisStore(t)
	mr.Close()
	r = setupRouter(store, nil, "")
	w = do(r, http.MethodPost, "/api/push-subscribe",
		`{"subscription":{"endpoint":"https://push.example.com/1","keys":{"p256dh":"BPub","auth":"sec"}}}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPushKey(t *testing.T) {
	store, _ := newRedisStore(t)
	w := do(setupRouter(store, nil, ""), http.MethodGet, "/api/push-key", "", "")
	assert.JSONEq(t, `{"publicKey":"BPublicKey"}`, w.Body.String())

	w = do(setupRouter(nil, nil, ""), http.MethodGet, "/api/push-key", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCronRequiresSecret(t *testing.T) {
	d := &fakeDispatcher{result: push.Result{OK: true, Sent: 2}}
	r := setupRouter(nil, d, "s3cret")

	w := do(r, http.MethodGet, "/api/cron/push-reminders", "", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, d.runs)

	w = do(r, http.MethodGet, "/api/cron/push-reminders", "", "Bearer s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"sent":2}`, w.Body.String())
}

func TestCronReportsReason(t *testing.T) {
	d := &fakeDispatcher{result: push.Result{OK: true, Reason: push.ReasonNoWindow}}
	w := do(setupRouter(nil, d, ""), http.MethodGet, "/api/cron/push-reminders", "", "")
	assert.JSONEq(t, `{"ok":true,"sent":0,"reason":"no window"}`, w.Body.String())
}

func TestCronTestBroadcast(t *testing.T) {
	d := &fakeDispatcher{}
	w := do(setupRouter(nil, d, ""), http.MethodGet, "/api/cron/push-reminders?test=1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"sent":3,"test":true}`, w.Body.String())
	assert.Equal(t, 1, d.broadcasts)
	assert.Zero(t, d.runs)
}

func TestCronNotConfigured(t *testing.T) {
	w := do(setupRouter(nil, nil, ""), http.MethodGet, "/api/cron/push-reminders", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCronStoreError(t *testing.T) {
	d := &fakeDispatcher{err: errors.New("store down")}
	w := do(setupRouter(nil, d, ""), http.MethodGet, "/api/cron/push-reminders", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Cron failed"}`, w.Body.String())
}
