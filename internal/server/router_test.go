package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"signer-core/internal/activity"
	"signer-core/internal/apps"
	"signer-core/internal/handler"
	"signer-core/internal/signer"
	"signer-core/internal/wallet"
	"signer-core/internal/worker"
	"signer-core/pkg/errno"
	"signer-core/pkg/validator"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAccount = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	votingAddr  = common.HexToAddress("0x1973a9d3a3b7bd8c5bdd7d3ce1f0bc6d0a9b1271")
)

type fakeSigner struct{}

func (fakeSigner) SendTransaction(ctx context.Context, tx signer.TransactionPayload) (string, error) {
	return "0xhash", nil
}

func (fakeSigner) PersonalSign(ctx context.Context, message string, account common.Address) (string, error) {
	return "0xsig:" + message, nil
}

// blockingSigner 阻塞到 release 关闭或 ctx 结束
type blockingSigner struct {
	release chan struct{}
}

func (s blockingSigner) SendTransaction(ctx context.Context, tx signer.TransactionPayload) (string, error) {
	return "", errors.New("not supported")
}

func (s blockingSigner) PersonalSign(ctx context.Context, message string, account common.Address) (string, error) {
	select {
	case <-s.release:
		return "0xsig:" + message, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type fakeHandle struct {
	mu         sync.Mutex
	terminated bool
	shutdown   bool
	cleared    bool
}

func (h *fakeHandle) Terminate() {
	h.mu.Lock()
	h.terminated = true
	h.mu.Unlock()
}

func (h *fakeHandle) Shutdown() {
	h.mu.Lock()
	h.shutdown = true
	h.mu.Unlock()
}

func (h *fakeHandle) ShutdownAndClearCache(ctx context.Context) error {
	h.mu.Lock()
	h.cleared = true
	h.mu.Unlock()
	return nil
}

type fixture struct {
	router  *gin.Engine
	panel   *signer.Panel
	pool    *worker.Pool
	handles map[common.Address]*fakeHandle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithSigner(t, fakeSigner{})
}

func newFixtureWithSigner(t *testing.T, s signer.Signer) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.Init())

	snap := wallet.Connected(wallet.ProviderInfo{ID: "metamask"}, testAccount, big.NewInt(1500000000000000000), 1, false, "main")
	wctx := wallet.NewContext(snap)
	registry := apps.NewRegistry(apps.Instance{Name: "Voting", ProxyAddress: votingAddr, AppID: "voting.aragonpm.eth"})
	panel := signer.NewPanel(wctx, s, registry, signer.WithExpectedNetwork("main"))
	pool := worker.NewPool(nil)
	feed := activity.NewFeed(activity.NewMemoryStore(), nil, nil)

	f := &fixture{panel: panel, pool: pool, handles: map[common.Address]*fakeHandle{}}
	factory := func(app apps.Instance) (worker.Connection, worker.Worker) {
		h := &fakeHandle{}
		f.handles[app.ProxyAddress] = h
		return h, h
	}

	f.router = NewHTTPRouter(Handlers{
		Wallet:   handler.NewWalletHandler(wctx, "main"),
		Signer:   handler.NewSignerHandler(panel, registry, time.Second),
		Workers:  handler.NewWorkerHandler(pool, registry, factory),
		Activity: handler.NewActivityHandler(feed),
	})
	return f
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// serve 不使用 t，可以在其他 goroutine 中调用
func (f *fixture) serve(method, path string, body any) *httptest.ResponseRecorder {
	return f.serveContext(context.Background(), method, path, body)
}

func (f *fixture) serveContext(ctx context.Context, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequestWithContext(ctx, method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (f *fixture) do(t *testing.T, method, path string, body any) envelope {
	t.Helper()
	return decode(t, f.serve(method, path, body))
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, errno.OK.Code, env.Code)
}

func TestWalletStatus(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, http.MethodGet, "/api/v1/wallet", nil)
	require.Equal(t, errno.OK.Code, env.Code)

	var st map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, true, st["isConnected"])
	assert.Equal(t, "1.5", st["balanceEth"])
	assert.Contains(t, st["shortAccount"], "0x0000…")
	assert.Equal(t, false, st["networkMismatch"])
}

func TestSignMessageFlow(t *testing.T) {
	f := newFixture(t)

	result := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		result <- f.serve(http.MethodPost, "/api/v1/signer/message", map[string]string{
			"app_address": votingAddr.Hex(),
			"message":     "hello",
		})
	}()

	require.Eventually(t, func() bool {
		return f.panel.State().Kind == "message"
	}, time.Second, 5*time.Millisecond)

	env := f.do(t, http.MethodPost, "/api/v1/signer/sign", nil)
	require.Equal(t, errno.OK.Code, env.Code)

	got := decode(t, <-result)
	require.Equal(t, errno.OK.Code, got.Code)
	var data map[string]string
	require.NoError(t, json.Unmarshal(got.Data, &data))
	assert.Equal(t, "0xsig:hello", data["result"])
	assert.Equal(t, "message", data["kind"])
}

func TestSign_ClientDisconnectDoesNotRejectRequest(t *testing.T) {
	s := blockingSigner{release: make(chan struct{})}
	f := newFixtureWithSigner(t, s)

	bag, result := signer.NewSignatureBag(apps.Instance{Name: "Voting", ProxyAddress: votingAddr}, "hello")
	require.NoError(t, f.panel.Receive(bag))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- f.serveContext(ctx, http.MethodPost, "/api/v1/signer/sign", nil)
	}()

	// 请求上下文已结束，签名仍在等待用户确认
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, signer.StatusSigningMessage, f.panel.State().Status)
	select {
	case r := <-result:
		t.Fatalf("request settled early: %+v", r)
	default:
	}

	close(s.release)
	<-done
	select {
	case r := <-result:
		require.NoError(t, r.Err)
		assert.Equal(t, "0xsig:hello", r.Value)
	case <-time.After(time.Second):
		t.Fatal("request was not settled")
	}
	assert.Equal(t, signer.StatusMessageSigned, f.panel.State().Status)
}

func TestSignWithoutRequest(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, http.MethodPost, "/api/v1/signer/sign", nil)
	assert.Equal(t, errno.ErrNoActiveRequest.Code, env.Code)
}

func TestSubmitMessage_UnknownApp(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, http.MethodPost, "/api/v1/signer/message", map[string]string{
		"app_address": "0x00000000000000000000000000000000000000ff",
		"message":     "hello",
	})
	assert.Equal(t, errno.ErrNotFound.Code, env.Code)
}

func TestSubmitTransaction_ReplacedRequestTimesOut(t *testing.T) {
	f := newFixture(t)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- f.serve(http.MethodPost, "/api/v1/signer/transaction", map[string]any{
			"transaction": map[string]string{"from": testAccount.Hex(), "to": votingAddr.Hex()},
		})
	}()
	require.Eventually(t, func() bool {
		return f.panel.State().Kind == "transaction"
	}, time.Second, 5*time.Millisecond)

	// 新请求替换旧请求，旧请求不会结算
	bag, _ := signer.NewSignatureBag(apps.Instance{Name: "Voting", ProxyAddress: votingAddr}, "newer")
	require.NoError(t, f.panel.Receive(bag))

	got := decode(t, <-first)
	assert.Equal(t, errno.ErrRequestTimeout.Code, got.Code)
}

func TestSubmitMessage_Validation(t *testing.T) {
	f := newFixture(t)
	env := f.do(t, http.MethodPost, "/api/v1/signer/message", map[string]string{"app_address": "nope"})
	assert.Equal(t, errno.ErrBind.Code, env.Code)
	assert.Contains(t, env.Msg, "AppAddress")
}

func TestWorkers(t *testing.T) {
	f := newFixture(t)
	proxy := "0x00000000000000000000000000000000000000C3"

	env := f.do(t, http.MethodPost, "/api/v1/workers", map[string]string{"name": "Finance", "proxy_address": proxy})
	require.Equal(t, errno.OK.Code, env.Code)
	assert.True(t, f.pool.HasWorker(common.HexToAddress(proxy)))

	env = f.do(t, http.MethodGet, "/api/v1/workers", nil)
	require.Equal(t, errno.OK.Code, env.Code)
	assert.Contains(t, string(env.Data), `"count":1`)

	env = f.do(t, http.MethodDelete, "/api/v1/workers/"+proxy+"?clear_cache=true", nil)
	require.Equal(t, errno.OK.Code, env.Code)
	h := f.handles[common.HexToAddress(proxy)]
	assert.True(t, h.terminated)
	assert.True(t, h.cleared)
	assert.False(t, h.shutdown)
	assert.Equal(t, 0, f.pool.Len())

	env = f.do(t, http.MethodDelete, "/api/v1/workers/"+proxy, nil)
	assert.Equal(t, errno.ErrWorkerNotFound.Code, env.Code)
}

func TestPermissionAction(t *testing.T) {
	f := newFixture(t)

	env := f.do(t, http.MethodGet, "/api/v1/permissions/action", nil)
	require.Equal(t, errno.OK.Code, env.Code)
	assert.Contains(t, string(env.Data), `"action":"CREATE_PERMISSION"`)

	env = f.do(t, http.MethodGet, "/api/v1/permissions/action?manager="+testAccount.Hex()+"&selected=2", nil)
	require.Equal(t, errno.OK.Code, env.Code)
	var data struct {
		Current struct {
			Action string `json:"action"`
		} `json:"current"`
		Options []map[string]string `json:"options"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "REMOVE_PERMISSION_MANAGER", data.Current.Action)
	assert.Len(t, data.Options, 3)
}

func TestSubscriptions(t *testing.T) {
	f := newFixture(t)

	env := f.do(t, http.MethodPost, "/api/v1/subscriptions", map[string]string{
		"account": testAccount.Hex(),
		"channel": "webhook",
		"target":  "https://example.org/hook",
	})
	require.Equal(t, errno.OK.Code, env.Code)

	env = f.do(t, http.MethodGet, "/api/v1/subscriptions/"+testAccount.Hex(), nil)
	require.Equal(t, errno.OK.Code, env.Code)
	assert.Contains(t, string(env.Data), "https://example.org/hook")

	env = f.do(t, http.MethodPost, "/api/v1/subscriptions", map[string]string{
		"account": testAccount.Hex(),
		"channel": "pigeon",
		"target":  "x",
	})
	assert.Equal(t, errno.ErrBind.Code, env.Code)
}
