package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"passage/contract"
	"passage/core/types"
	"passage/gateway/middleware"
	"passage/native/market"
	"passage/native/minter"
	"passage/storage"
)

var (
	adminAddr = types.ModuleAddress("gateway-admin")
	alice     = types.ModuleAddress("gateway-alice")
	bob       = types.ModuleAddress("gateway-bob")
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	c := contract.New(db)
	now := time.Unix(1_000, 0)
	env := NewEnvSource("passage-test", types.Address{}, func() time.Time { return now })

	funded := func(addr types.Address) contract.Balance {
		return contract.Balance{Address: addr, Coins: types.NewCoins(types.NewCoin("ustars", 1_000))}
	}
	_, err := c.Instantiate(context.Background(), env.Next(), types.MessageInfo{Sender: adminAddr}, contract.InstantiateMsg{
		Name:    "Passage",
		Symbol:  "PSG",
		BaseURI: "ipfs://collection",
		Admin:   adminAddr,
		Mint: minter.Config{
			MaxMintableTokens: 10,
			UnitPrice:         types.NewCoin("ustars", 100),
			Phase:             minter.PhasePublic,
			PaymentRecipient:  adminAddr,
		},
		Market:   market.Params{Denom: "ustars"},
		Balances: []contract.Balance{funded(alice), funded(bob)},
	})
	require.NoError(t, err)

	handler, err := New(Config{
		Backend:       c,
		Env:           env,
		Observability: middleware.NewObservability(nil, false),
		RateLimiter:   middleware.NewRateLimiter(map[string]middleware.RateLimit{}, nil),
	})
	require.NoError(t, err)
	return handler
}

func do(t *testing.T, h http.Handler, method, path string, sender types.Address, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if !sender.IsZero() {
		req.Header.Set(middleware.SenderHeader, sender.String())
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestExecuteAndReadRoutes(t *testing.T) {
	h := newServer(t)

	res := do(t, h, http.MethodPost, "/v1/execute", alice,
		`{"msg":{"mint":{}},"funds":[{"denom":"ustars","amount":"100"}]}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.NotEmpty(t, res.Header().Get(middleware.RequestIDHeader))
	var resp contract.Response
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &resp))
	require.Equal(t, "mint", resp.Kind)
	require.Equal(t, res.Header().Get(middleware.RequestIDHeader), resp.RequestID)

	res = do(t, h, http.MethodGet, "/v1/tokens/1", types.Address{}, "")
	require.Equal(t, http.StatusOK, res.Code)
	var token contract.TokenView
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &token))
	require.Equal(t, alice, token.Owner)

	res = do(t, h, http.MethodGet, "/v1/asks/1", types.Address{}, "")
	require.Equal(t, http.StatusNotFound, res.Code)

	res = do(t, h, http.MethodPost, "/v1/execute", alice,
		`{"msg":{"list":{"tokenId":1,"price":{"denom":"ustars","amount":"300"},"expiresAt":5000}}}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = do(t, h, http.MethodGet, "/v1/asks/1", types.Address{}, "")
	require.Equal(t, http.StatusOK, res.Code)
	var ask market.Ask
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &ask))
	require.Equal(t, alice, ask.Seller)
	require.Equal(t, int64(300), ask.Price.Amount.Int64())

	res = do(t, h, http.MethodPost, "/v1/execute", bob,
		`{"msg":{"place_bid":{"tokenId":1,"price":{"denom":"ustars","amount":"200"},"expiresAt":5000}},"funds":[{"denom":"ustars","amount":"200"}]}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	res = do(t, h, http.MethodGet, "/v1/bids/1?limit=5", types.Address{}, "")
	require.Equal(t, http.StatusOK, res.Code)
	var bids []market.Bid
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &bids))
	require.Len(t, bids, 1)
	require.Equal(t, bob, bids[0].Bidder)

	res = do(t, h, http.MethodGet, "/v1/minter/config", types.Address{}, "")
	require.Equal(t, http.StatusOK, res.Code)
	var cfg minter.Config
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &cfg))
	require.Equal(t, uint64(10), cfg.MaxMintableTokens)

	res = do(t, h, http.MethodPost, "/v1/query", types.Address{}, `{"supply":{}}`)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"minted":1`)
}

func TestErrorMapping(t *testing.T) {
	h := newServer(t)

	res := do(t, h, http.MethodPost, "/v1/execute", types.Address{}, `{"msg":{"mint":{}}}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = do(t, h, http.MethodPost, "/v1/execute", alice, `{"msg":{"explode":{}}}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
	var body middleware.ErrorBody
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "UnknownMessage", body.Error)

	res = do(t, h, http.MethodGet, "/v1/tokens/42", types.Address{}, "")
	require.Equal(t, http.StatusNotFound, res.Code)

	res = do(t, h, http.MethodGet, "/v1/tokens/abc", types.Address{}, "")
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = do(t, h, http.MethodPost, "/v1/execute", alice, `{"msg":{"pause":{}}}`)
	require.Equal(t, http.StatusForbidden, res.Code)

	res = do(t, h, http.MethodPost, "/v1/migrate", alice, `{"version":"1.1.0"}`)
	require.Equal(t, http.StatusForbidden, res.Code)
	res = do(t, h, http.MethodPost, "/v1/migrate", adminAddr, `{"version":"1.1.0"}`)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	res = do(t, h, http.MethodPost, "/v1/migrate", adminAddr, `{"version":"0.9.0"}`)
	require.Equal(t, http.StatusBadRequest, res.Code)
}

func TestOperationalRoutes(t *testing.T) {
	h := newServer(t)

	res := do(t, h, http.MethodGet, "/healthz", types.Address{}, "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "ok", res.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "req-123", rec.Header().Get(middleware.RequestIDHeader))

	res = do(t, h, http.MethodGet, "/metrics", types.Address{}, "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "passage_gateway")

	res = do(t, h, http.MethodOptions, "/v1/execute", types.Address{}, "")
	require.Equal(t, http.StatusNoContent, res.Code)
}
