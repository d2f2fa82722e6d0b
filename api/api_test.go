package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	eos "github.com/eoscanada/eos-go"
	"github.com/stretchr/testify/require"

	"github.com/thisisglitchtm/Ranchers-Land-Claim/api/types"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/journal"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/queue"
	"github.com/thisisglitchtm/Ranchers-Land-Claim/store"
	ctypes "github.com/thisisglitchtm/Ranchers-Land-Claim/types"
)

const owner = "rancher11111"

type fakeChain struct {
	err error
}

func (f fakeChain) HealthCheck(ctx context.Context) (*eos.InfoResp, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &eos.InfoResp{
		ServerVersion: "v5.0.2",
		ChainID:       eos.Checksum256{0x10, 0x64},
		HeadBlockNum:  311_000_000,
	}, nil
}

func (fakeChain) CurrentRPCAddr() string { return "https://wax.greymass.com" }
func (fakeChain) NodeCount() int         { return 3 }
func (fakeChain) FailoverCount() int     { return 1 }

func setup(t *testing.T, chain Chain) (http.Handler, *queue.RetryQueue, *journal.Journal) {
	t.Helper()
	r := require.New(t)

	now := time.Now().Unix()
	s := store.NewStore(owner)
	s.Rebuild([]ctypes.StakedNFT{
		{Owner: owner, AssetID: 1099511627780, TemplateID: 7, NextClaim: now - 30},
		{Owner: owner, AssetID: 1099511627781, TemplateID: 9, NextClaim: now + 3600},
	}, ctypes.Catalog{7: "Brown Cow", 9: "Chicken Coop"}, now)

	retries := queue.NewRetryQueue()
	retries.Add(1099511627780, time.Unix(now+10, 0))

	j, err := journal.OpenInMemory()
	r.NoError(err)
	t.Cleanup(func() { _ = j.Close() })

	at := time.Unix(now, 0)
	j.Observe(ctypes.ClaimOutcome{AssetID: 1099511627780, Name: "Brown Cow", Attempt: 1, Err: errors.New("expired transaction"), At: at})
	j.Observe(ctypes.ClaimOutcome{AssetID: 1099511627781, Name: "Chicken Coop", Attempt: 1, TxID: "ab12", At: at.Add(time.Second)})

	return newRouter(Sources{Store: s, Retries: retries, Chain: chain, History: j}), retries, j
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestIndexAndAssets(t *testing.T) {
	r := require.New(t)
	h, _, _ := setup(t, fakeChain{})

	var index types.IndexResponse
	r.Equal(http.StatusOK, get(t, h, "/", &index))
	r.Equal(owner, index.Owner)
	r.Equal(2, index.Assets)
	r.Equal(1, index.Counts["available"])
	r.Equal(1, index.Counts["waiting"])

	var assets types.AssetsResponse
	r.Equal(http.StatusOK, get(t, h, "/assets", &assets))
	r.Len(assets.Assets, 2)
	r.EqualValues(1099511627780, assets.Assets[0].ID)
	r.Equal("00:00:00", assets.Assets[0].Countdown)
	r.Equal("Chicken Coop", assets.Assets[1].Name)
}

func TestAssetByID(t *testing.T) {
	r := require.New(t)
	h, _, _ := setup(t, fakeChain{})

	var asset types.AssetResponse
	r.Equal(http.StatusOK, get(t, h, "/assets/1099511627780", &asset))
	r.Equal("Brown Cow", asset.Asset.Name)
	r.NotNil(asset.Retry)
	r.Equal(1, asset.Retry.Attempt)
	r.Len(asset.History, 1)
	r.Equal("expired transaction", asset.History[0].Error)

	r.Equal(http.StatusNotFound, get(t, h, "/assets/42", nil))
	r.Equal(http.StatusNotFound, get(t, h, "/assets/cow", nil), "non numeric ids do not match the route")
}

func TestClaims(t *testing.T) {
	r := require.New(t)
	h, _, _ := setup(t, fakeChain{})

	var claims types.ClaimsResponse
	r.Equal(http.StatusOK, get(t, h, "/claims", &claims))
	r.Len(claims.Claims, 2)
	r.Equal("ab12", claims.Claims[0].TxID)

	claims = types.ClaimsResponse{}
	r.Equal(http.StatusOK, get(t, h, "/claims?limit=1", &claims))
	r.Len(claims.Claims, 1)

	claims = types.ClaimsResponse{}
	r.Equal(http.StatusOK, get(t, h, "/claims?asset=1099511627780", &claims))
	r.Len(claims.Claims, 1)
	r.EqualValues(1099511627780, claims.Claims[0].AssetID)

	r.Equal(http.StatusBadRequest, get(t, h, "/claims?limit=abc", nil))
	r.Equal(http.StatusBadRequest, get(t, h, "/claims?asset=-1", nil))
}

func TestRetries(t *testing.T) {
	r := require.New(t)
	h, retries, _ := setup(t, fakeChain{})

	var resp types.RetriesResponse
	r.Equal(http.StatusOK, get(t, h, "/retries", &resp))
	r.Len(resp.Retries, 1)

	retries.Cancel(1099511627780)
	resp = types.RetriesResponse{}
	r.Equal(http.StatusOK, get(t, h, "/retries", &resp))
	r.Empty(resp.Retries)
}

func TestVersionAndNetwork(t *testing.T) {
	r := require.New(t)
	h, _, _ := setup(t, fakeChain{})

	var v types.VersionResponse
	r.Equal(http.StatusOK, get(t, h, "/version", &v))
	r.Equal("1064", v.ChainID)
	r.NotEmpty(v.Version)

	var n types.NetworkResponse
	r.Equal(http.StatusOK, get(t, h, "/network", &n))
	r.Equal("https://wax.greymass.com", n.RPCAddr)
	r.Equal(3, n.Nodes)
	r.Equal(1, n.Failovers)
	r.EqualValues(311_000_000, n.HeadBlock)

	down, _, _ := setup(t, fakeChain{err: errors.New("connection refused")})
	r.Equal(http.StatusInternalServerError, get(t, down, "/network", nil))
	r.Equal(http.StatusInternalServerError, get(t, down, "/version", nil))
}

func TestOutline(t *testing.T) {
	r := require.New(t)
	h, _, _ := setup(t, fakeChain{})

	var outline types.APIOutline
	r.Equal(http.StatusOK, get(t, h, "/api", &outline))

	paths := make([]string, 0, len(outline.Routes))
	for _, route := range outline.Routes {
		r.Equal(http.MethodGet, route.Method)
		paths = append(paths, route.Path)
	}
	r.Contains(paths, "/assets")
	r.Contains(paths, "/claims")
	r.Contains(paths, "/logs")
}

func TestLogHandler(t *testing.T) {
	r := require.New(t)

	file := filepath.Join(t.TempDir(), "rancher.log")
	r.NoError(os.WriteFile(file, []byte("first line\nsecond line\n"), 0o600))

	handler := LogHandler(file)

	req := httptest.NewRequest(http.MethodGet, "/logs", nil)
	req.Header.Set("bytes", "12")
	rec := httptest.NewRecorder()
	handler(rec, req)
	r.Equal(http.StatusOK, rec.Code)

	var tail string
	r.NoError(json.Unmarshal(rec.Body.Bytes(), &tail))
	r.Equal("second line\n", tail)

	req = httptest.NewRequest(http.MethodGet, "/logs", nil)
	req.Header.Set("bytes", "lots")
	rec = httptest.NewRecorder()
	handler(rec, req)
	r.Equal(http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	LogHandler("")(rec, httptest.NewRequest(http.MethodGet, "/logs", nil))
	r.Equal(http.StatusForbidden, rec.Code)
}
