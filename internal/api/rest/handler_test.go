package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcecred/sourcecred-go/internal/identity"
	"github.com/sourcecred/sourcecred-go/internal/ledger"
	"github.com/sourcecred/sourcecred-go/internal/testutil"
)

func newTestRouter(t *testing.T) (*gin.Engine, ledger.DiskStorage, *testutil.StubClock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	storage := ledger.NewDiskStorage(filepath.Join(t.TempDir(), "data", "ledger.json"))
	clk := testutil.FixedClock()

	router := gin.New()
	SetupRoutes(router, NewHandler(storage, clk))
	return router, storage, clk
}

func seedLedger(t *testing.T, storage ledger.DiskStorage, clk *testutil.StubClock) *ledger.Ledger {
	t.Helper()
	l := ledger.New(clk)
	_, err := l.CreateIdentity(identity.SubtypeUser, "alice")
	require.NoError(t, err)
	_, err = l.CreateIdentity(identity.SubtypeUser, "bob")
	require.NoError(t, err)
	require.NoError(t, storage.Write(l))
	return l
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := perform(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGetLedger(t *testing.T) {
	router, storage, clk := newTestRouter(t)

	t.Run("empty instance serves an empty log", func(t *testing.T) {
		rec := perform(router, http.MethodGet, "/data/ledger.json", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	l := seedLedger(t, storage, clk)
	want, err := l.Serialize()
	require.NoError(t, err)

	rec := perform(router, http.MethodGet, "/data/ledger.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.Equal(t, string(want), rec.Body.String())
}

func TestPutLedger(t *testing.T) {
	router, storage, clk := newTestRouter(t)
	l := seedLedger(t, storage, clk)

	t.Run("valid log replaces the file", func(t *testing.T) {
		replacement := ledger.New(clk)
		_, err := replacement.CreateIdentity(identity.SubtypeUser, "carol")
		require.NoError(t, err)
		body, err := replacement.Serialize()
		require.NoError(t, err)

		rec := perform(router, http.MethodPost, "/data/ledger.json", string(body))
		assert.Equal(t, http.StatusOK, rec.Code)

		stored, err := storage.Read(clk)
		require.NoError(t, err)
		_, ok := stored.IdentityByName("carol")
		assert.True(t, ok)
		_, ok = stored.IdentityByName("alice")
		assert.False(t, ok, "the old log is fully replaced")
	})

	t.Run("malformed line returns 400 with line info", func(t *testing.T) {
		valid, err := l.Serialize()
		require.NoError(t, err)
		body := string(valid) + "{broken\n"

		rec := perform(router, http.MethodPost, "/data/ledger.json", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "line 3")
	})

	t.Run("semantically invalid log returns 400", func(t *testing.T) {
		valid, err := l.Serialize()
		require.NoError(t, err)
		// Duplicate the first event: replaying CREATE_IDENTITY twice fails.
		lines := strings.SplitN(string(valid), "\n", 2)
		body := lines[0] + "\n" + lines[0] + "\n"

		rec := perform(router, http.MethodPost, "/data/ledger.json", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListAccounts(t *testing.T) {
	router, storage, clk := newTestRouter(t)
	seedLedger(t, storage, clk)

	rec := perform(router, http.MethodGet, "/api/v1/accounts", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Accounts []struct {
			Identity struct {
				Name    string `json:"name"`
				Subtype string `json:"subtype"`
			} `json:"identity"`
			Balance string `json:"balance"`
			Active  bool   `json:"active"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Accounts, 2)
	assert.Equal(t, "alice", payload.Accounts[0].Identity.Name)
	assert.Equal(t, "bob", payload.Accounts[1].Identity.Name)
	assert.Equal(t, "0", payload.Accounts[0].Balance)
	assert.False(t, payload.Accounts[0].Active)
}
