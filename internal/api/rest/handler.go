package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sourcecred/sourcecred-go/internal/clock"
	"github.com/sourcecred/sourcecred-go/internal/ledger"
)

// maxLedgerBody bounds POSTed logs; event logs are text and even large
// instances stay well under this.
const maxLedgerBody = 64 << 20

// Handler serves the admin API backed by on-disk ledger storage.
type Handler struct {
	storage ledger.DiskStorage
	clk     clock.Clock

	// mu serializes writers; the ledger file is single-writer.
	mu sync.Mutex
}

// NewHandler creates the admin handler.
func NewHandler(storage ledger.DiskStorage, clk clock.Clock) *Handler {
	return &Handler{storage: storage, clk: clk}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetLedger handles GET /data/ledger.json, serving the canonical
// newline-delimited log. The log is replayed before serving so a corrupt file
// surfaces as an error rather than being passed along.
func (h *Handler) GetLedger(c *gin.Context) {
	l, err := h.storage.Read(h.clk)
	if err != nil {
		respondInternalError(c, err, "Failed to read ledger",
			zap.String("path", h.storage.Path()))
		return
	}
	data, err := l.Serialize()
	if err != nil {
		respondInternalError(c, err, "Failed to serialize ledger")
		return
	}
	c.Data(http.StatusOK, "application/x-ndjson", data)
}

// PutLedger handles POST /data/ledger.json: the body replaces the entire log
// after it replays cleanly from the empty state.
func (h *Handler) PutLedger(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxLedgerBody))
	if err != nil {
		respondBadRequest(c, "Failed to read request body", err.Error())
		return
	}

	l, err := ledger.Parse(h.clk, body)
	if err != nil {
		var perr *ledger.ParseError
		if errors.As(err, &perr) {
			respondValidationError(c, fmt.Sprintf("line %d: %v", perr.Line, perr.Cause))
			return
		}
		respondValidationError(c, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.storage.Write(l); err != nil {
		respondInternalError(c, err, "Failed to write ledger",
			zap.String("path", h.storage.Path()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "events": len(l.EventLog())})
}

// ListAccounts handles GET /api/v1/accounts with a snapshot of every account.
func (h *Handler) ListAccounts(c *gin.Context) {
	l, err := h.storage.Read(h.clk)
	if err != nil {
		respondInternalError(c, err, "Failed to read ledger",
			zap.String("path", h.storage.Path()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": l.Accounts()})
}
