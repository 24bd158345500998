package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/linkboard/internal/accounts"
	"github.com/jmerrifield20/linkboard/internal/api/handler"
	"github.com/jmerrifield20/linkboard/internal/auth"
	"github.com/jmerrifield20/linkboard/internal/journal"
	"github.com/jmerrifield20/linkboard/internal/program"
	"github.com/jmerrifield20/linkboard/internal/replay"
	"github.com/jmerrifield20/linkboard/internal/runtime"
	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/txn"
	"go.uber.org/zap"
)

const testAdminSecret = "test-admin-secret-0123456789"

type testNode struct {
	proc    *runtime.Processor
	journal *journal.MemoryJournal
	issuer  *auth.Issuer
	router  *gin.Engine
	nonce   uint64
}

func setupNode(t *testing.T) *testNode {
	t.Helper()
	gin.SetMode(gin.TestMode)

	n := &testNode{journal: journal.NewMemory()}
	n.proc = runtime.NewProcessor(accounts.NewMemoryStore(), n.journal, replay.NewMemory(time.Hour), zap.NewNop())
	n.proc.Register(program.NewBoard())
	n.proc.SetMaxAirdrop(10_000_000_000)

	issuer, err := auth.NewIssuer(testAdminSecret, "linkboard-test", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	n.issuer = issuer

	r := gin.New()
	v1 := r.Group("/api/v1")
	handler.NewTransactionHandler(n.proc, zap.NewNop()).Register(v1)
	handler.NewAccountHandler(n.proc.Store(), n.proc, zap.NewNop()).Register(v1)
	handler.NewJournalHandler(n.journal, zap.NewNop()).Register(v1)
	handler.NewAdminHandler(n.proc, issuer, zap.NewNop()).Register(v1)
	n.router = r
	return n
}

func (n *testNode) next() uint64 {
	n.nonce++
	return n.nonce
}

func (n *testNode) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	n.router.ServeHTTP(w, req)
	return w
}

func (n *testNode) funded(t *testing.T, lamports uint64) *address.Keypair {
	t.Helper()
	k, err := address.NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	if lamports > 0 {
		if _, _, err := n.proc.Airdrop(context.Background(), k.Address(), lamports); err != nil {
			t.Fatalf("Airdrop: %v", err)
		}
	}
	return k
}

func (n *testNode) submit(t *testing.T, msg txn.Message, keys ...*address.Keypair) *httptest.ResponseRecorder {
	t.Helper()
	tx, err := txn.New(msg, keys...)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}
	return n.do(t, http.MethodPost, "/api/v1/transactions", tx)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}
