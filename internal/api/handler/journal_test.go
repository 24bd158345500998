package handler_test

import (
	"net/http"
	"testing"

	"github.com/jmerrifield20/linkboard/pkg/board"
)

func TestJournalOverview_200(t *testing.T) {
	n := setupNode(t)

	w := n.do(t, http.MethodGet, "/api/v1/journal", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if entries := int(resp["entries"].(float64)); entries != 1 { // genesis
		t.Errorf("expected 1 entry (genesis), got %d", entries)
	}

	payer := n.funded(t, 1_000_000_000)
	acct := n.funded(t, 0)
	n.submit(t, board.InitializeMessage(acct.Address(), payer.Address(), n.next()), acct, payer)

	resp = decode(t, n.do(t, http.MethodGet, "/api/v1/journal", nil))
	if entries := int(resp["entries"].(float64)); entries != 3 {
		t.Errorf("expected 3 entries, got %d", entries)
	}
	root, _ := n.journal.Root(t.Context())
	if resp["root"] != root {
		t.Errorf("root: got %v, want %s", resp["root"], root)
	}
}

func TestJournalVerify_200(t *testing.T) {
	n := setupNode(t)
	n.funded(t, 10)

	w := n.do(t, http.MethodGet, "/api/v1/journal/verify", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decode(t, w); resp["valid"] != true {
		t.Errorf("expected valid=true, got %v", resp["valid"])
	}
}

func TestJournalGetEntry(t *testing.T) {
	n := setupNode(t)
	payer := n.funded(t, 1_000_000_000)
	acct := n.funded(t, 0)
	n.submit(t, board.InitializeMessage(acct.Address(), payer.Address(), n.next()), acct, payer)

	w := n.do(t, http.MethodGet, "/api/v1/journal/entries/2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["instruction"] != board.InstructionInitialize || resp["payer"] != acct.Address().String() {
		t.Errorf("entry: %v", resp)
	}

	if w := n.do(t, http.MethodGet, "/api/v1/journal/entries/0", nil); w.Code != http.StatusOK {
		t.Errorf("genesis: expected 200, got %d", w.Code)
	}
	if w := n.do(t, http.MethodGet, "/api/v1/journal/entries/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := n.do(t, http.MethodGet, "/api/v1/journal/entries/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
