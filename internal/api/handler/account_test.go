package handler_test

import (
	"net/http"
	"testing"

	"github.com/jmerrifield20/linkboard/pkg/board"
)

func TestGetAccount(t *testing.T) {
	n := setupNode(t)
	k := n.funded(t, 5000)

	w := n.do(t, http.MethodGet, "/api/v1/accounts/"+k.Address().String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["lamports"].(float64) != 5000 {
		t.Errorf("lamports: %v", resp["lamports"])
	}
	if resp["owner"] != "11111111111111111111111111111111" {
		t.Errorf("owner: %v", resp["owner"])
	}
	if resp["space"].(float64) != 0 {
		t.Errorf("space: %v", resp["space"])
	}
}

func TestGetAccount_errors(t *testing.T) {
	n := setupNode(t)
	stranger := n.funded(t, 0)

	if w := n.do(t, http.MethodGet, "/api/v1/accounts/not-base58!", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad address: expected 400, got %d", w.Code)
	}
	if w := n.do(t, http.MethodGet, "/api/v1/accounts/"+stranger.Address().String(), nil); w.Code != http.StatusNotFound {
		t.Errorf("missing: expected 404, got %d", w.Code)
	}
}

func TestGetBoard(t *testing.T) {
	n := setupNode(t)
	payer := n.funded(t, 1_000_000_000)
	acct := n.funded(t, 0)
	n.submit(t, board.InitializeMessage(acct.Address(), payer.Address(), n.next()), acct, payer)

	path := "/api/v1/boards/" + acct.Address().String()
	w := n.do(t, http.MethodGet, path, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["total_entries"].(float64) != 0 {
		t.Errorf("total_entries: %v", resp["total_entries"])
	}
	if entries, ok := resp["entries"].([]any); !ok || len(entries) != 0 {
		t.Errorf("entries: want empty list, got %v", resp["entries"])
	}

	for _, link := range []string{"one", "two"} {
		if w := n.submit(t, board.AppendMessage(acct.Address(), payer.Address(), link, n.next()), payer); w.Code != http.StatusOK {
			t.Fatalf("append %q: %d %s", link, w.Code, w.Body.String())
		}
	}

	resp = decode(t, n.do(t, http.MethodGet, path, nil))
	if resp["total_entries"].(float64) != 2 {
		t.Errorf("total_entries: %v", resp["total_entries"])
	}

	w = n.do(t, http.MethodGet, path+"/entries/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("entry: expected 200, got %d", w.Code)
	}
	entry := decode(t, w)
	if entry["link"] != "two" || entry["submitter"] != payer.Address().String() {
		t.Errorf("entry: %v", entry)
	}

	if w := n.do(t, http.MethodGet, path+"/entries/2", nil); w.Code != http.StatusNotFound {
		t.Errorf("out of range: expected 404, got %d", w.Code)
	}
	if w := n.do(t, http.MethodGet, path+"/entries/-1", nil); w.Code != http.StatusBadRequest {
		t.Errorf("negative: expected 400, got %d", w.Code)
	}
}

func TestGetBoard_422_notABoard(t *testing.T) {
	n := setupNode(t)
	wallet := n.funded(t, 100)

	w := n.do(t, http.MethodGet, "/api/v1/boards/"+wallet.Address().String(), nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if decode(t, w)["name"] != board.ErrAccountOwnedByWrongProgram.Name {
		t.Errorf("body: %s", w.Body.String())
	}
}

func TestMinimumBalance(t *testing.T) {
	n := setupNode(t)

	w := n.do(t, http.MethodGet, "/api/v1/rent?space=9000", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decode(t, w)["lamports"].(float64); got != 63_530_880 {
		t.Errorf("lamports: got %v, want 63530880", got)
	}

	for _, q := range []string{"", "?space=abc", "?space=-1", "?space=99999999999"} {
		if w := n.do(t, http.MethodGet, "/api/v1/rent"+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%q: expected 400, got %d", q, w.Code)
		}
	}
}
