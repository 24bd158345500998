package handler_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/board"
	"github.com/jmerrifield20/linkboard/pkg/txn"
)

func TestSubmit_200_initializeAndAppend(t *testing.T) {
	n := setupNode(t)
	payer := n.funded(t, 1_000_000_000)
	acct := n.funded(t, 0)

	w := n.submit(t, board.InitializeMessage(acct.Address(), payer.Address(), n.next()), acct, payer)
	if w.Code != http.StatusOK {
		t.Fatalf("initialize: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["instruction"] != board.InstructionInitialize {
		t.Errorf("instruction: %v", resp["instruction"])
	}
	if slot := int(resp["slot"].(float64)); slot != 2 { // airdrop is slot 1
		t.Errorf("slot: got %d, want 2", slot)
	}
	if resp["signature"] == "" {
		t.Error("expected a signature")
	}

	w = n.submit(t, board.AppendMessage(acct.Address(), payer.Address(), "https://media.giphy.com/a.gif", n.next()), payer)
	if w.Code != http.StatusOK {
		t.Fatalf("append: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["instruction"]; got != board.InstructionAppend {
		t.Errorf("instruction: %v", got)
	}
}

func TestSubmit_409_replay(t *testing.T) {
	n := setupNode(t)
	payer := n.funded(t, 1_000_000_000)
	acct := n.funded(t, 0)

	tx, err := txn.New(board.InitializeMessage(acct.Address(), payer.Address(), n.next()), acct, payer)
	if err != nil {
		t.Fatal(err)
	}
	if w := n.do(t, http.MethodPost, "/api/v1/transactions", tx); w.Code != http.StatusOK {
		t.Fatalf("first submit: %d %s", w.Code, w.Body.String())
	}
	w := n.do(t, http.MethodPost, "/api/v1/transactions", tx)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmit_409_accountInUse(t *testing.T) {
	n := setupNode(t)
	payer := n.funded(t, 1_000_000_000)
	acct := n.funded(t, 0)

	n.submit(t, board.InitializeMessage(acct.Address(), payer.Address(), n.next()), acct, payer)
	w := n.submit(t, board.InitializeMessage(acct.Address(), payer.Address(), n.next()), acct, payer)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmit_422_programError(t *testing.T) {
	n := setupNode(t)
	submitter := n.funded(t, 1_000_000)
	missing := n.funded(t, 0)

	w := n.submit(t, board.AppendMessage(missing.Address(), submitter.Address(), "x", n.next()), submitter)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if code := uint32(resp["code"].(float64)); code != board.ErrAccountNotInitialized.Code {
		t.Errorf("code: got %d, want %d", code, board.ErrAccountNotInitialized.Code)
	}
	if resp["name"] != board.ErrAccountNotInitialized.Name {
		t.Errorf("name: %v", resp["name"])
	}
}

func TestSubmit_422_insufficientFunds(t *testing.T) {
	n := setupNode(t)
	payer := n.funded(t, 1000)
	acct := n.funded(t, 0)

	w := n.submit(t, board.InitializeMessage(acct.Address(), payer.Address(), n.next()), acct, payer)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := decode(t, w)["code"]; ok {
		t.Error("runtime rejections carry no program code")
	}
}

func TestSubmit_400(t *testing.T) {
	n := setupNode(t)
	payer := n.funded(t, 1_000_000)
	acct := n.funded(t, 0)

	forged, err := txn.New(board.AppendMessage(acct.Address(), payer.Address(), "x", n.next()), payer)
	if err != nil {
		t.Fatal(err)
	}
	forged.Message.Data = append(forged.Message.Data, 'y')

	unsigned := &txn.Transaction{Message: board.AppendMessage(acct.Address(), payer.Address(), "x", n.next())}
	unsigned.Signatures = []address.Signature{{}, {}}

	badData, err := txn.New(txn.Message{
		ProgramID: board.ProgramID,
		Accounts:  []txn.AccountMeta{{Address: payer.Address(), Signer: true, Writable: true}},
		Data:      []byte{1, 2, 3},
		Nonce:     n.next(),
	}, payer)
	if err != nil {
		t.Fatal(err)
	}

	unknownProgram, err := txn.New(txn.Message{
		ProgramID: address.Derive([]byte("nope")),
		Accounts:  []txn.AccountMeta{{Address: payer.Address(), Signer: true, Writable: true}},
		Nonce:     n.next(),
	}, payer)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"message":`},
		{"no signatures", map[string]any{"message": map[string]any{"accounts": []any{map[string]any{}}}}},
		{"bad address", `{"message":{"program_id":"0OIl","accounts":[{}]},"signatures":["1"]}`},
		{"tampered", forged},
		{"signature count", unsigned},
		{"short instruction data", badData},
		{"unknown program", unknownProgram},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := n.do(t, http.MethodPost, "/api/v1/transactions", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestSubmit_400_validationDetails(t *testing.T) {
	n := setupNode(t)

	w := n.do(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"message":    map[string]any{"accounts": []any{}},
		"signatures": []any{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := decode(t, w)
	details, ok := resp["details"].([]any)
	if !ok || len(details) == 0 {
		t.Fatalf("expected validation details, got %v", resp)
	}
	var fields []string
	for _, d := range details {
		fields = append(fields, d.(map[string]any)["field"].(string))
	}
	joined := strings.Join(fields, ",")
	if !strings.Contains(joined, "accounts") || !strings.Contains(joined, "signatures") {
		t.Errorf("fields: %s", joined)
	}
}
