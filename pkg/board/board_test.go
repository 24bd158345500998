package board_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jmerrifield20/linkboard/pkg/address"
	"github.com/jmerrifield20/linkboard/pkg/board"
)

func submitter(t *testing.T) address.Address {
	t.Helper()
	kp, err := address.NewKeypair()
	if err != nil {
		t.Fatal(err)
	}
	return kp.Address()
}

func TestMarshalInto_emptyBoard(t *testing.T) {
	data := make([]byte, board.Space)
	b := &board.Board{}
	if err := b.MarshalInto(data); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(data[:8], board.AccountDiscriminator[:]) {
		t.Errorf("discriminator not written: %v", data[:8])
	}
	// count = 0 (u64) and an empty vector (u32 0)
	if !bytes.Equal(data[8:20], make([]byte, 12)) {
		t.Errorf("expected zero count and empty vector, got %v", data[8:20])
	}

	decoded, err := board.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.TotalEntries != 0 || len(decoded.Entries) != 0 {
		t.Errorf("expected empty board, got %+v", decoded)
	}
}

func TestAppend_preservesOrderAndCount(t *testing.T) {
	s := submitter(t)
	b := &board.Board{}
	b.Append(board.Entry{Link: "https://example.com/a.gif", Submitter: s})
	b.Append(board.Entry{Link: "https://example.com/b.gif", Submitter: s})

	data := make([]byte, board.Space)
	if err := b.MarshalInto(data); err != nil {
		t.Fatal(err)
	}
	decoded, err := board.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}

	if decoded.TotalEntries != 2 {
		t.Errorf("TotalEntries: got %d, want 2", decoded.TotalEntries)
	}
	want := []board.Entry{
		{Link: "https://example.com/a.gif", Submitter: s},
		{Link: "https://example.com/b.gif", Submitter: s},
	}
	if len(decoded.Entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(decoded.Entries))
	}
	for i := range want {
		if decoded.Entries[i] != want[i] {
			t.Errorf("entry %d: got %+v, want %+v", i, decoded.Entries[i], want[i])
		}
	}
}

func TestEntryLayout(t *testing.T) {
	s := submitter(t)
	b := &board.Board{}
	b.Append(board.Entry{Link: "ab", Submitter: s})

	data := make([]byte, board.Space)
	if err := b.MarshalInto(data); err != nil {
		t.Fatal(err)
	}

	// count u64 = 1, vec len u32 = 1, string len u32 = 2, "ab", address
	if data[8] != 1 || data[16] != 1 || data[20] != 2 {
		t.Errorf("unexpected header bytes: %v", data[8:24])
	}
	if string(data[24:26]) != "ab" {
		t.Errorf("link bytes: got %q", data[24:26])
	}
	if !bytes.Equal(data[26:58], s[:]) {
		t.Error("submitter address not written after the link")
	}
	if b.EncodedSize() != 58 {
		t.Errorf("EncodedSize(): got %d, want 58", b.EncodedSize())
	}
}

func TestMarshalInto_verbatimLinks(t *testing.T) {
	s := submitter(t)
	links := []string{"", "  spaced  ", "not a url at all", "ünïcødé 🎉", strings.Repeat("x", 500)}

	b := &board.Board{}
	for _, l := range links {
		b.Append(board.Entry{Link: l, Submitter: s})
	}
	data := make([]byte, board.Space)
	if err := b.MarshalInto(data); err != nil {
		t.Fatal(err)
	}
	decoded, err := board.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	for i, l := range links {
		if decoded.Entries[i].Link != l {
			t.Errorf("entry %d: got %q, want %q", i, decoded.Entries[i].Link, l)
		}
	}
}

func TestMarshalInto_capacityExceeded(t *testing.T) {
	s := submitter(t)
	link := strings.Repeat("x", 200)
	limit := board.MaxEntries(len(link))

	b := &board.Board{}
	for i := 0; i < limit; i++ {
		b.Append(board.Entry{Link: link, Submitter: s})
	}
	data := make([]byte, board.Space)
	if err := b.MarshalInto(data); err != nil {
		t.Fatalf("board with %d entries should fit: %v", limit, err)
	}
	before := append([]byte(nil), data...)

	b.Append(board.Entry{Link: link, Submitter: s})
	err := b.MarshalInto(data)
	if !errors.Is(err, board.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	if !bytes.Equal(before, data) {
		t.Error("failed MarshalInto modified the destination")
	}
}

func TestUnmarshal_uninitialized(t *testing.T) {
	if _, err := board.Unmarshal(make([]byte, board.Space)); !errors.Is(err, board.ErrAccountNotInitialized) {
		t.Errorf("zeroed data: expected ErrAccountNotInitialized, got %v", err)
	}
	if _, err := board.Unmarshal(nil); !errors.Is(err, board.ErrAccountNotInitialized) {
		t.Errorf("nil data: expected ErrAccountNotInitialized, got %v", err)
	}
}

func TestUnmarshal_wrongDiscriminator(t *testing.T) {
	data := make([]byte, board.Space)
	copy(data, "notboard")
	if _, err := board.Unmarshal(data); !errors.Is(err, board.ErrAccountDiscriminatorMismatch) {
		t.Errorf("expected ErrAccountDiscriminatorMismatch, got %v", err)
	}
}

func TestUnmarshal_countMismatch(t *testing.T) {
	data := make([]byte, board.Space)
	b := &board.Board{}
	b.Append(board.Entry{Link: "a", Submitter: submitter(t)})
	if err := b.MarshalInto(data); err != nil {
		t.Fatal(err)
	}
	data[8] = 5 // total entries no longer matches the vector length

	if _, err := board.Unmarshal(data); !errors.Is(err, board.ErrAccountDidNotDeserialize) {
		t.Errorf("expected ErrAccountDidNotDeserialize, got %v", err)
	}
}

func TestInstructions_roundTrip(t *testing.T) {
	s := submitter(t)
	boardAddr := submitter(t)

	initMsg := board.InitializeMessage(boardAddr, s, 1)
	name, args, err := board.ParseInstruction(initMsg.Data)
	if err != nil || name != board.InstructionInitialize || len(args) != 0 {
		t.Errorf("initialize: name=%q args=%v err=%v", name, args, err)
	}
	if len(initMsg.Accounts) != 3 || !initMsg.Accounts[0].Signer || !initMsg.Accounts[1].Signer {
		t.Errorf("initialize accounts: %+v", initMsg.Accounts)
	}
	if sys := initMsg.Accounts[2]; sys.Address != address.SystemProgram || sys.Signer || sys.Writable {
		t.Errorf("system program slot: %+v", sys)
	}

	app := board.AppendMessage(boardAddr, s, "https://example.com/a.gif", 2)
	name, args, err = board.ParseInstruction(app.Data)
	if err != nil || name != board.InstructionAppend {
		t.Fatalf("append: name=%q err=%v", name, err)
	}
	link, err := board.DecodeAppendArgs(args)
	if err != nil || link != "https://example.com/a.gif" {
		t.Errorf("DecodeAppendArgs: %q, %v", link, err)
	}
	if app.Accounts[0].Signer || !app.Accounts[1].Signer {
		t.Errorf("append accounts: %+v", app.Accounts)
	}
}

func TestParseInstruction_errors(t *testing.T) {
	if _, _, err := board.ParseInstruction([]byte{1, 2}); !errors.Is(err, board.ErrInstructionMissing) {
		t.Errorf("short data: got %v", err)
	}
	if _, _, err := board.ParseInstruction(make([]byte, 8)); !errors.Is(err, board.ErrInstructionUnknown) {
		t.Errorf("unknown discriminator: got %v", err)
	}
	if _, err := board.DecodeAppendArgs([]byte{9, 0, 0, 0, 'a'}); !errors.Is(err, board.ErrInstructionDidNotDeserialize) {
		t.Errorf("truncated link: got %v", err)
	}
}

func TestDecodeAppendArgs_utf8(t *testing.T) {
	tests := []struct {
		name    string
		link    string
		wantErr bool
	}{
		{"ascii", "https://example.com/a.gif", false},
		{"multibyte", "https://example.com/café-☕.gif", false},
		{"empty", "", false},
		{"invalid bytes", "https://x\xff\xfe.gif", true},
		{"truncated rune", "https://x\xe2\x98", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := board.AppendMessage(submitter(t), submitter(t), tc.link, 1)
			_, args, err := board.ParseInstruction(msg.Data)
			if err != nil {
				t.Fatal(err)
			}
			link, err := board.DecodeAppendArgs(args)
			if tc.wantErr {
				if !errors.Is(err, board.ErrInstructionDidNotDeserialize) {
					t.Fatalf("got %q, %v; want ErrInstructionDidNotDeserialize", link, err)
				}
				return
			}
			if err != nil || link != tc.link {
				t.Fatalf("got %q, %v; want %q", link, err, tc.link)
			}
		})
	}
}

func TestErrorByCode(t *testing.T) {
	if e := board.ErrorByCode(board.ErrCapacityExceeded.Code); e != board.ErrCapacityExceeded {
		t.Errorf("ErrorByCode: got %v", e)
	}
	if board.ErrorByCode(9999) != nil {
		t.Error("expected nil for unknown code")
	}
}
