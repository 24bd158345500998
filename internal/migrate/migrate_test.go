package migrate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmerrifield20/linkboard/migrations"
	"go.uber.org/zap"
)

// ── Stubs ────────────────────────────────────────────────────────────────

type stubRow struct {
	exists bool
}

func (r stubRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = r.exists
	return nil
}

type stubDB struct {
	clean   map[int64]bool
	execs   []string
	failOn  string
	queries int
}

func (db *stubDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if db.failOn != "" && strings.Contains(sql, db.failOn) {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	db.execs = append(db.execs, sql)
	if strings.HasPrefix(sql, "UPDATE schema_migrations") {
		db.clean[args[0].(int64)] = true
	}
	return pgconn.CommandTag{}, nil
}

func (db *stubDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	db.queries++
	return stubRow{exists: db.clean[args[0].(int64)]}
}

// ── Tests ────────────────────────────────────────────────────────────────

func TestList(t *testing.T) {
	fsys := fstest.MapFS{
		"010_late.up.sql":   {Data: []byte("SELECT 10;")},
		"002_second.up.sql": {Data: []byte("SELECT 2;")},
		"001_first.up.sql":  {Data: []byte("SELECT 1;")},
		"README.md":         {Data: []byte("docs")},
	}
	got, err := List(fsys)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1, 2, 10}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i, m := range got {
		if m.Version != want[i] {
			t.Errorf("migration %d: version %d, want %d", i, m.Version, want[i])
		}
	}
}

func TestList_errors(t *testing.T) {
	if _, err := List(fstest.MapFS{"init.sql": {}}); err == nil {
		t.Error("expected error for file without a version prefix")
	}
	if _, err := List(fstest.MapFS{"x_init.sql": {}}); err == nil {
		t.Error("expected error for non-numeric version")
	}
	dup := fstest.MapFS{"001_a.up.sql": {}, "1_b.up.sql": {}}
	if _, err := List(dup); err == nil {
		t.Error("expected error for duplicate versions")
	}
}

func TestUp_appliesPendingOnly(t *testing.T) {
	fsys := fstest.MapFS{
		"001_first.up.sql":  {Data: []byte("CREATE TABLE first ();")},
		"002_second.up.sql": {Data: []byte("CREATE TABLE second ();")},
	}
	db := &stubDB{clean: map[int64]bool{1: true}}

	n, err := Up(context.Background(), db, fsys, zap.NewNop())
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if n != 1 {
		t.Errorf("applied %d, want 1", n)
	}
	joined := strings.Join(db.execs, "\n")
	if strings.Contains(joined, "CREATE TABLE first") || !strings.Contains(joined, "CREATE TABLE second") {
		t.Errorf("execs:\n%s", joined)
	}
	if !db.clean[2] {
		t.Error("version 2 not marked clean")
	}

	n, err = Up(context.Background(), db, fsys, zap.NewNop())
	if err != nil || n != 0 {
		t.Errorf("second run: applied %d, err %v", n, err)
	}
}

func TestUp_failureLeavesDirty(t *testing.T) {
	fsys := fstest.MapFS{"001_bad.up.sql": {Data: []byte("CREATE TABLE broken (")}}
	db := &stubDB{clean: map[int64]bool{}, failOn: "broken"}

	if _, err := Up(context.Background(), db, fsys, zap.NewNop()); err == nil {
		t.Fatal("expected error")
	}
	if db.clean[1] {
		t.Error("failed migration must not be marked clean")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := List(migrations.FS)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("embedded migrations: %v", got)
	}
	for i, m := range got {
		if m.Version != int64(i+1) {
			t.Errorf("migration %d: version %d", i, m.Version)
		}
	}
}
