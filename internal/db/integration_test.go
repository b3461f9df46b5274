package db_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/drgref/internal/db"
	"github.com/gyeh/drgref/internal/logging"
	"github.com/gyeh/drgref/internal/model"
	"github.com/gyeh/drgref/internal/store"
)

const (
	testPort     = 15433
	testDB       = "drgtest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testDSN string

func TestMain(m *testing.M) {
	if os.Getenv("DRGREF_PG_TESTS") != "1" {
		fmt.Fprintln(os.Stderr, "SKIP: set DRGREF_PG_TESTS=1 to run embedded postgres tests")
		os.Exit(m.Run())
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupDB connects, drops the reference tables and reapplies migrations.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testDSN == "" {
		t.Skip("embedded postgres disabled")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, testDSN, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for _, e := range model.AllEntities {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, e.Table)); err != nil {
			t.Fatalf("drop %s: %v", e.Table, err)
		}
	}

	log := logging.Setup("text")
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	// Idempotent.
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		t.Fatalf("second migration run: %v", err)
	}

	t.Cleanup(func() { pool.Close() })
	return pool
}

func source() *store.Memory {
	m := store.NewMemory()
	m.Add(
		model.NewRecord(model.ADRG, "AB1", "肝移植", "", "外科"),
		model.NewRecord(model.DrgsGroup, "AB11", "肝移植", int64(1), int64(0), "1", "仅限xx", 30.52, "AB1"),
		model.NewRecord(model.MdcDiagPool, "MDCA", "Z94.400", "肝移植状态", nil),
		model.NewRecord(model.CC, "A01.000", "T1", "CC", int64(2)),
		model.NewRecord(model.CC, "A01.100", "T1", "CC", nil),
		model.NewRecord(model.Exclude, "T1", "A01.000"),
	)
	return m
}

func TestMirrorAndQuery(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	stats, err := db.Mirror(ctx, source(), pool, logging.Setup("text"))
	if err != nil {
		t.Fatalf("Mirror: %v", err)
	}
	if stats.Rows["CC"] != 2 || stats.Rows["ADRG"] != 1 || stats.Rows["ExceptDiag"] != 0 {
		t.Errorf("stats = %v", stats.Rows)
	}

	s := store.NewPostgres(pool)

	drg, err := s.FindWhere(ctx, model.DrgsGroup, "acode", "AB1")
	if err != nil || len(drg) != 1 {
		t.Fatalf("FindWhere = %d rows, %v", len(drg), err)
	}
	if f, ok := drg[0].Float("paycw"); !ok || f != 30.52 {
		t.Errorf("paycw = %v,%v (%#v)", f, ok, drg[0].Values["paycw"])
	}
	if n, ok := drg[0].Int("iszz"); !ok || n != 1 {
		t.Errorf("iszz = %d,%v", n, ok)
	}

	cc, err := s.FindWherePrefix(ctx, model.CC, "diagcode", "A01")
	if err != nil || len(cc) != 2 {
		t.Fatalf("FindWherePrefix = %d rows, %v", len(cc), err)
	}
	if !cc[1].IsNull("ccl") {
		t.Errorf("ccl should be NULL, got %#v", cc[1].Values["ccl"])
	}

	if _, ok, err := s.FindByKey(ctx, model.Exclude, "T1", "A01.000"); !ok || err != nil {
		t.Errorf("FindByKey = %v, %v", ok, err)
	}

	counts, err := db.TableCounts(ctx, pool)
	if err != nil {
		t.Fatalf("TableCounts: %v", err)
	}
	if counts["AdrgMdcDiag"] != 1 || counts["Exclude"] != 1 || len(counts) != len(model.AllEntities) {
		t.Errorf("counts = %v", counts)
	}

	// A second mirror replaces rather than appends.
	if _, err := db.Mirror(ctx, source(), pool, logging.Setup("text")); err != nil {
		t.Fatalf("second Mirror: %v", err)
	}
	all, err := s.FindAll(ctx, model.CC)
	if err != nil || len(all) != 2 {
		t.Errorf("FindAll after re-mirror = %d rows, %v", len(all), err)
	}
}
