// mkfixture builds a small GroupConfig SQLite database for local runs and demos.
// With -from it loads <Entity>.parquet files written by `drgref export entity`;
// otherwise it writes a handful of representative rows per table.
// Usage: go run ./cmd/mkfixture -out data/GroupConfig.db [-from testdata/parquet]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/gyeh/drgref/internal/db"
	"github.com/gyeh/drgref/internal/export"
	"github.com/gyeh/drgref/internal/model"
)

func main() {
	out := flag.String("out", "data/GroupConfig.db", "output sqlite database")
	from := flag.String("from", "", "directory of <Entity>.parquet files (default: built-in sample rows)")
	force := flag.Bool("force", false, "overwrite an existing output file")
	flag.Parse()

	if _, err := os.Stat(*out); err == nil {
		if !*force {
			fmt.Fprintf(os.Stderr, "%s exists (use -force to overwrite)\n", *out)
			os.Exit(1)
		}
		if err := os.Remove(*out); err != nil {
			fmt.Fprintf(os.Stderr, "remove output: %v\n", err)
			os.Exit(1)
		}
	}
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	var recs []model.Record
	if *from != "" {
		var err error
		recs, err = readDir(*from)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read parquet: %v\n", err)
			os.Exit(1)
		}
	} else {
		recs = sampleRecords()
	}

	ctx := context.Background()
	sdb, err := db.OpenSQLite(ctx, *out, false, 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open sqlite: %v\n", err)
		os.Exit(1)
	}
	defer sdb.Close()

	if err := db.ApplySQLiteMigrations(ctx, sdb, zerolog.Nop()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	if err := db.InsertRecords(ctx, sdb, recs); err != nil {
		fmt.Fprintf(os.Stderr, "insert: %v\n", err)
		os.Exit(1)
	}

	counts := make(map[string]int)
	for _, r := range recs {
		counts[r.Entity.Name]++
	}
	for _, e := range model.AllEntities {
		fmt.Printf("%-18s %6d\n", e.Name, counts[e.Name])
	}
	fmt.Printf("\nWrote %d rows to %s\n", len(recs), *out)
}

// readDir loads every entity whose parquet file exists under dir.
func readDir(dir string) ([]model.Record, error) {
	var all []model.Record
	found := 0
	for _, e := range model.AllEntities {
		path := filepath.Join(dir, e.Name+".parquet")
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		recs, err := export.ReadEntity(path, e)
		if err != nil {
			return nil, err
		}
		found++
		all = append(all, recs...)
	}
	if found == 0 {
		return nil, fmt.Errorf("no <Entity>.parquet files in %s", dir)
	}
	return all, nil
}

func sampleRecords() []model.Record {
	return []model.Record{
		model.NewRecord(model.ADRG, "AB1", "肝移植", "", "外科"),
		model.NewRecord(model.ADRG, "FM1", "经皮心血管操作及冠状动脉药物洗脱支架植入", "", "外科"),
		model.NewRecord(model.ADRG, "HS2", "病毒性肝炎", "", "内科"),
		model.NewRecord(model.ADRG, "RW1", "恶性增生性疾患的化学治疗", "", "内科"),

		model.NewRecord(model.DrgsGroup, "AB11", "肝移植，伴严重并发症或合并症", int64(1), int64(0), "1", "", 30.52, "AB1"),
		model.NewRecord(model.DrgsGroup, "AB13", "肝移植，伴并发症或合并症", int64(1), int64(0), "1", "", 25.10, "AB1"),
		model.NewRecord(model.DrgsGroup, "FM19", "经皮心血管操作及冠状动脉药物洗脱支架植入", int64(0), int64(1), "1", "", 4.77, "FM1"),
		model.NewRecord(model.DrgsGroup, "HS21", "病毒性肝炎，伴严重并发症或合并症", int64(1), nil, "0", nil, 1.12, "HS2"),
		model.NewRecord(model.DrgsGroup, "HS25", "病毒性肝炎，不伴并发症或合并症", int64(0), nil, "0", nil, 0.61, "HS2"),
		model.NewRecord(model.DrgsGroup, "RW19", "恶性增生性疾患的化学治疗", int64(0), int64(0), "0", "", 0.95, "RW1"),

		model.NewRecord(model.CC, "A01.000", "T1", "CC", int64(1)),
		model.NewRecord(model.CC, "A01.100", "T2", "MCC", int64(2)),
		model.NewRecord(model.CC, "B18.100", "T3", "CC", int64(1)),
		model.NewRecord(model.CC, "I21.000", "T4", "MCC", int64(3)),

		model.NewRecord(model.Exclude, "T1", "A01.000"),
		model.NewRecord(model.Exclude, "T1", "A01.100"),
		model.NewRecord(model.Exclude, "T2", "B20.000"),
		model.NewRecord(model.Exclude, "T3", "B18.100"),
		model.NewRecord(model.Exclude, "T4", "I21.000"),
		model.NewRecord(model.Exclude, "T4", "I21.100"),

		model.NewRecord(model.ExceptDiag, "Z00.000", "一般检查"),
		model.NewRecord(model.ExceptDiag, "Z01.000", "眼和视力检查"),
		model.NewRecord(model.ExceptOper, "89.0100", "问诊和评估"),
		model.NewRecord(model.ExceptOper, "89.5200", "心电图"),

		model.NewRecord(model.MainDiagIndex, "HS2", "B18.100", "慢性病毒性乙型肝炎", int64(1)),
		model.NewRecord(model.MainDiagIndex, "HS2", "B18.200", "慢性病毒性丙型肝炎", int64(1)),
		model.NewRecord(model.MainDiagIndex, "RW1", "Z51.100", "恶性肿瘤化学治疗疗程", int64(1)),
		model.NewRecord(model.MainSurgeryIndex, "AB1", "50.5100", "辅助肝移植", int64(1)),
		model.NewRecord(model.MainSurgeryIndex, "AB1", "50.5900", "其他肝移植", int64(1)),
		model.NewRecord(model.MainSurgeryIndex, "FM1", "36.0700", "冠状动脉药物洗脱支架置入", int64(2)),
		model.NewRecord(model.OtherDiagIndex, "RW1", "C22.000", "肝细胞癌", int64(2)),

		model.NewRecord(model.MdcDiagPool, "MDCA", "Z94.400", "肝移植状态", ""),
		model.NewRecord(model.MdcDiagPool, "MDCH", "B18.100", "慢性病毒性乙型肝炎", ""),
		model.NewRecord(model.MdcDiagPool, "MDCH", "B18.200", "慢性病毒性丙型肝炎", ""),
	}
}
