package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/drgref/internal/model"
)

const readBatch = 1024

// Reader streams typed rows of one entity from a parquet file.
type Reader[T any] struct {
	file   *os.File
	reader *parquet.GenericReader[T]
}

// Open opens a parquet file and returns a streaming Reader.
func Open[T any](path string) (*Reader[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	return &Reader[T]{file: f, reader: parquet.NewGenericReader[T](pf)}, nil
}

// NumRows returns the total number of rows in the file.
func (r *Reader[T]) NumRows() int64 {
	return r.reader.NumRows()
}

// Read reads up to len(rows) rows. It returns io.EOF when done.
func (r *Reader[T]) Read(rows []T) (int, error) {
	n, err := r.reader.Read(rows)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read parquet rows: %w", err)
	}
	return n, err
}

func (r *Reader[T]) Schema() *parquet.Schema {
	return r.reader.Schema()
}

// Close releases all resources.
func (r *Reader[T]) Close() error {
	if err := r.reader.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// ValidateSchema checks that the parquet schema carries every column of e.
func ValidateSchema(schema *parquet.Schema, e *model.Entity) error {
	have := make(map[string]bool)
	for _, field := range schema.Fields() {
		have[strings.ToLower(field.Name())] = true
	}
	var missing []string
	for _, c := range e.Columns {
		if !have[strings.ToLower(c.Name)] {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing required columns: %s", e, strings.Join(missing, ", "))
	}
	return nil
}

// WriteEntity writes recs as typed parquet rows of entity e.
func WriteEntity(w io.Writer, e *model.Entity, recs []model.Record) error {
	switch e {
	case model.ADRG:
		return writeRows[model.AdrgRow](w, e, recs)
	case model.DrgsGroup:
		return writeRows[model.DrgsGroupRow](w, e, recs)
	case model.CC:
		return writeRows[model.CCRow](w, e, recs)
	case model.Exclude:
		return writeRows[model.ExcludeRow](w, e, recs)
	case model.ExceptDiag:
		return writeRows[model.ExceptDiagRow](w, e, recs)
	case model.ExceptOper:
		return writeRows[model.ExceptOperRow](w, e, recs)
	case model.MainDiagIndex:
		return writeRows[model.MainDiagIndexRow](w, e, recs)
	case model.MainSurgeryIndex:
		return writeRows[model.MainSurgeryIndexRow](w, e, recs)
	case model.OtherDiagIndex:
		return writeRows[model.OtherDiagIndexRow](w, e, recs)
	case model.MdcDiagPool:
		return writeRows[model.MdcDiagRow](w, e, recs)
	}
	return fmt.Errorf("export %s: no typed row", e)
}

// ReadEntity reads every row of a parquet file written by WriteEntity.
func ReadEntity(path string, e *model.Entity) ([]model.Record, error) {
	switch e {
	case model.ADRG:
		return readRows[model.AdrgRow](path, e)
	case model.DrgsGroup:
		return readRows[model.DrgsGroupRow](path, e)
	case model.CC:
		return readRows[model.CCRow](path, e)
	case model.Exclude:
		return readRows[model.ExcludeRow](path, e)
	case model.ExceptDiag:
		return readRows[model.ExceptDiagRow](path, e)
	case model.ExceptOper:
		return readRows[model.ExceptOperRow](path, e)
	case model.MainDiagIndex:
		return readRows[model.MainDiagIndexRow](path, e)
	case model.MainSurgeryIndex:
		return readRows[model.MainSurgeryIndexRow](path, e)
	case model.OtherDiagIndex:
		return readRows[model.OtherDiagIndexRow](path, e)
	case model.MdcDiagPool:
		return readRows[model.MdcDiagRow](path, e)
	}
	return nil, fmt.Errorf("import %s: no typed row", e)
}

func writeRows[T any](w io.Writer, e *model.Entity, recs []model.Record) error {
	rows := make([]T, 0, len(recs))
	for _, r := range recs {
		if r.Entity != e {
			return fmt.Errorf("export %s: record of %s", e, r.Entity)
		}
		row, err := model.Decode[T](r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	pw := parquet.NewGenericWriter[T](w)
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("write %s rows: %w", e, err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close %s writer: %w", e, err)
	}
	return nil
}

func readRows[T any](path string, e *model.Entity) ([]model.Record, error) {
	r, err := Open[T](path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := ValidateSchema(r.Schema(), e); err != nil {
		return nil, err
	}

	out := make([]model.Record, 0, r.NumRows())
	buf := make([]T, readBatch)
	for {
		n, err := r.Read(buf)
		for _, row := range buf[:n] {
			rec, encErr := model.Encode(e, row)
			if encErr != nil {
				return nil, encErr
			}
			out = append(out, rec)
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
	}
}
