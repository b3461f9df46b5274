package sql

import (
	"embed"
)

// Migrations holds the schema DDL, applied in filename order.
//
//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed queries/truncate_reference.sql
var TruncateReference string

//go:embed queries/count_rows.sql
var CountRows string
