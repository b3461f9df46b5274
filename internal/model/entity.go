package model

// ColumnKind is the storage type of a catalog column.
type ColumnKind int

const (
	Text ColumnKind = iota
	Integer
	Decimal
)

// Column describes one column of a reference table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Entity describes one fixed-schema reference table of the coding database.
type Entity struct {
	Name    string   // catalog name, e.g. "MdcDiagPool"
	Table   string   // physical table name, e.g. "AdrgMdcDiag"
	Columns []Column // in display/storage order
	Key     []string // primary key columns
}

// ColumnNames returns the column names in catalog order.
func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether name is a column of the entity.
func (e *Entity) HasColumn(name string) bool {
	_, ok := e.Column(name)
	return ok
}

// Column returns the column with the given name, or ok=false.
func (e *Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (e *Entity) String() string { return e.Name }

var (
	ADRG = &Entity{
		Name:  "ADRG",
		Table: "Adrg",
		Columns: []Column{
			{Name: "AdrgCode", Kind: Text},
			{Name: "AdrgName", Kind: Text},
			{Name: "ScdLetter", Kind: Text},
			{Name: "Dept", Kind: Text},
		},
		Key: []string{"AdrgCode"},
	}

	DrgsGroup = &Entity{
		Name:  "DrgsGroup",
		Table: "DrgsGroup",
		Columns: []Column{
			{Name: "grpcode", Kind: Text},
			{Name: "grpname", Kind: Text},
			{Name: "iszz", Kind: Integer},
			{Name: "iscz", Kind: Integer},
			{Name: "isop", Kind: Text},
			{Name: "rule", Kind: Text},
			{Name: "paycw", Kind: Decimal},
			{Name: "acode", Kind: Text},
		},
		Key: []string{"grpcode"},
	}

	CC = &Entity{
		Name:  "CC",
		Table: "CC",
		Columns: []Column{
			{Name: "diagcode", Kind: Text},
			{Name: "tb", Kind: Text},
			{Name: "cctype", Kind: Text},
			{Name: "ccl", Kind: Integer},
		},
		Key: []string{"diagcode"},
	}

	Exclude = &Entity{
		Name:  "Exclude",
		Table: "Exclude",
		Columns: []Column{
			{Name: "tb", Kind: Text},
			{Name: "maindiag", Kind: Text},
		},
		Key: []string{"tb", "maindiag"},
	}

	ExceptDiag = &Entity{
		Name:  "ExceptDiag",
		Table: "ExceptDiag",
		Columns: []Column{
			{Name: "diagcode", Kind: Text},
			{Name: "diagname", Kind: Text},
		},
		Key: []string{"diagcode"},
	}

	ExceptOper = &Entity{
		Name:  "ExceptOper",
		Table: "ExceptOper",
		Columns: []Column{
			{Name: "opercode", Kind: Text},
			{Name: "opername", Kind: Text},
		},
		Key: []string{"opercode"},
	}

	MainDiagIndex = &Entity{
		Name:  "MainDiagIndex",
		Table: "MainDiagIndex",
		Columns: []Column{
			{Name: "acode", Kind: Text},
			{Name: "diagcode", Kind: Text},
			{Name: "diagname", Kind: Text},
			{Name: "grpno", Kind: Integer},
		},
		Key: []string{"acode", "diagcode"},
	}

	MainSurgeryIndex = &Entity{
		Name:  "MainSurgeryIndex",
		Table: "MainSurgeryIndex",
		Columns: []Column{
			{Name: "acode", Kind: Text},
			{Name: "opercode", Kind: Text},
			{Name: "opername", Kind: Text},
			{Name: "grpno", Kind: Integer},
		},
		Key: []string{"acode", "opercode"},
	}

	OtherDiagIndex = &Entity{
		Name:  "OtherDiagIndex",
		Table: "OtherDiagIndex",
		Columns: []Column{
			{Name: "acode", Kind: Text},
			{Name: "diagcode", Kind: Text},
			{Name: "diagname", Kind: Text},
			{Name: "grpno", Kind: Integer},
		},
		Key: []string{"acode", "diagcode"},
	}

	MdcDiagPool = &Entity{
		Name:  "MdcDiagPool",
		Table: "AdrgMdcDiag",
		Columns: []Column{
			{Name: "mdccode", Kind: Text},
			{Name: "diagcode", Kind: Text},
			{Name: "diagname", Kind: Text},
			{Name: "submdc", Kind: Text},
		},
		Key: []string{"mdccode", "diagcode"},
	}
)

// AllEntities lists every reference table in canonical order.
var AllEntities = []*Entity{
	ADRG, DrgsGroup, CC, Exclude, ExceptDiag, ExceptOper,
	MainDiagIndex, MainSurgeryIndex, OtherDiagIndex, MdcDiagPool,
}

// EntityByName returns the Entity for the given catalog or table name, or ok=false.
func EntityByName(name string) (*Entity, bool) {
	for _, e := range AllEntities {
		if e.Name == name || e.Table == name {
			return e, true
		}
	}
	return nil, false
}

// EntityNames returns the catalog names of all entities.
func EntityNames() []string {
	names := make([]string, len(AllEntities))
	for i, e := range AllEntities {
		names[i] = e.Name
	}
	return names
}
