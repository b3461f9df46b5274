package model

// Typed mirrors of the reference tables. The gorm tags drive AutoMigrate on
// MySQL; the parquet tags drive entity export/import.

type AdrgRow struct {
	AdrgCode  string  `gorm:"column:AdrgCode;type:varchar(20);primaryKey" parquet:"AdrgCode"`
	AdrgName  *string `gorm:"column:AdrgName;type:varchar(200)" parquet:"AdrgName,optional"`
	ScdLetter *string `gorm:"column:ScdLetter;type:varchar(100)" parquet:"ScdLetter,optional"`
	Dept      *string `gorm:"column:Dept;type:varchar(100)" parquet:"Dept,optional"`
}

func (AdrgRow) TableName() string { return ADRG.Table }

type DrgsGroupRow struct {
	GrpCode string   `gorm:"column:grpcode;type:varchar(50);primaryKey" parquet:"grpcode"`
	GrpName *string  `gorm:"column:grpname;type:varchar(300)" parquet:"grpname,optional"`
	IsZZ    *int64   `gorm:"column:iszz" parquet:"iszz,optional"`
	IsCZ    *int64   `gorm:"column:iscz" parquet:"iscz,optional"`
	IsOp    *string  `gorm:"column:isop;type:varchar(1)" parquet:"isop,optional"`
	Rule    *string  `gorm:"column:rule;type:varchar(100)" parquet:"rule,optional"`
	PayCW   *float64 `gorm:"column:paycw;type:decimal(10,2)" parquet:"paycw,optional"`
	ACode   *string  `gorm:"column:acode;type:varchar(10);index" parquet:"acode,optional"`
}

func (DrgsGroupRow) TableName() string { return DrgsGroup.Table }

type CCRow struct {
	DiagCode string  `gorm:"column:diagcode;type:varchar(50);primaryKey" parquet:"diagcode"`
	TB       *string `gorm:"column:tb;type:varchar(50);index" parquet:"tb,optional"`
	CCType   *string `gorm:"column:cctype;type:varchar(100)" parquet:"cctype,optional"`
	CCL      *int64  `gorm:"column:ccl" parquet:"ccl,optional"`
}

func (CCRow) TableName() string { return CC.Table }

type ExcludeRow struct {
	TB       string `gorm:"column:tb;type:varchar(50);primaryKey" parquet:"tb"`
	MainDiag string `gorm:"column:maindiag;type:varchar(50);primaryKey" parquet:"maindiag"`
}

func (ExcludeRow) TableName() string { return Exclude.Table }

type ExceptDiagRow struct {
	DiagCode string  `gorm:"column:diagcode;type:varchar(50);primaryKey" parquet:"diagcode"`
	DiagName *string `gorm:"column:diagname;type:varchar(200)" parquet:"diagname,optional"`
}

func (ExceptDiagRow) TableName() string { return ExceptDiag.Table }

type ExceptOperRow struct {
	OperCode string  `gorm:"column:opercode;type:varchar(50);primaryKey" parquet:"opercode"`
	OperName *string `gorm:"column:opername;type:varchar(200)" parquet:"opername,optional"`
}

func (ExceptOperRow) TableName() string { return ExceptOper.Table }

type MainDiagIndexRow struct {
	ACode    string  `gorm:"column:acode;type:varchar(10);primaryKey" parquet:"acode"`
	DiagCode string  `gorm:"column:diagcode;type:varchar(50);primaryKey" parquet:"diagcode"`
	DiagName *string `gorm:"column:diagname;type:varchar(300)" parquet:"diagname,optional"`
	GrpNo    *int64  `gorm:"column:grpno" parquet:"grpno,optional"`
}

func (MainDiagIndexRow) TableName() string { return MainDiagIndex.Table }

// OtherDiagIndexRow has the same shape as MainDiagIndexRow.
type OtherDiagIndexRow MainDiagIndexRow

func (OtherDiagIndexRow) TableName() string { return OtherDiagIndex.Table }

type MainSurgeryIndexRow struct {
	ACode    string  `gorm:"column:acode;type:varchar(10);primaryKey" parquet:"acode"`
	OperCode string  `gorm:"column:opercode;type:varchar(50);primaryKey" parquet:"opercode"`
	OperName *string `gorm:"column:opername;type:varchar(300)" parquet:"opername,optional"`
	GrpNo    *int64  `gorm:"column:grpno" parquet:"grpno,optional"`
}

func (MainSurgeryIndexRow) TableName() string { return MainSurgeryIndex.Table }

type MdcDiagRow struct {
	MdcCode  string  `gorm:"column:mdccode;type:varchar(5);primaryKey" parquet:"mdccode"`
	DiagCode string  `gorm:"column:diagcode;type:varchar(50);primaryKey" parquet:"diagcode"`
	DiagName *string `gorm:"column:diagname;type:varchar(300)" parquet:"diagname,optional"`
	SubMdc   *string `gorm:"column:submdc;type:varchar(100)" parquet:"submdc,optional"`
}

func (MdcDiagRow) TableName() string { return MdcDiagPool.Table }

// GormModels returns one zero value per entity, for gorm AutoMigrate.
func GormModels() []any {
	return []any{
		&AdrgRow{}, &DrgsGroupRow{}, &CCRow{}, &ExcludeRow{}, &ExceptDiagRow{},
		&ExceptOperRow{}, &MainDiagIndexRow{}, &MainSurgeryIndexRow{},
		&OtherDiagIndexRow{}, &MdcDiagRow{},
	}
}
