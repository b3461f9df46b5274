package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gyeh/drgref/internal/model"
)

// DeriveKind selects how a lookup key is built from the selected record.
type DeriveKind int

const (
	// Identity uses a primary key field of the selected record verbatim.
	Identity DeriveKind = iota
	// Prefix takes the first PrefixLen characters of a field and appends them
	// to a fixed literal.
	Prefix
	// PassThrough uses a non-key field of the selected record verbatim.
	PassThrough
)

func (k DeriveKind) String() string {
	switch k {
	case Identity:
		return "identity"
	case Prefix:
		return "prefix"
	case PassThrough:
		return "pass-through"
	default:
		return fmt.Sprintf("DeriveKind(%d)", int(k))
	}
}

var (
	// ErrNoKey means the selected record has no value to derive a key from.
	ErrNoKey = errors.New("no key value")
	// ErrWrongSource means the selected record belongs to another entity.
	ErrWrongSource = errors.New("record from wrong entity")
)

// KeyRule derives one lookup key from a selected record.
type KeyRule struct {
	Kind      DeriveKind
	Field     string // field of the selected record
	PrefixLen int    // Prefix only, counted in characters
	Literal   string // Prefix only
}

// Derive applies the rule to r.
func (k KeyRule) Derive(r model.Record) (string, error) {
	if r.IsNull(k.Field) || r.String(k.Field) == "" {
		return "", fmt.Errorf("%w in %s.%s", ErrNoKey, r.Entity, k.Field)
	}
	v := r.String(k.Field)
	if k.Kind != Prefix {
		return v, nil
	}
	runes := []rune(v)
	if len(runes) < k.PrefixLen {
		return "", fmt.Errorf("%w: %s.%s=%q shorter than %d", ErrNoKey, r.Entity, k.Field, v, k.PrefixLen)
	}
	return k.Literal + string(runes[:k.PrefixLen]), nil
}

// Relationship links a selected row of Source to the rows of Entity whose
// Field equals the derived key.
type Relationship struct {
	Name   string
	Source *model.Entity
	Entity *model.Entity
	Field  string
	Key    KeyRule

	// EmptyText is shown when the lookup returns no rows or fails.
	EmptyText string
	// ClearText is shown when the selection is cleared.
	ClearText string
}

// Validate checks the relationship against the entity catalog.
func (r Relationship) Validate() error {
	if r.Source == nil || r.Entity == nil {
		return fmt.Errorf("relationship %s: missing entity", r.Name)
	}
	if !r.Source.HasColumn(r.Key.Field) {
		return fmt.Errorf("relationship %s: %s has no field %q", r.Name, r.Source, r.Key.Field)
	}
	if !r.Entity.HasColumn(r.Field) {
		return fmt.Errorf("relationship %s: %s has no field %q", r.Name, r.Entity, r.Field)
	}
	isKey := slices.Contains(r.Source.Key, r.Key.Field)
	switch r.Key.Kind {
	case Identity:
		if !isKey {
			return fmt.Errorf("relationship %s: identity rule on non-key field %q", r.Name, r.Key.Field)
		}
	case PassThrough:
		if isKey {
			return fmt.Errorf("relationship %s: pass-through rule on key field %q", r.Name, r.Key.Field)
		}
	case Prefix:
		if r.Key.PrefixLen <= 0 {
			return fmt.Errorf("relationship %s: prefix length %d", r.Name, r.Key.PrefixLen)
		}
	default:
		return fmt.Errorf("relationship %s: unknown rule %v", r.Name, r.Key.Kind)
	}
	return nil
}

// DeriveKey derives the lookup key for the selected record.
func (r Relationship) DeriveKey(rec model.Record) (string, error) {
	if rec.Entity != r.Source {
		return "", fmt.Errorf("%w: %s, want %s", ErrWrongSource, rec.Entity, r.Source)
	}
	return r.Key.Derive(rec)
}

// The dependent lookups of the ADRG and CC screens.
var (
	DRGGroups = Relationship{
		Name: "drg", Source: model.ADRG, Entity: model.DrgsGroup, Field: "acode",
		Key: KeyRule{Kind: Identity, Field: "AdrgCode"},
	}
	MDCDiagPool = Relationship{
		Name: "mdc", Source: model.ADRG, Entity: model.MdcDiagPool, Field: "mdccode",
		Key: KeyRule{Kind: Prefix, Field: "AdrgCode", PrefixLen: 1, Literal: "MDC"},
	}
	MainDiagPool = Relationship{
		Name: "maindiag", Source: model.ADRG, Entity: model.MainDiagIndex, Field: "acode",
		Key: KeyRule{Kind: Identity, Field: "AdrgCode"},
	}
	MainOperPool = Relationship{
		Name: "mainoper", Source: model.ADRG, Entity: model.MainSurgeryIndex, Field: "acode",
		Key: KeyRule{Kind: Identity, Field: "AdrgCode"},
	}
	OtherDiagPool = Relationship{
		Name: "otherdiag", Source: model.ADRG, Entity: model.OtherDiagIndex, Field: "acode",
		Key: KeyRule{Kind: Identity, Field: "AdrgCode"},
	}

	ExcludeTable = Relationship{
		Name: "exclude", Source: model.CC, Entity: model.Exclude, Field: "tb",
		Key:       KeyRule{Kind: PassThrough, Field: "tb"},
		EmptyText: "无排除数据",
		ClearText: "请选择左侧行",
	}
)
