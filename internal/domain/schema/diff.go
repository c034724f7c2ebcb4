package schema

// DiffType tags one unit of structural difference between two schemas.
type DiffType string

const (
	DiffTableAdded     DiffType = "table_added"
	DiffTableRemoved   DiffType = "table_removed"
	DiffColumnAdded    DiffType = "column_added"
	DiffColumnRemoved  DiffType = "column_removed"
	DiffColumnModified DiffType = "column_modified"
	DiffIndexAdded     DiffType = "index_added"
	DiffIndexRemoved   DiffType = "index_removed"
	DiffIndexModified  DiffType = "index_modified"
	DiffFKAdded        DiffType = "fk_added"
	DiffFKRemoved      DiffType = "fk_removed"
	DiffFKModified     DiffType = "fk_modified"
)

// MigrationOrder is the fixed dependency-safe application order for diff
// items. Dependents (foreign keys, indexes) are dropped before structural
// changes and recreated after them; reordering breaks sequential application
// for tables with cross-references.
var MigrationOrder = []DiffType{
	DiffFKRemoved,
	DiffFKModified,
	DiffIndexRemoved,
	DiffIndexModified,
	DiffColumnRemoved,
	DiffColumnModified,
	DiffTableRemoved,
	DiffTableAdded,
	DiffColumnAdded,
	DiffIndexAdded,
	DiffFKAdded,
}

// SchemaDiffItem is one typed difference plus the SQL that realizes it
// against the target. Source and Target carry the differing object
// (column, index, foreign key, or full table schema) when available.
type SchemaDiffItem struct {
	Type         DiffType    `json:"type"`
	Schema       string      `json:"schema"`
	Table        string      `json:"table"`
	Name         string      `json:"name,omitempty"`
	Source       interface{} `json:"source,omitempty"`
	Target       interface{} `json:"target,omitempty"`
	MigrationSQL []string    `json:"migrationSql"`
}

// SchemaDiff aggregates every difference found between two schemas. It is
// computed on demand and immutable once returned; apply results are recorded
// separately as migration history.
type SchemaDiff struct {
	SourceConnectionID string              `json:"sourceConnectionId"`
	TargetConnectionID string              `json:"targetConnectionId"`
	SourceSchema       string              `json:"sourceSchema"`
	TargetSchema       string              `json:"targetSchema"`
	Items              []SchemaDiffItem    `json:"items"`
	Summary            map[DiffType]int    `json:"summary"`
}

// Summarize derives the per-type counts from Items. Purely a view over the
// item list, no independent state.
func (d *SchemaDiff) Summarize() {
	d.Summary = make(map[DiffType]int)
	for _, item := range d.Items {
		d.Summary[item.Type]++
	}
}
