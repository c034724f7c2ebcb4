package schema

// Row is one database row as an open column-name -> value map. Values pass
// through JSON stringification for key-building and equality checks, so
// binary columns, floating-point rounding and timestamp precision can produce
// spurious diffs. That comparison strategy is part of the contract.
type Row map[string]interface{}

// TableDataDiff is a cheap row-count-level summary for one table pair.
type TableDataDiff struct {
	Table           string `json:"table"`
	Schema          string `json:"schema"`
	SourceCount     int    `json:"sourceCount"`
	TargetCount     int    `json:"targetCount"`
	MissingInTarget int    `json:"missingInTarget"`
	MissingInSource int    `json:"missingInSource"`
	Different       int    `json:"different"`
}

// RowPair holds the source and target versions of one row that differ.
type RowPair struct {
	Source Row `json:"source"`
	Target Row `json:"target"`
}

// RowDiff classifies every row of a table pair by primary-key presence and
// serialized equality. Rows are keyed by the "|"-joined stringified values of
// the primary-key columns; rows with NULL primary-key values collide under
// the same key.
type RowDiff struct {
	MissingInTarget []Row     `json:"missingInTarget"`
	MissingInSource []Row     `json:"missingInSource"`
	Different       []RowPair `json:"different"`
}

// SyncOptions selects which reconciliation operations a sync run performs.
// DeleteExtra defaults to off.
type SyncOptions struct {
	InsertMissing   bool `json:"insertMissing"`
	UpdateDifferent bool `json:"updateDifferent"`
	DeleteExtra     bool `json:"deleteExtra"`
}

// DataSyncResult is the outcome of one sync call. Counts reflect successful
// operations only; Errors accumulates human-readable failure strings. A call
// can succeed overall with a non-empty error list; callers must check
// len(Errors), not just an HTTP status.
type DataSyncResult struct {
	Table    string   `json:"table"`
	Schema   string   `json:"schema"`
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Deleted  int      `json:"deleted"`
	Errors   []string `json:"errors"`
}

// DumpRestoreOptions configures the bulk dump-and-restore path.
type DumpRestoreOptions struct {
	TruncateTarget bool     `json:"truncateTarget"`
	Tables         []string `json:"tables,omitempty"`
}

// TableCopyResult is the per-table outcome of a dump-and-restore run.
type TableCopyResult struct {
	Table    string `json:"table"`
	RowCount int    `json:"rowCount"`
	Error    string `json:"error,omitempty"`
}

// DumpRestoreResult aggregates a dump-and-restore run. Per-table failures do
// not abort the remaining tables.
type DumpRestoreResult struct {
	Schema string            `json:"schema"`
	Tables []TableCopyResult `json:"tables"`
	Errors []string          `json:"errors"`
}
