package services

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/dbnavigator/backend/internal/infrastructure/persistence"
	apperrors "github.com/dbnavigator/backend/pkg/errors"
	"github.com/dbnavigator/backend/pkg/utils"
)

// SchemaDiffService computes structural differences between two schemas and
// generates dialect-correct migration SQL for the target engine. A
// comparison is a passive whole-success computation: introspection failures
// abort it, and no partial diff is ever returned.
type SchemaDiffService struct {
	connections *ConnectionService
	introspect  *IntrospectionService
	history     *persistence.HistoryRepository
}

// NewSchemaDiffService creates a new SchemaDiffService
func NewSchemaDiffService(connections *ConnectionService, introspect *IntrospectionService, history *persistence.HistoryRepository) *SchemaDiffService {
	return &SchemaDiffService{connections: connections, introspect: introspect, history: history}
}

// CompareSchemas diffs every table of the source schema against the target
// schema. Tables are matched by name only; the schema qualifier is not part
// of table identity across the two connections.
func (s *SchemaDiffService) CompareSchemas(ctx context.Context, sourceConnID, targetConnID, sourceSchema, targetSchema string) (*schema.SchemaDiff, error) {
	// Resolve both connections up front so an unknown ID fails before any
	// introspection happens
	if _, err := s.connections.Connector(ctx, sourceConnID); err != nil {
		return nil, err
	}
	targetConn, err := s.connections.Connector(ctx, targetConnID)
	if err != nil {
		return nil, err
	}
	gen := newSQLGenerator(targetConn.Dialect())

	sourceTables, err := s.introspect.GetTables(ctx, sourceConnID, sourceSchema)
	if err != nil {
		return nil, err
	}
	targetTables, err := s.introspect.GetTables(ctx, targetConnID, targetSchema)
	if err != nil {
		return nil, err
	}

	sourceSet := make(map[string]bool, len(sourceTables))
	for _, t := range sourceTables {
		sourceSet[t] = true
	}
	targetSet := make(map[string]bool, len(targetTables))
	for _, t := range targetTables {
		targetSet[t] = true
	}

	diff := &schema.SchemaDiff{
		SourceConnectionID: sourceConnID,
		TargetConnectionID: targetConnID,
		SourceSchema:       sourceSchema,
		TargetSchema:       targetSchema,
	}

	for _, table := range sourceTables {
		if !targetSet[table] {
			sourceTS, err := s.introspect.GetTableSchema(ctx, sourceConnID, sourceSchema, table)
			if err != nil {
				return nil, err
			}
			diff.Items = append(diff.Items, schema.SchemaDiffItem{
				Type:         schema.DiffTableAdded,
				Schema:       targetSchema,
				Table:        table,
				Source:       sourceTS,
				MigrationSQL: gen.CreateTable(targetSchema, sourceTS),
			})
			continue
		}

		// Table exists on both sides: diff columns, indexes and foreign
		// keys independently
		sourceTS, err := s.introspect.GetTableSchema(ctx, sourceConnID, sourceSchema, table)
		if err != nil {
			return nil, err
		}
		targetTS, err := s.introspect.GetTableSchema(ctx, targetConnID, targetSchema, table)
		if err != nil {
			return nil, err
		}
		diff.Items = append(diff.Items, s.compareColumns(gen, targetSchema, table, sourceTS, targetTS)...)
		diff.Items = append(diff.Items, s.compareIndexes(gen, targetSchema, table, sourceTS, targetTS)...)
		diff.Items = append(diff.Items, s.compareForeignKeys(gen, targetSchema, table, sourceTS, targetTS)...)
	}

	for _, table := range targetTables {
		if !sourceSet[table] {
			diff.Items = append(diff.Items, schema.SchemaDiffItem{
				Type:         schema.DiffTableRemoved,
				Schema:       targetSchema,
				Table:        table,
				MigrationSQL: []string{gen.DropTable(targetSchema, table)},
			})
		}
	}

	diff.Summarize()
	return diff, nil
}

// compareColumns matches columns by name and reports added, removed and
// modified ones. Any field difference makes a column "modified", even if
// only one field differs.
func (s *SchemaDiffService) compareColumns(gen *sqlGenerator, schemaName, table string, source, target *schema.TableSchema) []schema.SchemaDiffItem {
	targetCols := make(map[string]schema.Column, len(target.Columns))
	for _, col := range target.Columns {
		targetCols[col.Name] = col
	}
	sourceCols := make(map[string]schema.Column, len(source.Columns))
	for _, col := range source.Columns {
		sourceCols[col.Name] = col
	}

	var items []schema.SchemaDiffItem
	for _, col := range source.Columns {
		targetCol, exists := targetCols[col.Name]
		if !exists {
			items = append(items, schema.SchemaDiffItem{
				Type:         schema.DiffColumnAdded,
				Schema:       schemaName,
				Table:        table,
				Name:         col.Name,
				Source:       col,
				MigrationSQL: []string{gen.AddColumn(schemaName, table, col)},
			})
			continue
		}
		if !columnsEqual(col, targetCol) {
			items = append(items, schema.SchemaDiffItem{
				Type:         schema.DiffColumnModified,
				Schema:       schemaName,
				Table:        table,
				Name:         col.Name,
				Source:       col,
				Target:       targetCol,
				MigrationSQL: gen.AlterColumn(schemaName, table, col, targetCol),
			})
		}
	}
	for _, col := range target.Columns {
		if _, exists := sourceCols[col.Name]; !exists {
			items = append(items, schema.SchemaDiffItem{
				Type:         schema.DiffColumnRemoved,
				Schema:       schemaName,
				Table:        table,
				Name:         col.Name,
				Target:       col,
				MigrationSQL: []string{gen.DropColumn(schemaName, table, col.Name)},
			})
		}
	}
	return items
}

// compareIndexes matches secondary indexes by name. Primary-key indexes are
// excluded on both sides; they are handled through the table DDL. A renamed
// index therefore shows up as one removal plus one addition, never as a
// modification.
func (s *SchemaDiffService) compareIndexes(gen *sqlGenerator, schemaName, table string, source, target *schema.TableSchema) []schema.SchemaDiffItem {
	sourceIdx := secondaryIndexes(source)
	targetIdx := secondaryIndexes(target)

	var items []schema.SchemaDiffItem
	for _, name := range sortedKeys(sourceIdx) {
		idx := sourceIdx[name]
		targetIdxEntry, exists := targetIdx[name]
		if !exists {
			items = append(items, schema.SchemaDiffItem{
				Type:         schema.DiffIndexAdded,
				Schema:       schemaName,
				Table:        table,
				Name:         name,
				Source:       idx,
				MigrationSQL: []string{gen.CreateIndex(schemaName, table, idx)},
			})
			continue
		}
		if !indexesEqual(idx, targetIdxEntry) {
			// No in-place index alteration across dialects: drop, recreate
			items = append(items, schema.SchemaDiffItem{
				Type:   schema.DiffIndexModified,
				Schema: schemaName,
				Table:  table,
				Name:   name,
				Source: idx,
				Target: targetIdxEntry,
				MigrationSQL: []string{
					gen.DropIndex(schemaName, table, name),
					gen.CreateIndex(schemaName, table, idx),
				},
			})
		}
	}
	for _, name := range sortedKeys(targetIdx) {
		if _, exists := sourceIdx[name]; !exists {
			items = append(items, schema.SchemaDiffItem{
				Type:         schema.DiffIndexRemoved,
				Schema:       schemaName,
				Table:        table,
				Name:         name,
				Target:       targetIdx[name],
				MigrationSQL: []string{gen.DropIndex(schemaName, table, name)},
			})
		}
	}
	return items
}

// compareForeignKeys matches foreign keys by name
func (s *SchemaDiffService) compareForeignKeys(gen *sqlGenerator, schemaName, table string, source, target *schema.TableSchema) []schema.SchemaDiffItem {
	sourceFKs := make(map[string]schema.ForeignKey, len(source.ForeignKeys))
	for _, fk := range source.ForeignKeys {
		sourceFKs[fk.Name] = fk
	}
	targetFKs := make(map[string]schema.ForeignKey, len(target.ForeignKeys))
	for _, fk := range target.ForeignKeys {
		targetFKs[fk.Name] = fk
	}

	var items []schema.SchemaDiffItem
	for _, name := range sortedKeys(sourceFKs) {
		fk := sourceFKs[name]
		targetFK, exists := targetFKs[name]
		if !exists {
			items = append(items, schema.SchemaDiffItem{
				Type:         schema.DiffFKAdded,
				Schema:       schemaName,
				Table:        table,
				Name:         name,
				Source:       fk,
				MigrationSQL: []string{gen.AddForeignKey(schemaName, table, fk)},
			})
			continue
		}
		if !foreignKeysEqual(fk, targetFK) {
			items = append(items, schema.SchemaDiffItem{
				Type:   schema.DiffFKModified,
				Schema: schemaName,
				Table:  table,
				Name:   name,
				Source: fk,
				Target: targetFK,
				MigrationSQL: []string{
					gen.DropForeignKey(schemaName, table, name),
					gen.AddForeignKey(schemaName, table, fk),
				},
			})
		}
	}
	for _, name := range sortedKeys(targetFKs) {
		if _, exists := sourceFKs[name]; !exists {
			items = append(items, schema.SchemaDiffItem{
				Type:         schema.DiffFKRemoved,
				Schema:       schemaName,
				Table:        table,
				Name:         name,
				Target:       targetFKs[name],
				MigrationSQL: []string{gen.DropForeignKey(schemaName, table, name)},
			})
		}
	}
	return items
}

// MigrationSQL flattens item SQL in the fixed dependency-safe order:
// dependents (foreign keys, indexes) are dropped first and recreated last so
// sequential application never trips over cross-references.
func (s *SchemaDiffService) MigrationSQL(diff *schema.SchemaDiff) []string {
	var stmts []string
	for _, diffType := range schema.MigrationOrder {
		for _, item := range diff.Items {
			if item.Type == diffType {
				stmts = append(stmts, item.MigrationSQL...)
			}
		}
	}
	return stmts
}

// ApplyMigration executes the diff's migration SQL against the target,
// statement by statement, skipping comment-only placeholders. Statements run
// outside any transaction; the first failure aborts the remainder and the
// partial application state is recorded in the history entry.
func (s *SchemaDiffService) ApplyMigration(ctx context.Context, diff *schema.SchemaDiff) (*models.MigrationHistoryEntry, error) {
	targetConn, err := s.connections.Connector(ctx, diff.TargetConnectionID)
	if err != nil {
		return nil, err
	}

	stmts := s.MigrationSQL(diff)
	entry := &models.MigrationHistoryEntry{
		ID:                 utils.GenerateID(),
		SourceConnectionID: diff.SourceConnectionID,
		TargetConnectionID: diff.TargetConnectionID,
		SourceSchema:       diff.SourceSchema,
		TargetSchema:       diff.TargetSchema,
		MigrationSQL:       stmts,
		CreatedDate:        time.Now(),
	}

	for _, stmt := range stmts {
		if isCommentOnly(stmt) {
			continue
		}
		if _, err := targetConn.Execute(ctx, stmt); err != nil {
			stmtErr := apperrors.NewStatementError(stmt, err)
			entry.Success = false
			entry.Error = stmtErr.Error()
			s.record(ctx, entry)
			return entry, stmtErr
		}
	}

	entry.Success = true
	s.record(ctx, entry)
	return entry, nil
}

func (s *SchemaDiffService) record(ctx context.Context, entry *models.MigrationHistoryEntry) {
	if err := s.history.RecordMigration(ctx, entry); err != nil {
		log.Printf("Warning: failed to record migration history: %v", err)
	}
}

// columnsEqual compares every column field; the data type comparison is
// case-insensitive because engines report VARCHAR/varchar inconsistently
func columnsEqual(a, b schema.Column) bool {
	return strings.ToLower(a.DataType) == strings.ToLower(b.DataType) &&
		a.Nullable == b.Nullable &&
		defaultsEqual(a.DefaultValue, b.DefaultValue) &&
		a.IsPrimaryKey == b.IsPrimaryKey &&
		a.IsUnique == b.IsUnique
}

// indexesEqual compares uniqueness and the column set, order-insensitive
func indexesEqual(a, b schema.Index) bool {
	return a.IsUnique == b.IsUnique && sortedJSON(a.Columns) == sortedJSON(b.Columns)
}

// foreignKeysEqual compares local columns, the referenced table and columns,
// and the referential actions
func foreignKeysEqual(a, b schema.ForeignKey) bool {
	return sortedJSON(a.Columns) == sortedJSON(b.Columns) &&
		a.ReferencedSchema == b.ReferencedSchema &&
		a.ReferencedTable == b.ReferencedTable &&
		sortedJSON(a.ReferencedColumns) == sortedJSON(b.ReferencedColumns) &&
		a.OnDelete == b.OnDelete &&
		a.OnUpdate == b.OnUpdate
}

func secondaryIndexes(ts *schema.TableSchema) map[string]schema.Index {
	out := make(map[string]schema.Index)
	for _, idx := range ts.Indexes {
		if !idx.IsPrimary {
			out[idx.Name] = idx
		}
	}
	return out
}

// sortedJSON renders a copy of the slice, sorted, as a JSON string for
// order-insensitive set comparison
func sortedJSON(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	b, _ := json.Marshal(sorted)
	return string(b)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
