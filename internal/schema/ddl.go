package schema

import (
	"fmt"
	"strings"
)

// DDLDialect is the slice of the backend dialect the catalog needs to emit
// portable DDL. The full dialect lives in internal/dialect; only quoting,
// type names and the auto-increment primary-key spelling differ per backend.
type DDLDialect interface {
	Quote(ident string) string
	ColumnType(t ColType) string
	AutoIncrementPK() string
}

// CreateDDL returns the statements that create the canonical schema plus the
// shared next_id counter table. All statements are idempotent
// (CREATE TABLE IF NOT EXISTS), matching the bootstrap style of the store.
func CreateDDL(d DDLDialect) []string {
	var stmts []string
	stmts = append(stmts, commitDDL(d))
	stmts = append(stmts, tableDDL(d, TableAlternative,
		[]string{uniqueClause(d, "name")},
		fkClause(d, "commit_id", "commit", "id", false),
	))
	stmts = append(stmts, tableDDL(d, TableEntityClass,
		[]string{uniqueClause(d, "name")},
		fkClause(d, "commit_id", "commit", "id", false),
	))
	stmts = append(stmts, tableDDL(d, TableObjectClass, nil,
		fkClause(d, "entity_class_id", "entity_class", "id", true),
	))
	stmts = append(stmts, tableDDL(d, TableRelationshipClass, nil,
		fkClause(d, "entity_class_id", "entity_class", "id", true),
	))
	stmts = append(stmts, tableDDL(d, TableRelationshipEntityClass, nil,
		fkClause(d, "entity_class_id", "relationship_class", "entity_class_id", true),
		fkClause(d, "member_class_id", "entity_class", "id", true),
	))
	stmts = append(stmts, tableDDL(d, TableEntity,
		[]string{uniqueClause(d, "class_id", "name")},
		fkClause(d, "class_id", "entity_class", "id", true),
		fkClause(d, "commit_id", "commit", "id", false),
	))
	stmts = append(stmts, tableDDL(d, TableObject, nil,
		fkClause(d, "entity_id", "entity", "id", true),
	))
	stmts = append(stmts, tableDDL(d, TableRelationship, nil,
		fkClause(d, "entity_id", "entity", "id", true),
		fkClause(d, "entity_class_id", "relationship_class", "entity_class_id", true),
	))
	stmts = append(stmts, tableDDL(d, TableRelationshipEntity, nil,
		fkClause(d, "entity_id", "relationship", "entity_id", true),
		fkClause(d, "member_id", "entity", "id", true),
	))
	stmts = append(stmts, tableDDL(d, TableParameterDefinition,
		[]string{uniqueClause(d, "entity_class_id", "name")},
		fkClause(d, "entity_class_id", "entity_class", "id", true),
		fkClause(d, "commit_id", "commit", "id", false),
	))
	stmts = append(stmts, tableDDL(d, TableParameterValue,
		[]string{uniqueClause(d, "parameter_definition_id", "entity_id", "alternative_id")},
		fkClause(d, "parameter_definition_id", "parameter_definition", "id", true),
		fkClause(d, "entity_id", "entity", "id", true),
		fkClause(d, "alternative_id", "alternative", "id", true),
		fkClause(d, "commit_id", "commit", "id", false),
	))
	stmts = append(stmts, nextIDDDL(d))
	return stmts
}

// SeedDML returns idempotent statements inserting the rows a fresh store
// needs: the base alternative every parameter value defaults to.
func SeedDML(d DDLDialect) []string {
	return []string{
		fmt.Sprintf(
			"INSERT INTO %s (%s, %s, %s) VALUES (1, 'Base', 'Base alternative') ON CONFLICT DO NOTHING",
			d.Quote("alternative"), d.Quote("id"), d.Quote("name"), d.Quote("description"),
		),
	}
}

// BaseAlternativeID is the id of the alternative seeded by SeedDML.
const BaseAlternativeID int64 = 1

// commitDDL is written out by hand because the commit table is the only one
// with an auto-incremented primary key.
func commitDDL(d DDLDialect) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s %s,\n\t%s %s NOT NULL,\n\t%s %s NOT NULL,\n\t%s %s NOT NULL\n)",
		d.Quote("commit"),
		d.Quote("id"), d.AutoIncrementPK(),
		d.Quote("user"), d.ColumnType(ColText),
		d.Quote("date"), d.ColumnType(ColText),
		d.Quote("comment"), d.ColumnType(ColText),
	)
}

// nextIDDDL creates the single-row counter table. The id column is pinned to
// 1 so every allocator transaction contends on the same row; user and date
// record who advanced a counter last.
func nextIDDDL(d DDLDialect) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", d.Quote("next_id"))
	fmt.Fprintf(&b, "\t%s %s NOT NULL CHECK (%s = 1),\n",
		d.Quote("id"), d.ColumnType(ColInteger), d.Quote("id"))
	fmt.Fprintf(&b, "\t%s %s NOT NULL,\n", d.Quote("user"), d.ColumnType(ColText))
	fmt.Fprintf(&b, "\t%s %s NOT NULL,\n", d.Quote("date"), d.ColumnType(ColText))
	for _, f := range Families() {
		fmt.Fprintf(&b, "\t%s %s,\n", d.Quote(f.CounterColumn()), d.ColumnType(ColInteger))
	}
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s)\n)", d.Quote("id"))
	return b.String()
}

func tableDDL(d DDLDialect, t Table, extra []string, fks ...string) string {
	def := t.Def()
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", d.Quote(def.Name))
	for _, c := range def.Columns {
		fmt.Fprintf(&b, "\t%s %s", d.Quote(c.Name), d.ColumnType(c.Type))
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}
	pk := make([]string, len(def.PK))
	for i, c := range def.PK {
		pk[i] = d.Quote(c)
	}
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s)", strings.Join(pk, ", "))
	for _, clause := range extra {
		b.WriteString(",\n\t")
		b.WriteString(clause)
	}
	for _, fk := range fks {
		b.WriteString(",\n\t")
		b.WriteString(fk)
	}
	b.WriteString("\n)")
	return b.String()
}

func uniqueClause(d DDLDialect, cols ...string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.Quote(c)
	}
	return fmt.Sprintf("UNIQUE (%s)", strings.Join(quoted, ", "))
}

func fkClause(d DDLDialect, col, refTable, refCol string, cascade bool) string {
	clause := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
		d.Quote(col), d.Quote(refTable), d.Quote(refCol))
	if cascade {
		clause += " ON UPDATE CASCADE ON DELETE CASCADE"
	}
	return clause
}
