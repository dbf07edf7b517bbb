// Package schema is the catalog of the physical store layout.
//
// The store keeps entities and entity classes in generalized supertype tables
// (entity, entity_class) discriminated by a type column, with satellite tables
// holding the object- and relationship-specific rows. Every logical table the
// staging layer can touch is a member of the closed Table enumeration below;
// each member carries its physical column descriptor, so adding a table is a
// compile-time change, not a runtime dictionary entry.
package schema

import "fmt"

// Type discriminator values shared by entity_class.type_id and entity.type_id.
const (
	TypeObject       int64 = 1
	TypeRelationship int64 = 2
)

// Table identifies one logical table of the store.
type Table int

const (
	TableCommit Table = iota
	TableAlternative
	TableEntityClass
	TableObjectClass
	TableRelationshipClass
	TableRelationshipEntityClass
	TableEntity
	TableObject
	TableRelationship
	TableRelationshipEntity
	TableParameterDefinition
	TableParameterValue

	numTables
)

// Family identifies a group of tables sharing one primary-key sequence.
// Satellite rows reuse the id of their supertype row, so the whole group
// draws from a single next-id counter.
type Family int

const (
	FamilyCommit Family = iota
	FamilyAlternative
	FamilyEntityClass
	FamilyEntity
	FamilyParameterDefinition
	FamilyParameterValue
)

// ColType is the portable column type used for DDL generation.
type ColType int

const (
	ColInteger ColType = iota
	ColBigInt
	ColText
	ColBlob
)

// Column describes one physical column.
type Column struct {
	Name     string
	Type     ColType
	Nullable bool
}

// Def describes the physical structure of one logical table.
type Def struct {
	Name        string   // physical table name
	IDColumn    string   // column carrying the table's logical id
	PK          []string // primary key; len > 1 for composite keys
	Columns     []Column
	Family      Family
	HasCommitID bool
}

var defs = [numTables]Def{
	TableCommit: {
		Name:     "commit",
		IDColumn: "id",
		PK:       []string{"id"},
		Columns: []Column{
			{Name: "id", Type: ColInteger},
			{Name: "user", Type: ColText},
			{Name: "date", Type: ColText},
			{Name: "comment", Type: ColText},
		},
		Family: FamilyCommit,
	},
	TableAlternative: {
		Name:     "alternative",
		IDColumn: "id",
		PK:       []string{"id"},
		Columns: []Column{
			{Name: "id", Type: ColInteger},
			{Name: "name", Type: ColText},
			{Name: "description", Type: ColText, Nullable: true},
			{Name: "commit_id", Type: ColInteger, Nullable: true},
		},
		Family:      FamilyAlternative,
		HasCommitID: true,
	},
	TableEntityClass: {
		Name:     "entity_class",
		IDColumn: "id",
		PK:       []string{"id"},
		Columns: []Column{
			{Name: "id", Type: ColInteger},
			{Name: "type_id", Type: ColInteger},
			{Name: "name", Type: ColText},
			{Name: "description", Type: ColText, Nullable: true},
			{Name: "display_order", Type: ColInteger},
			{Name: "display_icon", Type: ColBigInt, Nullable: true},
			{Name: "hidden", Type: ColInteger},
			{Name: "commit_id", Type: ColInteger, Nullable: true},
		},
		Family:      FamilyEntityClass,
		HasCommitID: true,
	},
	TableObjectClass: {
		Name:     "object_class",
		IDColumn: "entity_class_id",
		PK:       []string{"entity_class_id"},
		Columns: []Column{
			{Name: "entity_class_id", Type: ColInteger},
			{Name: "type_id", Type: ColInteger},
		},
		Family: FamilyEntityClass,
	},
	TableRelationshipClass: {
		Name:     "relationship_class",
		IDColumn: "entity_class_id",
		PK:       []string{"entity_class_id"},
		Columns: []Column{
			{Name: "entity_class_id", Type: ColInteger},
			{Name: "type_id", Type: ColInteger},
		},
		Family: FamilyEntityClass,
	},
	TableRelationshipEntityClass: {
		Name:     "relationship_entity_class",
		IDColumn: "entity_class_id",
		PK:       []string{"entity_class_id", "dimension"},
		Columns: []Column{
			{Name: "entity_class_id", Type: ColInteger},
			{Name: "dimension", Type: ColInteger},
			{Name: "member_class_id", Type: ColInteger},
			{Name: "member_class_type_id", Type: ColInteger},
		},
		Family: FamilyEntityClass,
	},
	TableEntity: {
		Name:     "entity",
		IDColumn: "id",
		PK:       []string{"id"},
		Columns: []Column{
			{Name: "id", Type: ColInteger},
			{Name: "type_id", Type: ColInteger},
			{Name: "class_id", Type: ColInteger},
			{Name: "name", Type: ColText},
			{Name: "description", Type: ColText, Nullable: true},
			{Name: "commit_id", Type: ColInteger, Nullable: true},
		},
		Family:      FamilyEntity,
		HasCommitID: true,
	},
	TableObject: {
		Name:     "object",
		IDColumn: "entity_id",
		PK:       []string{"entity_id"},
		Columns: []Column{
			{Name: "entity_id", Type: ColInteger},
			{Name: "type_id", Type: ColInteger},
		},
		Family: FamilyEntity,
	},
	TableRelationship: {
		Name:     "relationship",
		IDColumn: "entity_id",
		PK:       []string{"entity_id"},
		Columns: []Column{
			{Name: "entity_id", Type: ColInteger},
			{Name: "entity_class_id", Type: ColInteger},
			{Name: "type_id", Type: ColInteger},
		},
		Family: FamilyEntity,
	},
	TableRelationshipEntity: {
		Name:     "relationship_entity",
		IDColumn: "entity_id",
		PK:       []string{"entity_id", "dimension"},
		Columns: []Column{
			{Name: "entity_id", Type: ColInteger},
			{Name: "entity_class_id", Type: ColInteger},
			{Name: "dimension", Type: ColInteger},
			{Name: "member_id", Type: ColInteger},
			{Name: "member_class_id", Type: ColInteger},
		},
		Family: FamilyEntity,
	},
	TableParameterDefinition: {
		Name:     "parameter_definition",
		IDColumn: "id",
		PK:       []string{"id"},
		Columns: []Column{
			{Name: "id", Type: ColInteger},
			{Name: "name", Type: ColText},
			{Name: "description", Type: ColText, Nullable: true},
			{Name: "entity_class_id", Type: ColInteger},
			{Name: "default_value", Type: ColBlob, Nullable: true},
			{Name: "default_type", Type: ColText, Nullable: true},
			{Name: "commit_id", Type: ColInteger, Nullable: true},
		},
		Family:      FamilyParameterDefinition,
		HasCommitID: true,
	},
	TableParameterValue: {
		Name:     "parameter_value",
		IDColumn: "id",
		PK:       []string{"id"},
		Columns: []Column{
			{Name: "id", Type: ColInteger},
			{Name: "parameter_definition_id", Type: ColInteger},
			{Name: "entity_id", Type: ColInteger},
			{Name: "entity_class_id", Type: ColInteger},
			{Name: "value", Type: ColBlob, Nullable: true},
			{Name: "type", Type: ColText, Nullable: true},
			{Name: "alternative_id", Type: ColInteger},
			{Name: "commit_id", Type: ColInteger, Nullable: true},
		},
		Family:      FamilyParameterValue,
		HasCommitID: true,
	},
}

// Def returns the physical descriptor for t.
func (t Table) Def() Def {
	if t < 0 || t >= numTables {
		panic(fmt.Sprintf("schema: unknown table %d", int(t)))
	}
	return defs[t]
}

// Name returns the physical table name.
func (t Table) Name() string { return t.Def().Name }

func (t Table) String() string { return t.Name() }

// ColumnNames returns the column names of t in declaration order.
func (t Table) ColumnNames() []string {
	cols := t.Def().Columns
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// HasCompositePK reports whether a single logical id can span multiple rows.
func (t Table) HasCompositePK() bool { return len(t.Def().PK) > 1 }

// All returns every logical table in foreign-key-safe insert order:
// a table never precedes one it references.
func All() []Table {
	out := make([]Table, 0, int(numTables))
	for t := Table(0); t < numTables; t++ {
		out = append(out, t)
	}
	return out
}

// StagingTables returns the tables that get a per-session diff table and
// id-set bookkeeping. Commit rows are only ever written by the commit
// coordinator itself, so the commit table is excluded.
func StagingTables() []Table {
	out := make([]Table, 0, int(numTables)-1)
	for t := Table(0); t < numTables; t++ {
		if t == TableCommit {
			continue
		}
		out = append(out, t)
	}
	return out
}

// CounterColumn returns the next_id column holding the family's counter.
func (f Family) CounterColumn() string {
	switch f {
	case FamilyAlternative:
		return "alternative_id"
	case FamilyEntityClass:
		return "entity_class_id"
	case FamilyEntity:
		return "entity_id"
	case FamilyParameterDefinition:
		return "parameter_definition_id"
	case FamilyParameterValue:
		return "parameter_value_id"
	default:
		panic(fmt.Sprintf("schema: family %d has no counter", int(f)))
	}
}

// SupertypeTable returns the table whose max(id) seeds the family counter.
// Satellites share ids with their supertype, so scanning the supertype alone
// is sufficient.
func (f Family) SupertypeTable() Table {
	switch f {
	case FamilyAlternative:
		return TableAlternative
	case FamilyEntityClass:
		return TableEntityClass
	case FamilyEntity:
		return TableEntity
	case FamilyParameterDefinition:
		return TableParameterDefinition
	case FamilyParameterValue:
		return TableParameterValue
	default:
		panic(fmt.Sprintf("schema: family %d has no supertype table", int(f)))
	}
}

// Families returns every family that owns a next-id counter.
func Families() []Family {
	return []Family{
		FamilyAlternative,
		FamilyEntityClass,
		FamilyEntity,
		FamilyParameterDefinition,
		FamilyParameterValue,
	}
}
