package stagedb

// Record types returned by the view queries. Nullable columns read back as
// zero values; commit ids are zero for rows that only exist in staging.

// Commit is one row of the commit catalog.
type Commit struct {
	ID      int64
	User    string
	Date    string
	Comment string
}

// Alternative is one scenario alternative parameter values can scope to.
type Alternative struct {
	ID          int64
	Name        string
	Description string
	CommitID    int64
}

// EntityClass is one supertype class row, object or relationship alike.
type EntityClass struct {
	ID          int64
	TypeID      int64
	Name        string
	Description string
	CommitID    int64
}

// Entity is one supertype entity row, object or relationship alike.
type Entity struct {
	ID          int64
	TypeID      int64
	ClassID     int64
	Name        string
	Description string
	CommitID    int64
}

// ObjectClass is an entity class of object type.
type ObjectClass struct {
	ID           int64
	Name         string
	Description  string
	DisplayOrder int64
	Hidden       bool
	CommitID     int64
}

// RelationshipClass is the wide shape of a relationship class: member
// classes in dimension order.
type RelationshipClass struct {
	ID               int64
	Name             string
	MemberClassIDs   []int64
	MemberClassNames []string
}

// Object is an entity of object type.
type Object struct {
	ID          int64
	ClassID     int64
	Name        string
	Description string
	CommitID    int64
}

// Relationship is the wide shape of a relationship entity: members in
// dimension order.
type Relationship struct {
	ID          int64
	ClassID     int64
	Name        string
	MemberIDs   []int64
	MemberNames []string
}

// ParameterDefinition carries the type-dispatched class columns: exactly one
// of ObjectClassID and RelationshipClassID is set, both mirroring ClassID.
type ParameterDefinition struct {
	ID                  int64
	Name                string
	Description         string
	ClassID             int64
	ObjectClassID       *int64
	RelationshipClassID *int64
	DefaultValue        []byte
	DefaultType         string
	CommitID            int64
}

// ParameterValue carries the type-dispatched entity and class columns.
type ParameterValue struct {
	ID                  int64
	DefinitionID        int64
	EntityID            int64
	ClassID             int64
	ObjectID            *int64
	RelationshipID      *int64
	ObjectClassID       *int64
	RelationshipClassID *int64
	Value               []byte
	Type                string
	AlternativeID       int64
	CommitID            int64
}

// Input types accepted by the staged add operations.

// AlternativeInput names a new alternative.
type AlternativeInput struct {
	Name        string
	Description string
}

// ObjectClassInput describes a new object class.
type ObjectClassInput struct {
	Name         string
	Description  string
	DisplayOrder int64
	Hidden       bool
}

// RelationshipClassInput describes a new relationship class. MemberClassIDs
// declares the dimensions in order; the order is preserved exactly.
type RelationshipClassInput struct {
	Name           string
	Description    string
	MemberClassIDs []int64
}

// ObjectInput describes a new object.
type ObjectInput struct {
	ClassID     int64
	Name        string
	Description string
}

// RelationshipInput describes a new relationship. MemberIDs pairs with the
// class's dimensions positionally.
type RelationshipInput struct {
	ClassID   int64
	Name      string
	MemberIDs []int64
}

// ParameterDefinitionInput describes a new parameter definition on any
// entity class. DefaultValue and DefaultType are opaque to the store.
type ParameterDefinitionInput struct {
	ClassID      int64
	Name         string
	Description  string
	DefaultValue []byte
	DefaultType  string
}

// ParameterValueInput describes a new parameter value. A zero AlternativeID
// falls back to the base alternative.
type ParameterValueInput struct {
	DefinitionID  int64
	EntityID      int64
	AlternativeID int64
	Value         []byte
	Type          string
}

// Update types carry an id plus optional overrides; nil fields are left
// unchanged.

// EntityClassUpdate renames or redescribes a class of either type.
type EntityClassUpdate struct {
	ID          int64
	Name        *string
	Description *string
}

// EntityUpdate renames or redescribes an entity of either type.
type EntityUpdate struct {
	ID          int64
	Name        *string
	Description *string
}

// AlternativeUpdate renames or redescribes an alternative.
type AlternativeUpdate struct {
	ID          int64
	Name        *string
	Description *string
}

// ParameterDefinitionUpdate overrides definition fields.
type ParameterDefinitionUpdate struct {
	ID           int64
	Name         *string
	Description  *string
	DefaultValue *[]byte
	DefaultType  *string
}

// ParameterValueUpdate overrides the stored value pair.
type ParameterValueUpdate struct {
	ID    int64
	Value *[]byte
	Type  *string
}
