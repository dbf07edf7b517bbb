package schema

// Edge declares one canonical foreign-key dependency the cascade propagator
// walks. Given ids collected in Src, the rows of Dst whose RefColumn matches
// any of those ids are touched too; the ids they contribute are read from
// Dst's IDColumn and the walk continues from Dst.
type Edge struct {
	Src       Table
	Dst       Table
	RefColumn string
}

// The graph is declared statically: only canonical foreign keys participate,
// never ad-hoc joins. Satellite and member tables loop their ids back to the
// supertype table so a class referenced as a member at any dimension is
// removed whole.
var edges = []Edge{
	{TableEntityClass, TableObjectClass, "entity_class_id"},
	{TableEntityClass, TableRelationshipClass, "entity_class_id"},
	{TableEntityClass, TableRelationshipEntityClass, "entity_class_id"},
	{TableEntityClass, TableRelationshipEntityClass, "member_class_id"},
	{TableEntityClass, TableEntity, "class_id"},
	{TableEntityClass, TableParameterDefinition, "entity_class_id"},
	{TableRelationshipEntityClass, TableEntityClass, "id"},

	{TableEntity, TableObject, "entity_id"},
	{TableEntity, TableRelationship, "entity_id"},
	{TableEntity, TableRelationshipEntity, "entity_id"},
	{TableEntity, TableRelationshipEntity, "member_id"},
	{TableEntity, TableParameterValue, "entity_id"},
	{TableRelationshipEntity, TableEntity, "id"},

	{TableParameterDefinition, TableParameterValue, "parameter_definition_id"},
	{TableAlternative, TableParameterValue, "alternative_id"},
}

// EdgesFrom returns the outgoing cascade edges of t.
func EdgesFrom(t Table) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Src == t {
			out = append(out, e)
		}
	}
	return out
}

// Edges returns the full static cascade graph.
func Edges() []Edge { return edges }
