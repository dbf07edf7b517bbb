package viewsql

import (
	"fmt"

	"stagedb/internal/schema"
)

// EntityClass compiles the entity-class view: one row per class, all types.
func (c *Compiler) EntityClass() string {
	return fmt.Sprintf("SELECT %s\nFROM %s\nORDER BY ec.%s",
		c.columnList("ec", schema.TableEntityClass),
		sub(c.Leg(schema.TableEntityClass), "ec"),
		c.D.Quote("id"),
	)
}

// Entity compiles the entity view: one row per entity, all types.
func (c *Compiler) Entity() string {
	return fmt.Sprintf("SELECT %s\nFROM %s\nORDER BY e.%s",
		c.columnList("e", schema.TableEntity),
		sub(c.Leg(schema.TableEntity), "e"),
		c.D.Quote("id"),
	)
}

// ObjectClass compiles the object-class view: entity-class rows restricted to
// the object type through the satellite join.
func (c *Compiler) ObjectClass() string {
	return fmt.Sprintf(
		"SELECT ec.%s, ec.%s, ec.%s, ec.%s, ec.%s, ec.%s, ec.%s\nFROM %s\nJOIN %s ON oc.%s = ec.%s\nWHERE ec.%s = %d\nORDER BY ec.%s",
		c.D.Quote("id"), c.D.Quote("name"), c.D.Quote("description"),
		c.D.Quote("display_order"), c.D.Quote("display_icon"),
		c.D.Quote("hidden"), c.D.Quote("commit_id"),
		sub(c.Leg(schema.TableEntityClass), "ec"),
		sub(c.Leg(schema.TableObjectClass), "oc"), c.D.Quote("entity_class_id"), c.D.Quote("id"),
		c.D.Quote("type_id"), schema.TypeObject,
		c.D.Quote("id"),
	)
}

// Object compiles the object view: entity rows restricted to the object type.
func (c *Compiler) Object() string {
	return fmt.Sprintf(
		"SELECT e.%s, e.%s, e.%s, e.%s, e.%s\nFROM %s\nJOIN %s ON o.%s = e.%s\nWHERE e.%s = %d\nORDER BY e.%s",
		c.D.Quote("id"), c.D.Quote("class_id"), c.D.Quote("name"),
		c.D.Quote("description"), c.D.Quote("commit_id"),
		sub(c.Leg(schema.TableEntity), "e"),
		sub(c.Leg(schema.TableObject), "o"), c.D.Quote("entity_id"), c.D.Quote("id"),
		c.D.Quote("type_id"), schema.TypeObject,
		c.D.Quote("id"),
	)
}

// RelationshipClass compiles the per-dimension relationship-class view: one
// row per (class, dimension), ordered so member positions read back in
// declaration order.
func (c *Compiler) RelationshipClass() string {
	return fmt.Sprintf(
		"SELECT rec.%s AS %s, rec.%s, rec.%s AS %s, ec.%s, ec.%s, ec.%s, ec.%s\nFROM %s\nJOIN %s ON ec.%s = rec.%s\nORDER BY rec.%s, rec.%s",
		c.D.Quote("entity_class_id"), c.D.Quote("id"),
		c.D.Quote("dimension"),
		c.D.Quote("member_class_id"), c.D.Quote("object_class_id"),
		c.D.Quote("name"), c.D.Quote("description"),
		c.D.Quote("hidden"), c.D.Quote("commit_id"),
		sub(c.Leg(schema.TableRelationshipEntityClass), "rec"),
		sub(c.Leg(schema.TableEntityClass), "ec"), c.D.Quote("id"), c.D.Quote("entity_class_id"),
		c.D.Quote("entity_class_id"), c.D.Quote("dimension"),
	)
}

// WideRelationshipClass compiles the wide relationship-class view: one row
// per class with comma-joined member class id and name lists. The inner
// subquery sorts on (id, dimension) before aggregation so list order always
// matches dimension order.
func (c *Compiler) WideRelationshipClass() string {
	inner := fmt.Sprintf(
		"SELECT rec.%s AS %s, ec.%s AS %s, rec.%s, rec.%s, mc.%s AS %s\nFROM %s\nJOIN %s ON ec.%s = rec.%s\nJOIN %s ON mc.%s = rec.%s\nORDER BY rec.%s, rec.%s",
		c.D.Quote("entity_class_id"), c.D.Quote("id"),
		c.D.Quote("name"), c.D.Quote("name"),
		c.D.Quote("dimension"),
		c.D.Quote("member_class_id"),
		c.D.Quote("name"), c.D.Quote("member_class_name"),
		sub(c.Leg(schema.TableRelationshipEntityClass), "rec"),
		sub(c.Leg(schema.TableEntityClass), "ec"), c.D.Quote("id"), c.D.Quote("entity_class_id"),
		sub(c.Leg(schema.TableEntityClass), "mc"), c.D.Quote("id"), c.D.Quote("member_class_id"),
		c.D.Quote("entity_class_id"), c.D.Quote("dimension"),
	)
	return fmt.Sprintf(
		"SELECT r.%s, r.%s, %s AS %s, %s AS %s\nFROM %s\nGROUP BY r.%s, r.%s\nORDER BY r.%s",
		c.D.Quote("id"), c.D.Quote("name"),
		c.D.AggregateList(c.col("r", "member_class_id"), c.col("r", "dimension")),
		c.D.Quote("object_class_id_list"),
		c.D.AggregateList(c.col("r", "member_class_name"), c.col("r", "dimension")),
		c.D.Quote("object_class_name_list"),
		sub(inner, "r"),
		c.D.Quote("id"), c.D.Quote("name"),
		c.D.Quote("id"),
	)
}

// Relationship compiles the per-dimension relationship view: one row per
// (relationship, dimension) carrying the member entity at that position.
func (c *Compiler) Relationship() string {
	return fmt.Sprintf(
		"SELECT re.%s AS %s, re.%s, re.%s AS %s, re.%s AS %s, e.%s, e.%s\nFROM %s\nJOIN %s ON e.%s = re.%s\nORDER BY re.%s, re.%s",
		c.D.Quote("entity_id"), c.D.Quote("id"),
		c.D.Quote("dimension"),
		c.D.Quote("entity_class_id"), c.D.Quote("class_id"),
		c.D.Quote("member_id"), c.D.Quote("object_id"),
		c.D.Quote("name"), c.D.Quote("commit_id"),
		sub(c.Leg(schema.TableRelationshipEntity), "re"),
		sub(c.Leg(schema.TableEntity), "e"), c.D.Quote("id"), c.D.Quote("entity_id"),
		c.D.Quote("entity_id"), c.D.Quote("dimension"),
	)
}

// WideRelationship compiles the wide relationship view: one row per
// relationship with comma-joined member id and name lists, sorted on
// (id, dimension) before aggregation.
func (c *Compiler) WideRelationship() string {
	inner := fmt.Sprintf(
		"SELECT re.%s AS %s, re.%s AS %s, e.%s AS %s, re.%s, re.%s, m.%s AS %s\nFROM %s\nJOIN %s ON e.%s = re.%s\nJOIN %s ON m.%s = re.%s\nORDER BY re.%s, re.%s",
		c.D.Quote("entity_id"), c.D.Quote("id"),
		c.D.Quote("entity_class_id"), c.D.Quote("class_id"),
		c.D.Quote("name"), c.D.Quote("name"),
		c.D.Quote("dimension"),
		c.D.Quote("member_id"),
		c.D.Quote("name"), c.D.Quote("member_name"),
		sub(c.Leg(schema.TableRelationshipEntity), "re"),
		sub(c.Leg(schema.TableEntity), "e"), c.D.Quote("id"), c.D.Quote("entity_id"),
		sub(c.Leg(schema.TableEntity), "m"), c.D.Quote("id"), c.D.Quote("member_id"),
		c.D.Quote("entity_id"), c.D.Quote("dimension"),
	)
	return fmt.Sprintf(
		"SELECT r.%s, r.%s, r.%s, %s AS %s, %s AS %s\nFROM %s\nGROUP BY r.%s, r.%s, r.%s\nORDER BY r.%s",
		c.D.Quote("id"), c.D.Quote("class_id"), c.D.Quote("name"),
		c.D.AggregateList(c.col("r", "member_id"), c.col("r", "dimension")),
		c.D.Quote("object_id_list"),
		c.D.AggregateList(c.col("r", "member_name"), c.col("r", "dimension")),
		c.D.Quote("object_name_list"),
		sub(inner, "r"),
		c.D.Quote("id"), c.D.Quote("class_id"), c.D.Quote("name"),
		c.D.Quote("id"),
	)
}

// ParameterDefinition compiles the parameter-definition view. The owning
// class id is dispatched into object_class_id or relationship_class_id on the
// class's type discriminator; the other column reads NULL.
func (c *Compiler) ParameterDefinition() string {
	return fmt.Sprintf(
		"SELECT pd.%s, pd.%s, pd.%s, pd.%s,\n\tCASE WHEN ec.%s = %d THEN pd.%s END AS %s,\n\tCASE WHEN ec.%s = %d THEN pd.%s END AS %s,\n\tpd.%s, pd.%s, pd.%s\nFROM %s\nJOIN %s ON ec.%s = pd.%s\nORDER BY pd.%s",
		c.D.Quote("id"), c.D.Quote("name"), c.D.Quote("description"),
		c.D.Quote("entity_class_id"),
		c.D.Quote("type_id"), schema.TypeObject,
		c.D.Quote("entity_class_id"), c.D.Quote("object_class_id"),
		c.D.Quote("type_id"), schema.TypeRelationship,
		c.D.Quote("entity_class_id"), c.D.Quote("relationship_class_id"),
		c.D.Quote("default_value"), c.D.Quote("default_type"), c.D.Quote("commit_id"),
		sub(c.Leg(schema.TableParameterDefinition), "pd"),
		sub(c.Leg(schema.TableEntityClass), "ec"), c.D.Quote("id"), c.D.Quote("entity_class_id"),
		c.D.Quote("id"),
	)
}

// ParameterValue compiles the parameter-value view with both the entity and
// the class dispatched on their type discriminators.
func (c *Compiler) ParameterValue() string {
	return fmt.Sprintf(
		"SELECT pv.%s, pv.%s, pv.%s, pv.%s,\n\tCASE WHEN e.%s = %d THEN pv.%s END AS %s,\n\tCASE WHEN e.%s = %d THEN pv.%s END AS %s,\n\tCASE WHEN ec.%s = %d THEN pv.%s END AS %s,\n\tCASE WHEN ec.%s = %d THEN pv.%s END AS %s,\n\tpv.%s, pv.%s, pv.%s, pv.%s\nFROM %s\nJOIN %s ON e.%s = pv.%s\nJOIN %s ON ec.%s = pv.%s\nORDER BY pv.%s",
		c.D.Quote("id"), c.D.Quote("parameter_definition_id"),
		c.D.Quote("entity_id"), c.D.Quote("entity_class_id"),
		c.D.Quote("type_id"), schema.TypeObject,
		c.D.Quote("entity_id"), c.D.Quote("object_id"),
		c.D.Quote("type_id"), schema.TypeRelationship,
		c.D.Quote("entity_id"), c.D.Quote("relationship_id"),
		c.D.Quote("type_id"), schema.TypeObject,
		c.D.Quote("entity_class_id"), c.D.Quote("object_class_id"),
		c.D.Quote("type_id"), schema.TypeRelationship,
		c.D.Quote("entity_class_id"), c.D.Quote("relationship_class_id"),
		c.D.Quote("value"), c.D.Quote("type"),
		c.D.Quote("alternative_id"), c.D.Quote("commit_id"),
		sub(c.Leg(schema.TableParameterValue), "pv"),
		sub(c.Leg(schema.TableEntity), "e"), c.D.Quote("id"), c.D.Quote("entity_id"),
		sub(c.Leg(schema.TableEntityClass), "ec"), c.D.Quote("id"), c.D.Quote("entity_class_id"),
		c.D.Quote("id"),
	)
}

// Alternative compiles the alternative view.
func (c *Compiler) Alternative() string {
	return fmt.Sprintf("SELECT %s\nFROM %s\nORDER BY a.%s",
		c.columnList("a", schema.TableAlternative),
		sub(c.Leg(schema.TableAlternative), "a"),
		c.D.Quote("id"),
	)
}

// Commit compiles the commit-catalog view. Commit rows are never staged, so
// this view reads canonical rows only.
func (c *Compiler) Commit() string {
	def := schema.TableCommit.Def()
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		c.columnList("", schema.TableCommit),
		c.D.Quote(def.Name),
		c.D.Quote("id"),
	)
}
