package stagedb

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"stagedb/internal/schema"
	"stagedb/internal/staging"
)

// Session is one staging session: a dedicated connection, a set of shadow
// tables and the id bookkeeping overlaying the canonical store. Reads on the
// session see every staged change immediately; reads on other sessions never
// do. Sessions are not safe for concurrent use.
type Session struct {
	store *Store
	area  *staging.Area
	log   *zap.Logger
}

// Close releases the session connection and its shadow tables. Uncommitted
// changes are lost.
func (s *Session) Close() error { return s.area.Close() }

// HasPendingChanges reports whether anything is staged.
func (s *Session) HasPendingChanges() bool { return s.area.HasPendingChanges() }

// Commit materializes all staged changes atomically and returns the commit
// id. Fails with *UsageError on a clean session and *CommitError when the
// physical merge fails; in the latter case staging is preserved for retry.
func (s *Session) Commit(ctx context.Context, comment string) (int64, error) {
	return s.area.Commit(ctx, comment)
}

// Rollback discards all staged changes. Fails with *UsageError on a clean
// session.
func (s *Session) Rollback(ctx context.Context) error {
	return s.area.Rollback(ctx)
}

// reject routes one integrity violation: returned as the batch error in
// strict mode, collected otherwise.
func (s *Session) reject(errs *[]IntegrityError, e *IntegrityError) error {
	if s.store.strict {
		return e
	}
	*errs = append(*errs, *e)
	return nil
}

// AddAlternatives stages new alternatives.
func (s *Session) AddAlternatives(ctx context.Context, inputs ...AlternativeInput) ([]int64, []IntegrityError, error) {
	items := make([]staging.Item, len(inputs))
	for i, in := range inputs {
		items[i] = staging.Item{"name": in.Name, "description": in.Description}
	}
	return s.area.Add(ctx, schema.TableAlternative, items)
}

// AddObjectClasses stages new object classes.
func (s *Session) AddObjectClasses(ctx context.Context, inputs ...ObjectClassInput) ([]int64, []IntegrityError, error) {
	items := make([]staging.Item, len(inputs))
	for i, in := range inputs {
		items[i] = staging.Item{
			"type_id":       schema.TypeObject,
			"name":          in.Name,
			"description":   in.Description,
			"display_order": in.DisplayOrder,
			"hidden":        boolInt(in.Hidden),
		}
	}
	ids, errs, err := s.area.Add(ctx, schema.TableEntityClass, items)
	if err != nil {
		return ids, errs, err
	}
	for _, id := range ids {
		_, err := s.area.Readd(ctx, schema.TableObjectClass, []staging.Item{{
			"entity_class_id": id,
			"type_id":         schema.TypeObject,
		}})
		if err != nil {
			return ids, errs, err
		}
	}
	return ids, errs, nil
}

// AddRelationshipClasses stages new relationship classes with their member
// dimensions. Member order is preserved exactly as given.
func (s *Session) AddRelationshipClasses(ctx context.Context, inputs ...RelationshipClassInput) ([]int64, []IntegrityError, error) {
	type pending struct {
		in          RelationshipClassInput
		item        staging.Item
		memberTypes []int64
	}
	var (
		valid []pending
		errs  []IntegrityError
		seen  = map[string]struct{}{}
	)
	for _, in := range inputs {
		if len(in.MemberClassIDs) == 0 {
			e := &IntegrityError{Table: schema.TableEntityClass, Field: "member_class_ids",
				Reason: "relationship class needs at least one dimension"}
			if err := s.reject(&errs, e); err != nil {
				return nil, nil, err
			}
			continue
		}
		item := staging.Item{
			"type_id":       schema.TypeRelationship,
			"name":          in.Name,
			"description":   in.Description,
			"display_order": int64(99),
			"hidden":        int64(0),
		}
		viol, err := s.area.Validate(ctx, schema.TableEntityClass, item, seen)
		if err != nil {
			return nil, nil, err
		}
		if viol != nil {
			if err := s.reject(&errs, viol); err != nil {
				return nil, nil, err
			}
			continue
		}
		types := make([]int64, 0, len(in.MemberClassIDs))
		for _, mc := range in.MemberClassIDs {
			tid, ok, err := s.classTypeID(ctx, mc)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				viol = &IntegrityError{Table: schema.TableRelationshipEntityClass, Field: "member_class_id",
					Reason: fmt.Sprintf("no entity class with id %d", mc)}
				break
			}
			types = append(types, tid)
		}
		if viol != nil {
			if err := s.reject(&errs, viol); err != nil {
				return nil, nil, err
			}
			continue
		}
		valid = append(valid, pending{in: in, item: item, memberTypes: types})
	}
	if len(valid) == 0 {
		return nil, errs, nil
	}
	first, err := s.area.AllocateIDs(ctx, schema.FamilyEntityClass, len(valid))
	if err != nil {
		return nil, errs, err
	}
	ids := make([]int64, 0, len(valid))
	for i, p := range valid {
		id := first + int64(i)
		p.item["id"] = id
		if _, err := s.area.Readd(ctx, schema.TableEntityClass, []staging.Item{p.item}); err != nil {
			return ids, errs, err
		}
		if _, err := s.area.Readd(ctx, schema.TableRelationshipClass, []staging.Item{{
			"entity_class_id": id,
			"type_id":         schema.TypeRelationship,
		}}); err != nil {
			return ids, errs, err
		}
		members := make([]staging.Item, len(p.in.MemberClassIDs))
		for d, mc := range p.in.MemberClassIDs {
			members[d] = staging.Item{
				"entity_class_id":      id,
				"dimension":            int64(d),
				"member_class_id":      mc,
				"member_class_type_id": p.memberTypes[d],
			}
		}
		if _, err := s.area.Readd(ctx, schema.TableRelationshipEntityClass, members); err != nil {
			return ids, errs, err
		}
		ids = append(ids, id)
	}
	return ids, errs, nil
}

// AddObjects stages new objects.
func (s *Session) AddObjects(ctx context.Context, inputs ...ObjectInput) ([]int64, []IntegrityError, error) {
	var (
		items []staging.Item
		errs  []IntegrityError
	)
	for _, in := range inputs {
		tid, ok, err := s.classTypeID(ctx, in.ClassID)
		if err != nil {
			return nil, nil, err
		}
		if !ok || tid != schema.TypeObject {
			e := &IntegrityError{Table: schema.TableEntity, Field: "class_id",
				Reason: fmt.Sprintf("no object class with id %d", in.ClassID)}
			if err := s.reject(&errs, e); err != nil {
				return nil, nil, err
			}
			continue
		}
		items = append(items, staging.Item{
			"type_id":     schema.TypeObject,
			"class_id":    in.ClassID,
			"name":        in.Name,
			"description": in.Description,
		})
	}
	ids, addErrs, err := s.area.Add(ctx, schema.TableEntity, items)
	errs = append(errs, addErrs...)
	if err != nil {
		return ids, errs, err
	}
	for _, id := range ids {
		_, err := s.area.Readd(ctx, schema.TableObject, []staging.Item{{
			"entity_id": id,
			"type_id":   schema.TypeObject,
		}})
		if err != nil {
			return ids, errs, err
		}
	}
	return ids, errs, nil
}

// AddRelationships stages new relationships. Each member must belong to the
// class declared at its dimension, and the member count must match the
// class's dimension count.
func (s *Session) AddRelationships(ctx context.Context, inputs ...RelationshipInput) ([]int64, []IntegrityError, error) {
	type pending struct {
		in            RelationshipInput
		item          staging.Item
		memberClasses []int64
	}
	var (
		valid []pending
		errs  []IntegrityError
		seen  = map[string]struct{}{}
	)
	for _, in := range inputs {
		tid, ok, err := s.classTypeID(ctx, in.ClassID)
		if err != nil {
			return nil, nil, err
		}
		if !ok || tid != schema.TypeRelationship {
			e := &IntegrityError{Table: schema.TableEntity, Field: "class_id",
				Reason: fmt.Sprintf("no relationship class with id %d", in.ClassID)}
			if err := s.reject(&errs, e); err != nil {
				return nil, nil, err
			}
			continue
		}
		expected, err := s.memberClasses(ctx, in.ClassID)
		if err != nil {
			return nil, nil, err
		}
		viol := s.checkMembers(ctx, in.MemberIDs, expected)
		if viol != nil {
			if err := s.reject(&errs, viol); err != nil {
				return nil, nil, err
			}
			continue
		}
		item := staging.Item{
			"type_id":     schema.TypeRelationship,
			"class_id":    in.ClassID,
			"name":        in.Name,
			"description": nil,
		}
		v, err := s.area.Validate(ctx, schema.TableEntity, item, seen)
		if err != nil {
			return nil, nil, err
		}
		if v != nil {
			if err := s.reject(&errs, v); err != nil {
				return nil, nil, err
			}
			continue
		}
		valid = append(valid, pending{in: in, item: item, memberClasses: expected})
	}
	if len(valid) == 0 {
		return nil, errs, nil
	}
	first, err := s.area.AllocateIDs(ctx, schema.FamilyEntity, len(valid))
	if err != nil {
		return nil, errs, err
	}
	ids := make([]int64, 0, len(valid))
	for i, p := range valid {
		id := first + int64(i)
		p.item["id"] = id
		if _, err := s.area.Readd(ctx, schema.TableEntity, []staging.Item{p.item}); err != nil {
			return ids, errs, err
		}
		if _, err := s.area.Readd(ctx, schema.TableRelationship, []staging.Item{{
			"entity_id":       id,
			"entity_class_id": p.in.ClassID,
			"type_id":         schema.TypeRelationship,
		}}); err != nil {
			return ids, errs, err
		}
		members := make([]staging.Item, len(p.in.MemberIDs))
		for d, m := range p.in.MemberIDs {
			members[d] = staging.Item{
				"entity_id":       id,
				"entity_class_id": p.in.ClassID,
				"dimension":       int64(d),
				"member_id":       m,
				"member_class_id": p.memberClasses[d],
			}
		}
		if _, err := s.area.Readd(ctx, schema.TableRelationshipEntity, members); err != nil {
			return ids, errs, err
		}
		ids = append(ids, id)
	}
	return ids, errs, nil
}

// checkMembers verifies count and per-dimension class agreement for a
// relationship's member list.
func (s *Session) checkMembers(ctx context.Context, memberIDs, expected []int64) *IntegrityError {
	if len(memberIDs) != len(expected) {
		return &IntegrityError{Table: schema.TableRelationshipEntity, Field: "member_ids",
			Reason: fmt.Sprintf("got %d members, class declares %d dimensions", len(memberIDs), len(expected))}
	}
	for d, m := range memberIDs {
		classID, ok, err := s.entityClassID(ctx, m)
		if err != nil || !ok {
			return &IntegrityError{Table: schema.TableRelationshipEntity, Field: "member_id",
				Reason: fmt.Sprintf("no entity with id %d", m)}
		}
		if classID != expected[d] {
			return &IntegrityError{Table: schema.TableRelationshipEntity, Field: "member_id",
				Reason: fmt.Sprintf("entity %d is not of class %d declared at dimension %d", m, expected[d], d)}
		}
	}
	return nil
}

// AddParameterDefinitions stages new parameter definitions.
func (s *Session) AddParameterDefinitions(ctx context.Context, inputs ...ParameterDefinitionInput) ([]int64, []IntegrityError, error) {
	items := make([]staging.Item, len(inputs))
	for i, in := range inputs {
		items[i] = staging.Item{
			"name":            in.Name,
			"description":     in.Description,
			"entity_class_id": in.ClassID,
			"default_value":   in.DefaultValue,
			"default_type":    nullable(in.DefaultType),
		}
	}
	return s.area.Add(ctx, schema.TableParameterDefinition, items)
}

// AddParameterValues stages new parameter values. The owning class is
// derived from the entity and must match the definition's class.
func (s *Session) AddParameterValues(ctx context.Context, inputs ...ParameterValueInput) ([]int64, []IntegrityError, error) {
	var (
		items []staging.Item
		errs  []IntegrityError
	)
	for _, in := range inputs {
		classID, ok, err := s.entityClassID(ctx, in.EntityID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			e := &IntegrityError{Table: schema.TableParameterValue, Field: "entity_id",
				Reason: fmt.Sprintf("no entity with id %d", in.EntityID)}
			if err := s.reject(&errs, e); err != nil {
				return nil, nil, err
			}
			continue
		}
		defClass, ok, err := s.definitionClassID(ctx, in.DefinitionID)
		if err != nil {
			return nil, nil, err
		}
		if !ok || defClass != classID {
			e := &IntegrityError{Table: schema.TableParameterValue, Field: "parameter_definition_id",
				Reason: fmt.Sprintf("definition %d is not scoped to the entity's class", in.DefinitionID)}
			if err := s.reject(&errs, e); err != nil {
				return nil, nil, err
			}
			continue
		}
		alt := in.AlternativeID
		if alt == 0 {
			alt = schema.BaseAlternativeID
		}
		items = append(items, staging.Item{
			"parameter_definition_id": in.DefinitionID,
			"entity_id":               in.EntityID,
			"entity_class_id":         classID,
			"value":                   in.Value,
			"type":                    nullable(in.Type),
			"alternative_id":          alt,
		})
	}
	ids, addErrs, err := s.area.Add(ctx, schema.TableParameterValue, items)
	return ids, append(errs, addErrs...), err
}

// UpdateEntityClasses stages renames and redescriptions for classes of
// either type. Unknown ids are no-ops.
func (s *Session) UpdateEntityClasses(ctx context.Context, ups ...EntityClassUpdate) ([]int64, error) {
	return s.area.Update(ctx, schema.TableEntityClass, nameDescItems(schema.TableEntityClass, ups, func(u EntityClassUpdate) (int64, *string, *string) {
		return u.ID, u.Name, u.Description
	}))
}

// UpdateEntities stages renames and redescriptions for entities of either
// type. Unknown ids are no-ops.
func (s *Session) UpdateEntities(ctx context.Context, ups ...EntityUpdate) ([]int64, error) {
	return s.area.Update(ctx, schema.TableEntity, nameDescItems(schema.TableEntity, ups, func(u EntityUpdate) (int64, *string, *string) {
		return u.ID, u.Name, u.Description
	}))
}

// UpdateAlternatives stages renames and redescriptions for alternatives.
func (s *Session) UpdateAlternatives(ctx context.Context, ups ...AlternativeUpdate) ([]int64, error) {
	return s.area.Update(ctx, schema.TableAlternative, nameDescItems(schema.TableAlternative, ups, func(u AlternativeUpdate) (int64, *string, *string) {
		return u.ID, u.Name, u.Description
	}))
}

// UpdateParameterDefinitions stages overrides on definitions.
func (s *Session) UpdateParameterDefinitions(ctx context.Context, ups ...ParameterDefinitionUpdate) ([]int64, error) {
	items := make([]staging.Item, 0, len(ups))
	for _, u := range ups {
		item := staging.Item{"id": u.ID}
		if u.Name != nil {
			item["name"] = *u.Name
		}
		if u.Description != nil {
			item["description"] = *u.Description
		}
		if u.DefaultValue != nil {
			item["default_value"] = *u.DefaultValue
		}
		if u.DefaultType != nil {
			item["default_type"] = *u.DefaultType
		}
		items = append(items, item)
	}
	return s.area.Update(ctx, schema.TableParameterDefinition, items)
}

// UpdateParameterValues stages overrides on stored value pairs.
func (s *Session) UpdateParameterValues(ctx context.Context, ups ...ParameterValueUpdate) ([]int64, error) {
	items := make([]staging.Item, 0, len(ups))
	for _, u := range ups {
		item := staging.Item{"id": u.ID}
		if u.Value != nil {
			item["value"] = *u.Value
		}
		if u.Type != nil {
			item["type"] = *u.Type
		}
		items = append(items, item)
	}
	return s.area.Update(ctx, schema.TableParameterValue, items)
}

// UpdateRelationshipMember stages a member substitution at one dimension of
// a relationship. The new member must belong to the class declared at that
// dimension.
func (s *Session) UpdateRelationshipMember(ctx context.Context, relationshipID int64, dimension int, memberID int64) error {
	classID, ok, err := s.entityClassID(ctx, relationshipID)
	if err != nil {
		return err
	}
	if !ok {
		return &IntegrityError{Table: schema.TableRelationshipEntity, Field: "entity_id",
			Reason: fmt.Sprintf("no relationship with id %d", relationshipID)}
	}
	expected, err := s.memberClasses(ctx, classID)
	if err != nil {
		return err
	}
	if dimension < 0 || dimension >= len(expected) {
		return &IntegrityError{Table: schema.TableRelationshipEntity, Field: "dimension",
			Reason: fmt.Sprintf("class %d has no dimension %d", classID, dimension)}
	}
	memberClass, ok, err := s.entityClassID(ctx, memberID)
	if err != nil {
		return err
	}
	if !ok || memberClass != expected[dimension] {
		return &IntegrityError{Table: schema.TableRelationshipEntity, Field: "member_id",
			Reason: fmt.Sprintf("entity %d is not of class %d declared at dimension %d", memberID, expected[dimension], dimension)}
	}
	_, err = s.area.Update(ctx, schema.TableRelationshipEntity, []staging.Item{{
		"entity_id":       relationshipID,
		"dimension":       int64(dimension),
		"member_id":       memberID,
		"member_class_id": memberClass,
	}})
	return err
}

// RemoveEntityClasses stages removal of classes of either type with full
// cascade: their entities, relationship classes listing them as a member at
// any dimension, and parameter definitions scoped to them all go too.
func (s *Session) RemoveEntityClasses(ctx context.Context, ids ...int64) error {
	return s.area.Remove(ctx, schema.TableEntityClass, ids)
}

// RemoveObjectClasses is RemoveEntityClasses under the object-side name.
func (s *Session) RemoveObjectClasses(ctx context.Context, ids ...int64) error {
	return s.RemoveEntityClasses(ctx, ids...)
}

// RemoveRelationshipClasses is RemoveEntityClasses under the
// relationship-side name.
func (s *Session) RemoveRelationshipClasses(ctx context.Context, ids ...int64) error {
	return s.RemoveEntityClasses(ctx, ids...)
}

// RemoveEntities stages removal of entities of either type with cascade to
// relationships including them and parameter values scoped to them.
func (s *Session) RemoveEntities(ctx context.Context, ids ...int64) error {
	return s.area.Remove(ctx, schema.TableEntity, ids)
}

// RemoveObjects is RemoveEntities under the object-side name.
func (s *Session) RemoveObjects(ctx context.Context, ids ...int64) error {
	return s.RemoveEntities(ctx, ids...)
}

// RemoveRelationships is RemoveEntities under the relationship-side name.
func (s *Session) RemoveRelationships(ctx context.Context, ids ...int64) error {
	return s.RemoveEntities(ctx, ids...)
}

// RemoveParameterDefinitions stages removal of definitions and their values.
func (s *Session) RemoveParameterDefinitions(ctx context.Context, ids ...int64) error {
	return s.area.Remove(ctx, schema.TableParameterDefinition, ids)
}

// RemoveParameterValues stages removal of values.
func (s *Session) RemoveParameterValues(ctx context.Context, ids ...int64) error {
	return s.area.Remove(ctx, schema.TableParameterValue, ids)
}

// RemoveAlternatives stages removal of alternatives and the values scoped to
// them.
func (s *Session) RemoveAlternatives(ctx context.Context, ids ...int64) error {
	return s.area.Remove(ctx, schema.TableAlternative, ids)
}

// classTypeID resolves the type discriminator of a class through the
// session's logical view.
func (s *Session) classTypeID(ctx context.Context, classID int64) (int64, bool, error) {
	return s.lookupID(ctx, schema.TableEntityClass, "type_id", "id", classID)
}

// entityClassID resolves an entity's class through the logical view.
func (s *Session) entityClassID(ctx context.Context, entityID int64) (int64, bool, error) {
	return s.lookupID(ctx, schema.TableEntity, "class_id", "id", entityID)
}

// definitionClassID resolves a parameter definition's owning class.
func (s *Session) definitionClassID(ctx context.Context, defID int64) (int64, bool, error) {
	return s.lookupID(ctx, schema.TableParameterDefinition, "entity_class_id", "id", defID)
}

func (s *Session) lookupID(ctx context.Context, t schema.Table, col, idCol string, id int64) (int64, bool, error) {
	d := s.store.d
	q := fmt.Sprintf("SELECT v.%s FROM (\n%s\n) AS v WHERE v.%s = ?",
		d.Quote(col), s.area.Compiler().Leg(t), d.Quote(idCol))
	var out int64
	err := s.area.Conn().QueryRowContext(ctx, d.Rebind(q), id).Scan(&out)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup %s.%s: %w", t, col, err)
	}
	return out, true, nil
}

// memberClasses returns the declared member class ids of a relationship
// class in dimension order, read through the logical view.
func (s *Session) memberClasses(ctx context.Context, classID int64) ([]int64, error) {
	d := s.store.d
	leg := s.area.Compiler().Leg(schema.TableRelationshipEntityClass)
	q := fmt.Sprintf("SELECT v.%s FROM (\n%s\n) AS v WHERE v.%s = ? ORDER BY v.%s",
		d.Quote("member_class_id"), leg, d.Quote("entity_class_id"), d.Quote("dimension"))
	rows, err := s.area.Conn().QueryContext(ctx, d.Rebind(q), classID)
	if err != nil {
		return nil, fmt.Errorf("member classes of %d: %w", classID, err)
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func nameDescItems[T any](t schema.Table, ups []T, get func(T) (int64, *string, *string)) []staging.Item {
	items := make([]staging.Item, 0, len(ups))
	for _, u := range ups {
		id, name, desc := get(u)
		item := staging.Item{t.Def().IDColumn: id}
		if name != nil {
			item["name"] = *name
		}
		if desc != nil {
			item["description"] = *desc
		}
		items = append(items, item)
	}
	return items
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
