package stagedb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"stagedb/internal/dialect"
	"stagedb/internal/viewsql"
)

// runner abstracts where a view query executes: the shared pool for
// canonical reads on the store, the session connection for overlay reads.
type runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// viewReader bundles everything a view query needs: the dialect, the
// executor, and the compiler the SQL comes from.
type viewReader struct {
	d dialect.Dialect
	r runner
	c *viewsql.Compiler
}

func (s *Store) reader() viewReader {
	return viewReader{s.d, s.db, &viewsql.Compiler{D: s.d}}
}

func (s *Session) reader() viewReader {
	return viewReader{s.store.d, s.area.Conn(), s.area.Compiler()}
}

// Store reads return committed canonical rows only.

func (s *Store) Commits(ctx context.Context) ([]Commit, error) { return commits(ctx, s.reader()) }
func (s *Store) Alternatives(ctx context.Context) ([]Alternative, error) {
	return alternatives(ctx, s.reader())
}
func (s *Store) EntityClasses(ctx context.Context) ([]EntityClass, error) {
	return entityClasses(ctx, s.reader())
}
func (s *Store) Entities(ctx context.Context) ([]Entity, error) { return entities(ctx, s.reader()) }
func (s *Store) ObjectClasses(ctx context.Context) ([]ObjectClass, error) {
	return objectClasses(ctx, s.reader())
}
func (s *Store) Objects(ctx context.Context) ([]Object, error) { return objects(ctx, s.reader()) }
func (s *Store) RelationshipClasses(ctx context.Context) ([]RelationshipClass, error) {
	return relationshipClasses(ctx, s.reader())
}
func (s *Store) Relationships(ctx context.Context) ([]Relationship, error) {
	return relationships(ctx, s.reader())
}
func (s *Store) ParameterDefinitions(ctx context.Context) ([]ParameterDefinition, error) {
	return parameterDefinitions(ctx, s.reader())
}
func (s *Store) ParameterValues(ctx context.Context) ([]ParameterValue, error) {
	return parameterValues(ctx, s.reader())
}

// Session reads see every staged change of the session immediately.

func (s *Session) Commits(ctx context.Context) ([]Commit, error) { return commits(ctx, s.reader()) }
func (s *Session) Alternatives(ctx context.Context) ([]Alternative, error) {
	return alternatives(ctx, s.reader())
}
func (s *Session) EntityClasses(ctx context.Context) ([]EntityClass, error) {
	return entityClasses(ctx, s.reader())
}
func (s *Session) Entities(ctx context.Context) ([]Entity, error) { return entities(ctx, s.reader()) }
func (s *Session) ObjectClasses(ctx context.Context) ([]ObjectClass, error) {
	return objectClasses(ctx, s.reader())
}
func (s *Session) Objects(ctx context.Context) ([]Object, error) { return objects(ctx, s.reader()) }
func (s *Session) RelationshipClasses(ctx context.Context) ([]RelationshipClass, error) {
	return relationshipClasses(ctx, s.reader())
}
func (s *Session) Relationships(ctx context.Context) ([]Relationship, error) {
	return relationships(ctx, s.reader())
}
func (s *Session) ParameterDefinitions(ctx context.Context) ([]ParameterDefinition, error) {
	return parameterDefinitions(ctx, s.reader())
}
func (s *Session) ParameterValues(ctx context.Context) ([]ParameterValue, error) {
	return parameterValues(ctx, s.reader())
}

func commits(ctx context.Context, v viewReader) ([]Commit, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.Commit()))
	if err != nil {
		return nil, fmt.Errorf("query commits: %w", err)
	}
	defer rows.Close()
	var out []Commit
	for rows.Next() {
		var rec Commit
		if err := rows.Scan(&rec.ID, &rec.User, &rec.Date, &rec.Comment); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func alternatives(ctx context.Context, v viewReader) ([]Alternative, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.Alternative()))
	if err != nil {
		return nil, fmt.Errorf("query alternatives: %w", err)
	}
	defer rows.Close()
	var out []Alternative
	for rows.Next() {
		var (
			rec      Alternative
			desc     sql.NullString
			commitID sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &desc, &commitID); err != nil {
			return nil, err
		}
		rec.Description = desc.String
		rec.CommitID = commitID.Int64
		out = append(out, rec)
	}
	return out, rows.Err()
}

func entityClasses(ctx context.Context, v viewReader) ([]EntityClass, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.EntityClass()))
	if err != nil {
		return nil, fmt.Errorf("query entity classes: %w", err)
	}
	defer rows.Close()
	var out []EntityClass
	for rows.Next() {
		var (
			rec                 EntityClass
			desc                sql.NullString
			order, icon, commit sql.NullInt64
			hidden              int64
		)
		if err := rows.Scan(&rec.ID, &rec.TypeID, &rec.Name, &desc, &order, &icon, &hidden, &commit); err != nil {
			return nil, err
		}
		rec.Description = desc.String
		rec.CommitID = commit.Int64
		out = append(out, rec)
	}
	return out, rows.Err()
}

func entities(ctx context.Context, v viewReader) ([]Entity, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.Entity()))
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()
	var out []Entity
	for rows.Next() {
		var (
			rec    Entity
			desc   sql.NullString
			commit sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.TypeID, &rec.ClassID, &rec.Name, &desc, &commit); err != nil {
			return nil, err
		}
		rec.Description = desc.String
		rec.CommitID = commit.Int64
		out = append(out, rec)
	}
	return out, rows.Err()
}

func objectClasses(ctx context.Context, v viewReader) ([]ObjectClass, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.ObjectClass()))
	if err != nil {
		return nil, fmt.Errorf("query object classes: %w", err)
	}
	defer rows.Close()
	var out []ObjectClass
	for rows.Next() {
		var (
			rec          ObjectClass
			desc         sql.NullString
			icon, commit sql.NullInt64
			hidden       int64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &desc, &rec.DisplayOrder, &icon, &hidden, &commit); err != nil {
			return nil, err
		}
		rec.Description = desc.String
		rec.Hidden = hidden != 0
		rec.CommitID = commit.Int64
		out = append(out, rec)
	}
	return out, rows.Err()
}

func objects(ctx context.Context, v viewReader) ([]Object, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.Object()))
	if err != nil {
		return nil, fmt.Errorf("query objects: %w", err)
	}
	defer rows.Close()
	var out []Object
	for rows.Next() {
		var (
			rec    Object
			desc   sql.NullString
			commit sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.ClassID, &rec.Name, &desc, &commit); err != nil {
			return nil, err
		}
		rec.Description = desc.String
		rec.CommitID = commit.Int64
		out = append(out, rec)
	}
	return out, rows.Err()
}

func relationshipClasses(ctx context.Context, v viewReader) ([]RelationshipClass, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.WideRelationshipClass()))
	if err != nil {
		return nil, fmt.Errorf("query relationship classes: %w", err)
	}
	defer rows.Close()
	var out []RelationshipClass
	for rows.Next() {
		var (
			rec           RelationshipClass
			idList, names string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &idList, &names); err != nil {
			return nil, err
		}
		ids, err := splitIDList(idList)
		if err != nil {
			return nil, fmt.Errorf("relationship class %d member list: %w", rec.ID, err)
		}
		rec.MemberClassIDs = ids
		rec.MemberClassNames = strings.Split(names, ",")
		out = append(out, rec)
	}
	return out, rows.Err()
}

func relationships(ctx context.Context, v viewReader) ([]Relationship, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.WideRelationship()))
	if err != nil {
		return nil, fmt.Errorf("query relationships: %w", err)
	}
	defer rows.Close()
	var out []Relationship
	for rows.Next() {
		var (
			rec           Relationship
			idList, names string
		)
		if err := rows.Scan(&rec.ID, &rec.ClassID, &rec.Name, &idList, &names); err != nil {
			return nil, err
		}
		ids, err := splitIDList(idList)
		if err != nil {
			return nil, fmt.Errorf("relationship %d member list: %w", rec.ID, err)
		}
		rec.MemberIDs = ids
		rec.MemberNames = strings.Split(names, ",")
		out = append(out, rec)
	}
	return out, rows.Err()
}

func parameterDefinitions(ctx context.Context, v viewReader) ([]ParameterDefinition, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.ParameterDefinition()))
	if err != nil {
		return nil, fmt.Errorf("query parameter definitions: %w", err)
	}
	defer rows.Close()
	var out []ParameterDefinition
	for rows.Next() {
		var (
			rec            ParameterDefinition
			desc, defType  sql.NullString
			objCls, relCls sql.NullInt64
			commit         sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &desc, &rec.ClassID, &objCls, &relCls,
			&rec.DefaultValue, &defType, &commit); err != nil {
			return nil, err
		}
		rec.Description = desc.String
		rec.DefaultType = defType.String
		rec.ObjectClassID = nullInt(objCls)
		rec.RelationshipClassID = nullInt(relCls)
		rec.CommitID = commit.Int64
		out = append(out, rec)
	}
	return out, rows.Err()
}

func parameterValues(ctx context.Context, v viewReader) ([]ParameterValue, error) {
	rows, err := v.r.QueryContext(ctx, v.d.Rebind(v.c.ParameterValue()))
	if err != nil {
		return nil, fmt.Errorf("query parameter values: %w", err)
	}
	defer rows.Close()
	var out []ParameterValue
	for rows.Next() {
		var (
			rec                          ParameterValue
			valType                      sql.NullString
			objID, relID, objCls, relCls sql.NullInt64
			commit                       sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.DefinitionID, &rec.EntityID, &rec.ClassID,
			&objID, &relID, &objCls, &relCls,
			&rec.Value, &valType, &rec.AlternativeID, &commit); err != nil {
			return nil, err
		}
		rec.Type = valType.String
		rec.ObjectID = nullInt(objID)
		rec.RelationshipID = nullInt(relID)
		rec.ObjectClassID = nullInt(objCls)
		rec.RelationshipClassID = nullInt(relCls)
		rec.CommitID = commit.Int64
		out = append(out, rec)
	}
	return out, rows.Err()
}

func splitIDList(list string) ([]int64, error) {
	parts := strings.Split(list, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
