package staging

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"stagedb/internal/schema"
)

// checkRule declares the integrity constraints staged adds are validated
// against. Validation runs on the current logical view, so a name freed by a
// staged remove is available again within the same session.
type checkRule struct {
	required []string   // columns that must be present and non-empty
	unique   [][]string // column groups unique in the logical view
	refs     []refRule  // columns that must resolve in another view
}

type refRule struct {
	col    string
	target schema.Table
}

var checkRules = map[schema.Table]checkRule{
	schema.TableAlternative: {
		required: []string{"name"},
		unique:   [][]string{{"name"}},
	},
	schema.TableEntityClass: {
		required: []string{"name"},
		unique:   [][]string{{"name"}},
	},
	schema.TableEntity: {
		required: []string{"name"},
		unique:   [][]string{{"class_id", "name"}},
		refs:     []refRule{{"class_id", schema.TableEntityClass}},
	},
	schema.TableParameterDefinition: {
		required: []string{"name"},
		unique:   [][]string{{"entity_class_id", "name"}},
		refs:     []refRule{{"entity_class_id", schema.TableEntityClass}},
	},
	schema.TableParameterValue: {
		unique: [][]string{{"parameter_definition_id", "entity_id", "alternative_id"}},
		refs: []refRule{
			{"parameter_definition_id", schema.TableParameterDefinition},
			{"entity_id", schema.TableEntity},
			{"alternative_id", schema.TableAlternative},
		},
	},
}

// normalizeItem NFC-normalizes name columns so uniqueness compares and
// stored values agree on one canonical form.
func normalizeItem(item Item) {
	if v, ok := item["name"].(string); ok {
		item["name"] = norm.NFC.String(v)
	}
}

// checkItem validates one item against the logical view and the batch seen
// so far. seen deduplicates unique tuples within one batch.
func (a *Area) checkItem(ctx context.Context, t schema.Table, item Item, seen map[string]struct{}) (*IntegrityError, error) {
	rule := checkRules[t]
	for _, col := range rule.required {
		v, ok := item[col]
		if !ok || v == nil || v == "" {
			return &IntegrityError{Table: t, Field: col, Reason: "missing required value"}, nil
		}
	}
	for _, ref := range rule.refs {
		id, ok := asID(item[ref.col])
		if !ok {
			return &IntegrityError{Table: t, Field: ref.col, Reason: "missing reference"}, nil
		}
		found, err := a.exists(ctx, ref.target, []string{ref.target.Def().IDColumn}, []any{id})
		if err != nil {
			return nil, fmt.Errorf("staging: check %s reference: %w", ref.col, err)
		}
		if !found {
			return &IntegrityError{Table: t, Field: ref.col,
				Reason: fmt.Sprintf("no %s with id %d", ref.target, id)}, nil
		}
	}
	for _, group := range rule.unique {
		vals := make([]any, len(group))
		keys := make([]string, len(group))
		for i, col := range group {
			vals[i] = item[col]
			keys[i] = fmt.Sprint(item[col])
		}
		key := t.Name() + "\x1f" + strings.Join(keys, "\x1f")
		if _, dup := seen[key]; dup {
			return &IntegrityError{Table: t, Field: strings.Join(group, ","),
				Reason: "duplicate within batch"}, nil
		}
		found, err := a.exists(ctx, t, group, vals)
		if err != nil {
			return nil, fmt.Errorf("staging: check uniqueness: %w", err)
		}
		if found {
			return &IntegrityError{Table: t, Field: strings.Join(group, ","),
				Reason: "value already taken"}, nil
		}
		seen[key] = struct{}{}
	}
	return nil, nil
}

// Validate runs the declared integrity checks for one item without staging
// it. Callers composing multi-table concepts through Readd validate here
// first; seen carries batch-local uniqueness state between calls and may be
// shared across items of one batch.
func (a *Area) Validate(ctx context.Context, t schema.Table, item Item, seen map[string]struct{}) (*IntegrityError, error) {
	normalizeItem(item)
	return a.checkItem(ctx, t, item, seen)
}

// asID coerces the integer shapes an Item can carry into an id.
func asID(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}
