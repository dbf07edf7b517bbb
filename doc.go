// Package stagedb is a normalized entity-relationship store with a staging
// layer. Entities and entity classes live in generalized supertype tables
// discriminated into object and relationship specializations; virtual views
// reconstruct the type-specific and wide shapes at read time.
//
// All mutation goes through a Session. A session accumulates adds, updates
// and removes in connection-scoped shadow tables, sees them reflected in
// every read immediately, and either materializes them into the canonical
// tables atomically with Commit or discards them with Rollback. Sessions on
// the same store never see each other's uncommitted changes.
package stagedb
