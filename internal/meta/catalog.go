package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DefaultTenant is the tenant used when no tenant is configured.
const DefaultTenant = "default"

// Catalog lookup errors. Callers branch on these for IF EXISTS handling.
var (
	ErrDatabaseExists   = errors.New("database already exists")
	ErrDatabaseNotFound = errors.New("database not found")
	ErrTableExists      = errors.New("table already exists")
	ErrTableNotFound    = errors.New("table not found")
	ErrViewExists       = errors.New("view already exists")
	ErrViewNotFound     = errors.New("view not found")
)

// DatabaseMeta is the stored metadata of a database.
type DatabaseMeta struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ColumnMeta is one column of a table schema. Type uses surface syntax
// (e.g. "Array(Int8 NULL)") so it round-trips through types.Parse.
type ColumnMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TableMeta is the stored metadata of a table.
type TableMeta struct {
	ID        uint64       `json:"id"`
	Name      string       `json:"name"`
	Database  string       `json:"database"`
	Columns   []ColumnMeta `json:"columns"`
	CreatedAt time.Time    `json:"created_at"`
}

// ViewMeta is the stored metadata of a view. Definition is the formatted
// SELECT the view expands to.
type ViewMeta struct {
	Name       string    `json:"name"`
	Database   string    `json:"database"`
	Definition string    `json:"definition"`
	CreatedAt  time.Time `json:"created_at"`
}

// Catalog exposes database/table/view operations for one tenant on top of
// the KV store. Name lookups go through name keys holding ids; metadata
// lives under id keys, mirroring the two-level key scheme of the key space.
type Catalog struct {
	kv     *SQLiteKV
	tenant string
	now    func() time.Time
}

// NewCatalog creates a catalog for the given tenant.
func NewCatalog(kv *SQLiteKV, tenant string) *Catalog {
	return &Catalog{kv: kv, tenant: tenant, now: time.Now}
}

// === Databases ===

// CreateDatabase creates a database. With ifNotExists, an existing database
// is not an error.
func (c *Catalog) CreateDatabase(ctx context.Context, name string, ifNotExists bool) error {
	nameKey := DatabaseNameKey{Tenant: c.tenant, Database: name}.String()

	existing, err := c.kv.GetKV(ctx, nameKey)
	if err != nil {
		return err
	}
	if existing != nil {
		if ifNotExists {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrDatabaseExists, name)
	}

	id, err := c.kv.NextID(ctx)
	if err != nil {
		return err
	}
	dbMeta := DatabaseMeta{ID: id, Name: name, CreatedAt: c.now().UTC()}
	data, err := json.Marshal(dbMeta)
	if err != nil {
		return fmt.Errorf("marshal database meta: %w", err)
	}

	// Create-only write on the name key: a concurrent create loses here.
	if _, _, err := c.kv.UpsertKV(ctx, nameKey, MatchExact(0), encodeID(id)); err != nil {
		if errors.Is(err, ErrSeqMismatch) {
			if ifNotExists {
				return nil
			}
			return fmt.Errorf("%w: %s", ErrDatabaseExists, name)
		}
		return err
	}
	_, _, err = c.kv.UpsertKV(ctx, DatabaseIDKey{ID: id}.String(), MatchAny(), data)
	return err
}

// DropDatabase removes a database and everything in it.
func (c *Catalog) DropDatabase(ctx context.Context, name string, ifExists bool) error {
	dbMeta, err := c.GetDatabase(ctx, name)
	if err != nil {
		if errors.Is(err, ErrDatabaseNotFound) && ifExists {
			return nil
		}
		return err
	}

	// Drop contained tables and views first.
	tables, err := c.ListTables(ctx, name)
	if err != nil {
		return err
	}
	for _, t := range tables {
		if err := c.DropTable(ctx, name, t.Name, false); err != nil {
			return err
		}
	}
	views, err := c.ListViews(ctx, name)
	if err != nil {
		return err
	}
	for _, v := range views {
		if err := c.DropView(ctx, name, v.Name, false); err != nil {
			return err
		}
	}

	if _, _, err := c.kv.UpsertKV(ctx, DatabaseIDKey{ID: dbMeta.ID}.String(), MatchAny(), nil); err != nil {
		return err
	}
	nameKey := DatabaseNameKey{Tenant: c.tenant, Database: name}.String()
	_, _, err = c.kv.UpsertKV(ctx, nameKey, MatchAny(), nil)
	return err
}

// GetDatabase looks a database up by name.
func (c *Catalog) GetDatabase(ctx context.Context, name string) (*DatabaseMeta, error) {
	nameKey := DatabaseNameKey{Tenant: c.tenant, Database: name}.String()
	sv, err := c.kv.GetKV(ctx, nameKey)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, name)
	}
	id, err := decodeIDValue(sv.Data)
	if err != nil {
		return nil, err
	}

	meta, err := c.kv.GetKV(ctx, DatabaseIDKey{ID: id}.String())
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s (dangling id %d)", ErrDatabaseNotFound, name, id)
	}
	var dbMeta DatabaseMeta
	if err := json.Unmarshal(meta.Data, &dbMeta); err != nil {
		return nil, fmt.Errorf("unmarshal database meta: %w", err)
	}
	return &dbMeta, nil
}

// ListDatabases returns all databases of the tenant, name-ordered.
func (c *Catalog) ListDatabases(ctx context.Context) ([]DatabaseMeta, error) {
	prefix := joinKey(PrefixDatabase, c.tenant) + "/"
	keys, _, err := c.kv.PrefixListKV(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]DatabaseMeta, 0, len(keys))
	for _, k := range keys {
		nameKey, err := ParseDatabaseNameKey(k)
		if err != nil {
			return nil, err
		}
		dbMeta, err := c.GetDatabase(ctx, nameKey.Database)
		if err != nil {
			return nil, err
		}
		out = append(out, *dbMeta)
	}
	return out, nil
}

// === Tables ===

// CreateTable creates a table in the named database.
func (c *Catalog) CreateTable(ctx context.Context, database, table string, columns []ColumnMeta, ifNotExists bool) error {
	dbMeta, err := c.GetDatabase(ctx, database)
	if err != nil {
		return err
	}

	nameKey := TableNameKey{DatabaseID: dbMeta.ID, Table: table}.String()
	existing, err := c.kv.GetKV(ctx, nameKey)
	if err != nil {
		return err
	}
	if existing != nil {
		if ifNotExists {
			return nil
		}
		return fmt.Errorf("%w: %s.%s", ErrTableExists, database, table)
	}

	id, err := c.kv.NextID(ctx)
	if err != nil {
		return err
	}
	tblMeta := TableMeta{
		ID:        id,
		Name:      table,
		Database:  database,
		Columns:   columns,
		CreatedAt: c.now().UTC(),
	}
	data, err := json.Marshal(tblMeta)
	if err != nil {
		return fmt.Errorf("marshal table meta: %w", err)
	}

	if _, _, err := c.kv.UpsertKV(ctx, nameKey, MatchExact(0), encodeID(id)); err != nil {
		if errors.Is(err, ErrSeqMismatch) {
			if ifNotExists {
				return nil
			}
			return fmt.Errorf("%w: %s.%s", ErrTableExists, database, table)
		}
		return err
	}
	_, _, err = c.kv.UpsertKV(ctx, TableIDKey{ID: id}.String(), MatchAny(), data)
	return err
}

// DropTable removes a table.
func (c *Catalog) DropTable(ctx context.Context, database, table string, ifExists bool) error {
	tblMeta, err := c.GetTable(ctx, database, table)
	if err != nil {
		if (errors.Is(err, ErrTableNotFound) || errors.Is(err, ErrDatabaseNotFound)) && ifExists {
			return nil
		}
		return err
	}

	if _, _, err := c.kv.UpsertKV(ctx, TableIDKey{ID: tblMeta.ID}.String(), MatchAny(), nil); err != nil {
		return err
	}
	dbMeta, err := c.GetDatabase(ctx, database)
	if err != nil {
		return err
	}
	nameKey := TableNameKey{DatabaseID: dbMeta.ID, Table: table}.String()
	_, _, err = c.kv.UpsertKV(ctx, nameKey, MatchAny(), nil)
	return err
}

// GetTable looks a table up by database and name.
func (c *Catalog) GetTable(ctx context.Context, database, table string) (*TableMeta, error) {
	dbMeta, err := c.GetDatabase(ctx, database)
	if err != nil {
		return nil, err
	}

	nameKey := TableNameKey{DatabaseID: dbMeta.ID, Table: table}.String()
	sv, err := c.kv.GetKV(ctx, nameKey)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrTableNotFound, database, table)
	}
	id, err := decodeIDValue(sv.Data)
	if err != nil {
		return nil, err
	}

	meta, err := c.kv.GetKV(ctx, TableIDKey{ID: id}.String())
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, fmt.Errorf("%w: %s.%s (dangling id %d)", ErrTableNotFound, database, table, id)
	}
	var tblMeta TableMeta
	if err := json.Unmarshal(meta.Data, &tblMeta); err != nil {
		return nil, fmt.Errorf("unmarshal table meta: %w", err)
	}
	return &tblMeta, nil
}

// ExistsTable reports whether the table exists. A missing database counts
// as a missing table, not an error.
func (c *Catalog) ExistsTable(ctx context.Context, database, table string) (bool, error) {
	_, err := c.GetTable(ctx, database, table)
	if err != nil {
		if errors.Is(err, ErrTableNotFound) || errors.Is(err, ErrDatabaseNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListTables returns all tables of a database, name-ordered.
func (c *Catalog) ListTables(ctx context.Context, database string) ([]TableMeta, error) {
	dbMeta, err := c.GetDatabase(ctx, database)
	if err != nil {
		return nil, err
	}
	prefix := joinKey(PrefixTable, strconv.FormatUint(dbMeta.ID, 10)) + "/"
	keys, _, err := c.kv.PrefixListKV(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]TableMeta, 0, len(keys))
	for _, k := range keys {
		nameKey, err := ParseTableNameKey(k)
		if err != nil {
			return nil, err
		}
		tblMeta, err := c.GetTable(ctx, database, nameKey.Table)
		if err != nil {
			return nil, err
		}
		out = append(out, *tblMeta)
	}
	return out, nil
}

// === Views ===

// CreateView creates a view with the given SELECT definition.
func (c *Catalog) CreateView(ctx context.Context, database, view, definition string, ifNotExists bool) error {
	dbMeta, err := c.GetDatabase(ctx, database)
	if err != nil {
		return err
	}

	key := ViewNameKey{DatabaseID: dbMeta.ID, View: view}.String()
	existing, err := c.kv.GetKV(ctx, key)
	if err != nil {
		return err
	}
	if existing != nil {
		if ifNotExists {
			return nil
		}
		return fmt.Errorf("%w: %s.%s", ErrViewExists, database, view)
	}

	data, err := json.Marshal(ViewMeta{
		Name:       view,
		Database:   database,
		Definition: definition,
		CreatedAt:  c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal view meta: %w", err)
	}
	_, _, err = c.kv.UpsertKV(ctx, key, MatchExact(0), data)
	if errors.Is(err, ErrSeqMismatch) {
		if ifNotExists {
			return nil
		}
		return fmt.Errorf("%w: %s.%s", ErrViewExists, database, view)
	}
	return err
}

// AlterView replaces the definition of an existing view.
func (c *Catalog) AlterView(ctx context.Context, database, view, definition string) error {
	existing, err := c.GetView(ctx, database, view)
	if err != nil {
		return err
	}

	dbMeta, err := c.GetDatabase(ctx, database)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ViewMeta{
		Name:       view,
		Database:   database,
		Definition: definition,
		CreatedAt:  existing.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal view meta: %w", err)
	}
	key := ViewNameKey{DatabaseID: dbMeta.ID, View: view}.String()
	_, _, err = c.kv.UpsertKV(ctx, key, MatchAny(), data)
	return err
}

// DropView removes a view.
func (c *Catalog) DropView(ctx context.Context, database, view string, ifExists bool) error {
	_, err := c.GetView(ctx, database, view)
	if err != nil {
		if (errors.Is(err, ErrViewNotFound) || errors.Is(err, ErrDatabaseNotFound)) && ifExists {
			return nil
		}
		return err
	}
	dbMeta, err := c.GetDatabase(ctx, database)
	if err != nil {
		return err
	}
	key := ViewNameKey{DatabaseID: dbMeta.ID, View: view}.String()
	_, _, err = c.kv.UpsertKV(ctx, key, MatchAny(), nil)
	return err
}

// GetView looks a view up by database and name.
func (c *Catalog) GetView(ctx context.Context, database, view string) (*ViewMeta, error) {
	dbMeta, err := c.GetDatabase(ctx, database)
	if err != nil {
		return nil, err
	}
	key := ViewNameKey{DatabaseID: dbMeta.ID, View: view}.String()
	sv, err := c.kv.GetKV(ctx, key)
	if err != nil {
		return nil, err
	}
	if sv == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrViewNotFound, database, view)
	}
	var viewMeta ViewMeta
	if err := json.Unmarshal(sv.Data, &viewMeta); err != nil {
		return nil, fmt.Errorf("unmarshal view meta: %w", err)
	}
	return &viewMeta, nil
}

// ListViews returns all views of a database, name-ordered.
func (c *Catalog) ListViews(ctx context.Context, database string) ([]ViewMeta, error) {
	dbMeta, err := c.GetDatabase(ctx, database)
	if err != nil {
		return nil, err
	}
	prefix := joinKey(PrefixView, strconv.FormatUint(dbMeta.ID, 10)) + "/"
	_, values, err := c.kv.PrefixListKV(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]ViewMeta, 0, len(values))
	for _, sv := range values {
		var viewMeta ViewMeta
		if err := json.Unmarshal(sv.Data, &viewMeta); err != nil {
			return nil, fmt.Errorf("unmarshal view meta: %w", err)
		}
		out = append(out, viewMeta)
	}
	return out, nil
}

func encodeID(id uint64) []byte {
	return []byte(strconv.FormatUint(id, 10))
}

func decodeIDValue(data []byte) (uint64, error) {
	id, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored id %q: %w", data, err)
	}
	return id, nil
}
