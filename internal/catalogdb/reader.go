package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"rivendb/internal/catalog"
	"rivendb/internal/faults"
	"rivendb/internal/graph"
)

// ErrSchemaMismatch indicates the database was written by an incompatible build.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Reader queries a persisted catalog.
type Reader struct {
	db   *sql.DB
	path string
}

// Counts holds row counts per entity table.
type Counts struct {
	Islands    int
	Positions  int
	Viewpoints int
	Images     int
	Movies     int
	Objects    int
}

// Island is a persisted spatial group with its viewpoint count.
type Island struct {
	graph.Island
	ID         int64
	Viewpoints int
}

// Viewpoint is a persisted viewpoint row.
type Viewpoint struct {
	ID          int64
	Symbol      string
	Name        string
	PositionID  int64
	Thumbnail   string
	Thumbnail2x string
	Neighbors   [6]int64
}

// Key returns "<symbol>/<name>".
func (v *Viewpoint) Key() string {
	return v.Symbol + "/" + v.Name
}

// Object is a persisted object with its asset paths in reference order.
type Object struct {
	ID          int64
	Name        string
	Title       string
	Thumbnail   string
	Thumbnail2x string
	Images      []string
	Movies      []string
}

// Open connects to an existing catalog database.
func Open(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "catalogdb", "open", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	var version int
	if err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		_ = db.Close()
		return nil, fmt.Errorf("%w: database has version %d, expected %d (run 'rivendb build' to rebuild it)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return &Reader{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Counts returns the number of rows per entity table.
func (r *Reader) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	targets := []struct {
		table string
		dst   *int
	}{
		{"islands", &counts.Islands},
		{"positions", &counts.Positions},
		{"viewpoints", &counts.Viewpoints},
		{"rivenimgs", &counts.Images},
		{"rivenmovs", &counts.Movies},
		{"objects", &counts.Objects},
	}
	for _, target := range targets {
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+target.table).Scan(target.dst); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", target.table, err)
		}
	}
	return counts, nil
}

// Globals returns the settings row.
func (r *Reader) Globals(ctx context.Context) (catalog.Globals, error) {
	var g catalog.Globals
	err := r.db.QueryRowContext(ctx, `SELECT thumbnail_width, thumbnail_height, thumbnail2x_width, thumbnail2x_height
        FROM globals WHERE global_id = 1`).Scan(&g.ThumbnailWidth, &g.ThumbnailHeight, &g.Thumbnail2xWidth, &g.Thumbnail2xHeight)
	if err != nil {
		return catalog.Globals{}, fmt.Errorf("read globals: %w", err)
	}
	return g, nil
}

// Islands lists spatial groups by identifier.
func (r *Reader) Islands(ctx context.Context) ([]Island, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT i.island_id, i.symbol, i.name, i.aka, i.suffix, i.icon,
            (SELECT COUNT(1) FROM viewpoints v WHERE v.island = i.island_id)
        FROM islands i ORDER BY i.island_id`)
	if err != nil {
		return nil, fmt.Errorf("query islands: %w", err)
	}
	defer rows.Close()

	var out []Island
	for rows.Next() {
		var (
			island            Island
			aka, suffix, icon sql.NullString
		)
		if err := rows.Scan(&island.ID, &island.Symbol, &island.Name, &aka, &suffix, &icon, &island.Viewpoints); err != nil {
			return nil, fmt.Errorf("scan island: %w", err)
		}
		island.AKA, island.Suffix, island.Icon = aka.String, suffix.String, icon.String
		out = append(out, island)
	}
	return out, rows.Err()
}

const viewpointColumns = `v.viewpoint_id, i.symbol, v.name, v.position, v.thumbnail, v.thumbnail2x,
            v.left_viewpoint, v.right_viewpoint, v.up_viewpoint, v.down_viewpoint, v.forward_viewpoint, v.backward_viewpoint`

// Viewpoint looks a viewpoint up by group symbol and name.
func (r *Reader) Viewpoint(ctx context.Context, symbol, name string) (*Viewpoint, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+viewpointColumns+`
        FROM viewpoints v JOIN islands i ON i.island_id = v.island
        WHERE i.symbol = ? AND v.name = ?`, strings.ToUpper(strings.TrimSpace(symbol)), name)
	vp, err := scanViewpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.Wrap(faults.ErrReference, "catalogdb", "viewpoint", "unknown viewpoint "+symbol+"/"+name, nil)
	}
	return vp, err
}

// ViewpointByID looks a viewpoint up by identifier.
func (r *Reader) ViewpointByID(ctx context.Context, id int64) (*Viewpoint, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+viewpointColumns+`
        FROM viewpoints v JOIN islands i ON i.island_id = v.island
        WHERE v.viewpoint_id = ?`, id)
	vp, err := scanViewpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.Wrap(faults.ErrReference, "catalogdb", "viewpoint", fmt.Sprintf("unknown viewpoint id %d", id), nil)
	}
	return vp, err
}

// Neighbor follows the edge of vp in direction dir.
func (r *Reader) Neighbor(ctx context.Context, vp *Viewpoint, dir graph.Direction) (*Viewpoint, bool, error) {
	if vp == nil || int(dir) < 0 || int(dir) >= len(vp.Neighbors) || vp.Neighbors[dir] == 0 {
		return nil, false, nil
	}
	target, err := r.ViewpointByID(ctx, vp.Neighbors[dir])
	if err != nil {
		return nil, false, err
	}
	return target, true, nil
}

// Object looks an object up by name and lists its asset paths.
func (r *Reader) Object(ctx context.Context, name string) (*Object, error) {
	var (
		obj              Object
		title, thumb, hi sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `SELECT object_id, name, title, thumbnail, thumbnail2x FROM objects WHERE name = ?`, name).
		Scan(&obj.ID, &obj.Name, &title, &thumb, &hi)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.Wrap(faults.ErrReference, "catalogdb", "object", "unknown object "+name, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("query object: %w", err)
	}
	obj.Title, obj.Thumbnail, obj.Thumbnail2x = title.String, thumb.String, hi.String

	if obj.Images, err = r.paths(ctx, `SELECT m.file_path FROM object_images o JOIN rivenimgs m ON m.image_id = o.image
        WHERE o.object = ? ORDER BY o.ordinal`, obj.ID); err != nil {
		return nil, err
	}
	if obj.Movies, err = r.paths(ctx, `SELECT m.file_path FROM object_movies o JOIN rivenmovs m ON m.movie_id = o.movie
        WHERE o.object = ? ORDER BY o.ordinal`, obj.ID); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (r *Reader) paths(ctx context.Context, query string, id int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query object assets: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan object asset: %w", err)
		}
		out = append(out, path)
	}
	return out, rows.Err()
}

func scanViewpoint(row *sql.Row) (*Viewpoint, error) {
	var (
		vp        Viewpoint
		position  sql.NullInt64
		thumb, hi sql.NullString
		neighbors [6]sql.NullInt64
	)
	err := row.Scan(&vp.ID, &vp.Symbol, &vp.Name, &position, &thumb, &hi,
		&neighbors[graph.Left], &neighbors[graph.Right], &neighbors[graph.Up],
		&neighbors[graph.Down], &neighbors[graph.Forward], &neighbors[graph.Backward])
	if err != nil {
		return nil, err
	}
	vp.PositionID = position.Int64
	vp.Thumbnail, vp.Thumbnail2x = thumb.String, hi.String
	for i, n := range neighbors {
		vp.Neighbors[i] = n.Int64
	}
	return &vp, nil
}
