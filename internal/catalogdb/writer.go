package catalogdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"rivendb/internal/catalog"
	"rivendb/internal/graph"
	"rivendb/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

var _ catalog.Writer = (*Writer)(nil)

// Writer replaces the catalog database at a fixed path.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter returns a writer targeting path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logging.NewComponentLogger(logger, "catalogdb")}
}

// Path returns the database path the writer replaces.
func (w *Writer) Path() string {
	return w.path
}

// Write stores cat in a fresh database and swaps it into place.
func (w *Writer) Write(ctx context.Context, cat *catalog.Catalog) error {
	if cat == nil || cat.Graph == nil {
		return errors.New("catalog is empty")
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}

	tmp := w.path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale database: %w", err)
	}
	if err := w.writeFile(ctx, tmp, cat); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace database: %w", err)
	}

	logging.WithContext(ctx, w.logger).Info("catalog persisted",
		logging.String("path", w.path),
		logging.Int("viewpoints", len(cat.Graph.Viewpoints())),
		logging.Int("images", len(cat.Graph.Images())),
		logging.Int("movies", len(cat.Graph.Movies())),
		logging.Int("objects", len(cat.Objects)),
	)
	return nil
}

func (w *Writer) writeFile(ctx context.Context, path string, cat *catalog.Catalog) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("apply pragma: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context, *sql.Tx, *catalog.Catalog) error
	}{
		{"islands", insertIslands},
		{"positions", insertPositions},
		{"viewpoints", insertViewpoints},
		{"images", insertImages},
		{"movies", insertMovies},
		{"objects", insertObjects},
		{"globals", insertGlobals},
	}
	for _, step := range steps {
		if err := step.fn(ctx, tx, cat); err != nil {
			return fmt.Errorf("insert %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

func insertIslands(ctx context.Context, tx *sql.Tx, cat *catalog.Catalog) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO islands (island_id, symbol, name, aka, suffix, icon) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, group := range cat.Graph.Groups() {
		if _, err := stmt.ExecContext(ctx, group.ID, group.Symbol, group.Name,
			nullableString(group.AKA), nullableString(group.Suffix), nullableString(group.Icon)); err != nil {
			return fmt.Errorf("island %s: %w", group.Symbol, err)
		}
	}
	return nil
}

func insertPositions(ctx context.Context, tx *sql.Tx, cat *catalog.Catalog) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO positions (position_id, island, name, thumbnail) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, pos := range cat.Graph.Positions() {
		if _, err := stmt.ExecContext(ctx, pos.ID, pos.GroupID, nullableString(pos.Name), nullableString(pos.Thumbnail)); err != nil {
			return fmt.Errorf("position %d: %w", pos.ID, err)
		}
	}
	return nil
}

func insertViewpoints(ctx context.Context, tx *sql.Tx, cat *catalog.Catalog) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO viewpoints (
            viewpoint_id, island, position, name, thumbnail, thumbnail2x,
            left_viewpoint, right_viewpoint, up_viewpoint, down_viewpoint, forward_viewpoint, backward_viewpoint
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, vp := range cat.Graph.Viewpoints() {
		args := []any{vp.ID, vp.GroupID, nullableID(vp.PositionID), vp.Name,
			nullableString(vp.Thumbnail), nullableString(vp.Thumbnail2x)}
		for _, dir := range graph.Directions {
			args = append(args, nullableID(vp.Neighbors[dir]))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("viewpoint %s: %w", vp.Key(), err)
		}
	}
	return nil
}

func insertImages(ctx context.Context, tx *sql.Tx, cat *catalog.Catalog) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rivenimgs (
            image_id, viewpoint, filename, friendly, file_path, image_width, image_height
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, img := range cat.Graph.Images() {
		if _, err := stmt.ExecContext(ctx, img.ID, img.ViewpointID, img.Filename, img.Friendly, img.Path,
			img.Width, img.Height); err != nil {
			return fmt.Errorf("image %s: %w", img.Path, err)
		}
	}
	return nil
}

func insertMovies(ctx context.Context, tx *sql.Tx, cat *catalog.Catalog) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO rivenmovs (
            movie_id, viewpoint, filename, friendly, file_path, anim_gif_path, h264_path, movie_width, movie_height
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, mov := range cat.Graph.Movies() {
		if _, err := stmt.ExecContext(ctx, mov.ID, mov.ViewpointID, mov.Filename, mov.Friendly, mov.Path,
			nullableString(mov.GIFPath), nullableString(mov.H264Path), mov.Width, mov.Height); err != nil {
			return fmt.Errorf("movie %s: %w", mov.Path, err)
		}
	}
	return nil
}

func insertObjects(ctx context.Context, tx *sql.Tx, cat *catalog.Catalog) error {
	for _, obj := range cat.Objects {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO objects (object_id, name, title, thumbnail, thumbnail2x) VALUES (?, ?, ?, ?, ?)`,
			obj.ID, obj.Name, obj.Title, nullableString(obj.Thumbnail), nullableString(obj.Thumbnail2x),
		); err != nil {
			return fmt.Errorf("object %s: %w", obj.Name, err)
		}
		for i, id := range obj.ImageIDs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO object_images (object, image, ordinal) VALUES (?, ?, ?)`, obj.ID, id, i); err != nil {
				return fmt.Errorf("object %s image %d: %w", obj.Name, id, err)
			}
		}
		for i, id := range obj.MovieIDs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO object_movies (object, movie, ordinal) VALUES (?, ?, ?)`, obj.ID, id, i); err != nil {
				return fmt.Errorf("object %s movie %d: %w", obj.Name, id, err)
			}
		}
	}
	return nil
}

func insertGlobals(ctx context.Context, tx *sql.Tx, cat *catalog.Catalog) error {
	g := cat.Globals
	_, err := tx.ExecContext(ctx, `INSERT INTO globals (
            global_id, thumbnail_width, thumbnail_height, thumbnail2x_width, thumbnail2x_height
        ) VALUES (1, ?, ?, ?, ?)`,
		g.ThumbnailWidth, g.ThumbnailHeight, g.Thumbnail2xWidth, g.Thumbnail2xHeight)
	return err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
