package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"rivendb/internal/catalogdb"
	"rivendb/internal/faults"
	"rivendb/internal/graph"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Inspect the persisted catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReader(func(r *catalogdb.Reader) error {
				return showCatalog(cmd.Context(), cmd.OutOrStdout(), r)
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "viewpoint <group/name>",
		Short: "Show one viewpoint and its neighbors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol, name, ok := strings.Cut(args[0], "/")
			if !ok || symbol == "" || name == "" {
				return faults.Wrap(faults.ErrReference, "show", "viewpoint", "expected <group>/<name>, got "+args[0], nil)
			}
			return ctx.withReader(func(r *catalogdb.Reader) error {
				return showViewpoint(cmd.Context(), cmd.OutOrStdout(), r, symbol, name)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "object <name>",
		Short: "Show one object and its assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReader(func(r *catalogdb.Reader) error {
				return showObject(cmd.Context(), cmd.OutOrStdout(), r, args[0])
			})
		},
	})

	return cmd
}

func (c *commandContext) withReader(fn func(*catalogdb.Reader) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	reader, err := catalogdb.Open(cfg.Paths.Database)
	if err != nil {
		return err
	}
	defer reader.Close()
	return fn(reader)
}

func showCatalog(ctx context.Context, out io.Writer, r *catalogdb.Reader) error {
	counts, err := r.Counts(ctx)
	if err != nil {
		return err
	}
	globals, err := r.Globals(ctx)
	if err != nil {
		return err
	}
	islands, err := r.Islands(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s viewpoints in %s islands, %s positions\n",
		humanize.Comma(int64(counts.Viewpoints)), humanize.Comma(int64(counts.Islands)), humanize.Comma(int64(counts.Positions)))
	fmt.Fprintf(out, "%s images, %s movies, %s objects\n",
		humanize.Comma(int64(counts.Images)), humanize.Comma(int64(counts.Movies)), humanize.Comma(int64(counts.Objects)))
	fmt.Fprintf(out, "Thumbnails %dx%d, 2x %dx%d\n",
		globals.ThumbnailWidth, globals.ThumbnailHeight, globals.Thumbnail2xWidth, globals.Thumbnail2xHeight)

	rows := make([][]string, 0, len(islands))
	for _, island := range islands {
		rows = append(rows, []string{island.Symbol, island.Title(), strconv.Itoa(island.Viewpoints)})
	}
	fmt.Fprintln(out, renderTable([]string{"Symbol", "Island", "Viewpoints"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight}))
	return nil
}

func showViewpoint(ctx context.Context, out io.Writer, r *catalogdb.Reader, symbol, name string) error {
	vp, err := r.Viewpoint(ctx, symbol, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Viewpoint %s (id %d)\n", vp.Key(), vp.ID)
	if vp.Thumbnail != "" {
		fmt.Fprintf(out, "Thumbnail: %s\n", vp.Thumbnail)
	}

	rows := make([][]string, 0, len(graph.Directions))
	for _, dir := range graph.Directions {
		target, ok, err := r.Neighbor(ctx, vp, dir)
		if err != nil {
			return err
		}
		value := "-"
		if ok {
			value = target.Key()
		}
		rows = append(rows, []string{dir.String(), value})
	}
	fmt.Fprintln(out, renderTable([]string{"Direction", "Neighbor"}, rows, nil))
	return nil
}

func showObject(ctx context.Context, out io.Writer, r *catalogdb.Reader, name string) error {
	obj, err := r.Object(ctx, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s (%s)\n", obj.Title, obj.Name)
	if obj.Thumbnail != "" {
		fmt.Fprintf(out, "Thumbnail: %s\n", obj.Thumbnail)
	}
	rows := make([][]string, 0, len(obj.Images)+len(obj.Movies))
	for _, path := range obj.Images {
		rows = append(rows, []string{"image", path})
	}
	for _, path := range obj.Movies {
		rows = append(rows, []string{"movie", path})
	}
	fmt.Fprintln(out, renderTable([]string{"Kind", "Path"}, rows, nil))
	return nil
}
