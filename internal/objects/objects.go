// Package objects expands the declarative object document into catalog
// objects that reference concrete images and movies.
//
// A reference is "<group>/<viewpoint>" for every full-size image of the
// viewpoint, or "<group>/<viewpoint>/<friendly name>" for one named image,
// falling back to a movie of that name.
package objects

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"rivendb/internal/faults"
	"rivendb/internal/graph"
)

// Sentinel thumbnails used when an object resolves no image.
const (
	MissingThumbnail   = "images/missing_thumbnail.png"
	MissingThumbnail2x = "images/missing_thumbnail2x.png"
)

// Document is the decoded object description.
type Document struct {
	Objects []Entry `yaml:"objects"`
}

// Entry declares one object.
type Entry struct {
	Name       string   `yaml:"name"`
	Title      string   `yaml:"title"`
	References []string `yaml:"references"`
}

// Object is a resolved catalog object.
type Object struct {
	ID          int64
	Name        string
	Title       string
	Thumbnail   string
	Thumbnail2x string
	// ImageIDs and MovieIDs keep reference order without duplicates.
	ImageIDs []int64
	MovieIDs []int64
}

// ParseFile decodes the object document at path.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes an object document from r.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "objects", "decode document", "", err)
	}
	return &doc, nil
}

// Resolver looks references up in a built graph.
type Resolver struct {
	graph          *graph.Graph
	fullSizePixels int
}

// NewResolver returns a resolver over g. Images whose pixel count equals
// fullSizePixels count as full resolution.
func NewResolver(g *graph.Graph, fullSizePixels int) *Resolver {
	return &Resolver{graph: g, fullSizePixels: fullSizePixels}
}

// FindAssets resolves one reference string.
func (r *Resolver) FindAssets(ref string) ([]*graph.Image, []*graph.Movie, error) {
	parts := strings.Split(strings.TrimSpace(ref), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, nil, faults.Wrap(faults.ErrReference, "objects", "find assets", "malformed reference "+ref, nil)
	}
	if _, ok := r.graph.Group(parts[0]); !ok {
		return nil, nil, faults.Wrap(faults.ErrReference, "objects", "find assets", "unknown group in "+ref, nil)
	}
	vp, ok := r.graph.Viewpoint(parts[0], parts[1])
	if !ok {
		return nil, nil, faults.Wrap(faults.ErrReference, "objects", "find assets", "unknown viewpoint in "+ref, nil)
	}

	if len(parts) == 2 {
		var images []*graph.Image
		for _, img := range r.graph.ImagesOf(vp.ID) {
			if img.Width*img.Height == r.fullSizePixels {
				images = append(images, img)
			}
		}
		return images, nil, nil
	}

	name := parts[2]
	for _, img := range r.graph.ImagesOf(vp.ID) {
		if img.Friendly == name {
			return []*graph.Image{img}, nil, nil
		}
	}
	for _, mov := range r.graph.MoviesOf(vp.ID) {
		if mov.Friendly == name {
			return nil, []*graph.Movie{mov}, nil
		}
	}
	return nil, nil, faults.Wrap(faults.ErrReference, "objects", "find assets", "unknown asset in "+ref, nil)
}

// Resolve expands every object of doc. Duplicate names fail before any
// reference is looked up.
func (r *Resolver) Resolve(doc *Document) ([]*Object, error) {
	if doc == nil {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(doc.Objects))
	for _, entry := range doc.Objects {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			return nil, faults.Wrap(faults.ErrConfiguration, "objects", "validate", "object without name", nil)
		}
		if _, dup := seen[name]; dup {
			return nil, faults.Wrap(faults.ErrDuplicate, "objects", "validate", "object "+name+" defined more than once", nil)
		}
		seen[name] = struct{}{}
	}

	titler := cases.Title(language.Und)
	out := make([]*Object, 0, len(doc.Objects))
	for _, entry := range doc.Objects {
		obj := &Object{
			Name:  strings.TrimSpace(entry.Name),
			Title: strings.TrimSpace(entry.Title),
		}
		if obj.Title == "" {
			obj.Title = titler.String(strings.ReplaceAll(obj.Name, "_", " "))
		}
		var firstImage *graph.Image
		for _, ref := range entry.References {
			images, movies, err := r.FindAssets(ref)
			if err != nil {
				return nil, fmt.Errorf("object %s: %w", obj.Name, err)
			}
			for _, img := range images {
				if firstImage == nil {
					firstImage = img
				}
				if !slices.Contains(obj.ImageIDs, img.ID) {
					obj.ImageIDs = append(obj.ImageIDs, img.ID)
				}
			}
			for _, mov := range movies {
				if !slices.Contains(obj.MovieIDs, mov.ID) {
					obj.MovieIDs = append(obj.MovieIDs, mov.ID)
				}
			}
		}
		obj.Thumbnail, obj.Thumbnail2x = MissingThumbnail, MissingThumbnail2x
		if firstImage != nil {
			if vp, ok := r.graph.ViewpointByID(firstImage.ViewpointID); ok && vp.Thumbnail != "" {
				obj.Thumbnail, obj.Thumbnail2x = vp.Thumbnail, vp.Thumbnail2x
			}
		}
		obj.ID = r.graph.IDs().Objects.Next()
		out = append(out, obj)
	}
	return out, nil
}
