package graph

// Image is one still capture owned by a viewpoint.
type Image struct {
	ID          int64
	ViewpointID int64
	Filename    string
	Friendly    string
	// Path is relative to the protected root; Source is the absolute path.
	Path   string
	Source string
	Width  int
	Height int
}

// Movie is one movie capture owned by a viewpoint, with its transcodes.
type Movie struct {
	ID          int64
	ViewpointID int64
	Filename    string
	Friendly    string
	Path        string
	Source      string
	GIFPath     string
	H264Path    string
	Width       int
	Height      int
}

// AddImage assigns img an identifier and attaches it to vp.
func (g *Graph) AddImage(vp *Viewpoint, img Image) *Image {
	img.ID = g.ids.Images.Next()
	img.ViewpointID = vp.ID
	stored := &img
	g.images = append(g.images, stored)
	g.imagesByViewpoint[vp.ID] = append(g.imagesByViewpoint[vp.ID], stored)
	return stored
}

// AddMovie assigns mov an identifier and attaches it to vp.
func (g *Graph) AddMovie(vp *Viewpoint, mov Movie) *Movie {
	mov.ID = g.ids.Movies.Next()
	mov.ViewpointID = vp.ID
	stored := &mov
	g.movies = append(g.movies, stored)
	g.moviesByViewpoint[vp.ID] = append(g.moviesByViewpoint[vp.ID], stored)
	return stored
}

// ImagesOf returns the images of a viewpoint in attachment order.
func (g *Graph) ImagesOf(viewpointID int64) []*Image { return g.imagesByViewpoint[viewpointID] }

// MoviesOf returns the movies of a viewpoint in attachment order.
func (g *Graph) MoviesOf(viewpointID int64) []*Movie { return g.moviesByViewpoint[viewpointID] }

// Images returns every image in attachment order.
func (g *Graph) Images() []*Image { return g.images }

// Movies returns every movie in attachment order.
func (g *Graph) Movies() []*Movie { return g.movies }
