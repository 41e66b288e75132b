package catalog

// ImageBaseURL is the TMDb image CDN root.
const ImageBaseURL = "https://image.tmdb.org/t/p/"

// PosterSize is a poster rendition width.
type PosterSize string

// Poster sizes.
const (
	PosterW92      PosterSize = "w92"
	PosterW154     PosterSize = "w154"
	PosterW185     PosterSize = "w185"
	PosterW342     PosterSize = "w342"
	PosterW500     PosterSize = "w500"
	PosterW780     PosterSize = "w780"
	PosterOriginal PosterSize = "original"
)

// BackdropSize is a backdrop rendition width.
type BackdropSize string

// Backdrop sizes.
const (
	BackdropW300     BackdropSize = "w300"
	BackdropW780     BackdropSize = "w780"
	BackdropW1280    BackdropSize = "w1280"
	BackdropOriginal BackdropSize = "original"
)

// ProfileSize is a person profile rendition size.
type ProfileSize string

// Profile sizes.
const (
	ProfileW45      ProfileSize = "w45"
	ProfileW185     ProfileSize = "w185"
	ProfileH632     ProfileSize = "h632"
	ProfileOriginal ProfileSize = "original"
)

// PosterURL returns the full URL for a poster path, or "" when path is nil.
func PosterURL(path *string, size PosterSize) string {
	if size == "" {
		size = PosterW185
	}
	return imageURL(path, string(size))
}

// BackdropURL returns the full URL for a backdrop path, or "" when path is nil.
func BackdropURL(path *string, size BackdropSize) string {
	if size == "" {
		size = BackdropW780
	}
	return imageURL(path, string(size))
}

// ProfileURL returns the full URL for a profile path, or "" when path is nil.
func ProfileURL(path *string, size ProfileSize) string {
	if size == "" {
		size = ProfileW185
	}
	return imageURL(path, string(size))
}

func imageURL(path *string, size string) string {
	if path == nil || *path == "" {
		return ""
	}
	return ImageBaseURL + size + *path
}
