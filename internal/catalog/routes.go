package catalog

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultLanguage is sent when QueryParams.Language is empty.
const DefaultLanguage = "en-US"

const (
	pathPopular = "/movie/popular"
	pathSearch  = "/search/movie"
	pathMovie   = "/movie/%d"
)

// Endpoint describes a single API call.
type Endpoint struct {
	Method string
	Path   string
	// Query is percent-encoded into the URL.
	Query url.Values
	// Body, when non-nil, is JSON-encoded as the request body.
	Body any
}

// QueryParams are the listing parameters shared by popular and search.
type QueryParams struct {
	Page     int
	Language string
	Query    string
}

func (p QueryParams) values() url.Values {
	v := url.Values{}
	page := p.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	lang := p.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	v.Set("language", lang)
	if p.Query != "" {
		v.Set("query", p.Query)
	}
	return v
}

// Popular is the popular-movies listing.
func Popular(p QueryParams) Endpoint {
	p.Query = ""
	return Endpoint{Method: http.MethodGet, Path: pathPopular, Query: p.values()}
}

// Search is the movie search listing.
func Search(p QueryParams) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: pathSearch, Query: p.values()}
}

// Details is the full record of one movie.
func Details(movieID int) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: fmt.Sprintf(pathMovie, movieID)}
}

// Similar lists movies similar to movieID.
func Similar(movieID int) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: fmt.Sprintf(pathMovie, movieID) + "/similar"}
}

// Credits is the cast and crew of movieID.
func Credits(movieID int) Endpoint {
	return Endpoint{Method: http.MethodGet, Path: fmt.Sprintf(pathMovie, movieID) + "/credits"}
}
