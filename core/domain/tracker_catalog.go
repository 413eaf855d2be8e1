package domain

// CatalogItem is a movie record as returned by the catalog provider.
// Search results carry GenreIDs; detail records carry Genres.
type CatalogItem struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path,omitempty"`
	BackdropPath     string  `json:"backdrop_path,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video,omitempty"`
	GenreIDs         []int64 `json:"genre_ids,omitempty"`
	Genres           []Genre `json:"genres,omitempty"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int64   `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Runtime          int     `json:"runtime,omitempty"`
	Tagline          string  `json:"tagline,omitempty"`
	Status           string  `json:"status,omitempty"`
	IMDbID           string  `json:"imdb_id,omitempty"`
}

// Genre is a provider genre reference.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SearchPage is one page of provider search results.
type SearchPage struct {
	Page         int           `json:"page"`
	Results      []CatalogItem `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// CountryReleases groups the dated release records for one region.
type CountryReleases struct {
	Region       string          `json:"iso_3166_1"`
	ReleaseDates []ReleaseRecord `json:"release_dates"`
}

// ReleaseRecord is a single dated release with its certification.
type ReleaseRecord struct {
	Certification string `json:"certification"`
	Language      string `json:"iso_639_1,omitempty"`
	Note          string `json:"note,omitempty"`
	ReleaseDate   string `json:"release_date,omitempty"`
	Type          int    `json:"type,omitempty"`
}

// Keyword is a provider-assigned semantic tag.
type Keyword struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
