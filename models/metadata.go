package models

// SearchResult is a transient, normalized row from a TMDB multi search. It is
// never persisted; an add action snapshots it into a WatchlistInsert.
type SearchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title,omitempty"` // movies
	Name         string  `json:"name,omitempty"`  // TV shows
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`   // movies
	FirstAirDate string  `json:"first_air_date,omitempty"` // TV shows
	GenreIDs     []int64 `json:"genre_ids,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
	MediaType    string  `json:"media_type"` // movie | tv
}

// DisplayTitle returns the unified title regardless of media kind. Empty when
// the upstream record carried neither field.
func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// PrimaryDate returns the release date for movies or the first air date for
// shows, whichever is present.
func (r SearchResult) PrimaryDate() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// SearchResponse is one page of normalized multi-search results.
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// Genre is a TMDB genre reference.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductionCompany is a studio attached to a title.
type ProductionCompany struct {
	ID            int64  `json:"id"`
	LogoPath      string `json:"logo_path,omitempty"`
	Name          string `json:"name"`
	OriginCountry string `json:"origin_country,omitempty"`
}

// Collection groups a movie into a film series.
type Collection struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PosterPath   string `json:"poster_path,omitempty"`
	BackdropPath string `json:"backdrop_path,omitempty"`
}

// Network is a broadcaster attached to a TV show.
type Network struct {
	ID            int64  `json:"id"`
	LogoPath      string `json:"logo_path,omitempty"`
	Name          string `json:"name"`
	OriginCountry string `json:"origin_country,omitempty"`
}

// Season summarizes one season of a TV show.
type Season struct {
	ID           int64  `json:"id"`
	AirDate      string `json:"air_date,omitempty"`
	EpisodeCount int    `json:"episode_count"`
	Name         string `json:"name"`
	Overview     string `json:"overview,omitempty"`
	PosterPath   string `json:"poster_path,omitempty"`
	SeasonNumber int    `json:"season_number"`
}

// Episode is one episode inside a season detail response.
type Episode struct {
	ID            int64   `json:"id"`
	AirDate       string  `json:"air_date,omitempty"`
	EpisodeNumber int     `json:"episode_number"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview,omitempty"`
	Runtime       int     `json:"runtime,omitempty"`
	SeasonNumber  int     `json:"season_number"`
	StillPath     string  `json:"still_path,omitempty"`
	VoteAverage   float64 `json:"vote_average,omitempty"`
	VoteCount     int     `json:"vote_count,omitempty"`
}

// MovieDetails is the full TMDB record for a single movie. Transient; never
// merged into a WatchlistItem.
type MovieDetails struct {
	ID                  int64               `json:"id"`
	Title               string              `json:"title"`
	Overview            string              `json:"overview,omitempty"`
	PosterPath          string              `json:"poster_path,omitempty"`
	BackdropPath        string              `json:"backdrop_path,omitempty"`
	ReleaseDate         string              `json:"release_date,omitempty"`
	Runtime             int                 `json:"runtime,omitempty"`
	Genres              []Genre             `json:"genres,omitempty"`
	ProductionCompanies []ProductionCompany `json:"production_companies,omitempty"`
	VoteAverage         float64             `json:"vote_average,omitempty"`
	VoteCount           int                 `json:"vote_count,omitempty"`
	Budget              int64               `json:"budget,omitempty"`
	Revenue             int64               `json:"revenue,omitempty"`
	Status              string              `json:"status,omitempty"`
	Tagline             string              `json:"tagline,omitempty"`
	BelongsToCollection *Collection         `json:"belongs_to_collection,omitempty"`
}

// TVDetails is the full TMDB record for a single TV show.
type TVDetails struct {
	ID                  int64               `json:"id"`
	Name                string              `json:"name"`
	Overview            string              `json:"overview,omitempty"`
	PosterPath          string              `json:"poster_path,omitempty"`
	BackdropPath        string              `json:"backdrop_path,omitempty"`
	FirstAirDate        string              `json:"first_air_date,omitempty"`
	LastAirDate         string              `json:"last_air_date,omitempty"`
	EpisodeRunTime      []int               `json:"episode_run_time,omitempty"`
	Genres              []Genre             `json:"genres,omitempty"`
	ProductionCompanies []ProductionCompany `json:"production_companies,omitempty"`
	VoteAverage         float64             `json:"vote_average,omitempty"`
	VoteCount           int                 `json:"vote_count,omitempty"`
	Status              string              `json:"status,omitempty"`
	Tagline             string              `json:"tagline,omitempty"`
	NumberOfEpisodes    int                 `json:"number_of_episodes,omitempty"`
	NumberOfSeasons     int                 `json:"number_of_seasons,omitempty"`
	Seasons             []Season            `json:"seasons,omitempty"`
	Networks            []Network           `json:"networks,omitempty"`
}

// SeasonDetails is the per-season record including its episode list.
type SeasonDetails struct {
	ID           int64     `json:"id"`
	AirDate      string    `json:"air_date,omitempty"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview,omitempty"`
	PosterPath   string    `json:"poster_path,omitempty"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes,omitempty"`
}
