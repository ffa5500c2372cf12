// Package tmdb provides a cached client for The Movie Database API.
package tmdb

import "strconv"

// Movie represents TMDB movie details.
type Movie struct {
	ID               int64   `json:"id"`
	IMDBID           string  `json:"imdb_id,omitempty"` // e.g., "tt0133093"
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	OriginalLanguage string  `json:"original_language"`
	Overview         string  `json:"overview"`
	Tagline          string  `json:"tagline,omitempty"`
	ReleaseDate      string  `json:"release_date"` // "2024-03-01"
	PosterPath       string  `json:"poster_path"`  // "/abc123.jpg"
	BackdropPath     string  `json:"backdrop_path"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Runtime          int     `json:"runtime"` // minutes
	Genres           []Genre `json:"genres"`
}

// Genre represents a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieSummary is a list item as returned by the popular, now-playing and
// discover endpoints. It is also the unit stored in a wishlist.
type MovieSummary struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	PosterPath       string  `json:"poster_path"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	BackdropPath     string  `json:"backdrop_path,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
}

// Page is a paginated list response. The whole page is cached so TotalPages
// stays consistent with the cached results.
type Page struct {
	Results      []MovieSummary `json:"results"`
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// Summary reduces full details to a list item.
func (m *Movie) Summary() MovieSummary {
	return MovieSummary{
		ID:               m.ID,
		Title:            m.Title,
		PosterPath:       m.PosterPath,
		OriginalLanguage: m.OriginalLanguage,
		VoteAverage:      m.VoteAverage,
		BackdropPath:     m.BackdropPath,
		Overview:         m.Overview,
		ReleaseDate:      m.ReleaseDate,
	}
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	return releaseYear(m.ReleaseDate)
}

// Year extracts the year from ReleaseDate.
func (m MovieSummary) Year() int {
	return releaseYear(m.ReleaseDate)
}

// PosterURL returns the full poster image URL.
// Size can be: w92, w154, w185, w342, w500, w780, original
func (m *Movie) PosterURL(size string) string {
	return imageURL(size, m.PosterPath)
}

// PosterURL returns the full poster image URL.
func (m MovieSummary) PosterURL(size string) string {
	return imageURL(size, m.PosterPath)
}

// BackdropURL returns the full backdrop image URL.
func (m MovieSummary) BackdropURL(size string) string {
	return imageURL(size, m.BackdropPath)
}

func imageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/" + size + path
}

func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
