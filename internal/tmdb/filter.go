package tmdb

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultRegion is used for discover queries when none is configured.
const DefaultRegion = "KR"

// RuntimeRange bounds a runtime filter in minutes. Zero means unbounded.
type RuntimeRange struct {
	GTE int
	LTE int
}

// RuntimeRanges are the named runtime buckets accepted by Filter.Runtime.
var RuntimeRanges = map[string]RuntimeRange{
	"short":  {LTE: 90},
	"medium": {GTE: 90, LTE: 120},
	"long":   {GTE: 120},
}

// Genres maps display labels to TMDB genre IDs. "0" means no genre filter.
var Genres = map[string]string{
	"All":             "0",
	"Action":          "28",
	"Adventure":       "12",
	"Animation":       "16",
	"Comedy":          "35",
	"Crime":           "80",
	"Documentary":     "99",
	"Drama":           "18",
	"Family":          "10751",
	"Fantasy":         "14",
	"History":         "36",
	"Horror":          "27",
	"Music":           "10402",
	"Mystery":         "9648",
	"Romance":         "10749",
	"Science Fiction": "878",
	"TV Movie":        "10770",
	"Thriller":        "53",
	"War":             "10752",
	"Western":         "37",
}

// Languages maps display labels to ISO 639-1 codes.
var Languages = map[string]string{
	"Korean":   "ko",
	"English":  "en",
	"Japanese": "ja",
	"Chinese":  "zh",
	"French":   "fr",
	"German":   "de",
	"Spanish":  "es",
	"Italian":  "it",
	"Russian":  "ru",
}

// SortOrders maps display labels to sort_by values.
var SortOrders = map[string]string{
	"Default":          "popularity.desc",
	"Most popular":     "popularity.desc",
	"Least popular":    "popularity.asc",
	"Highest rated":    "vote_average.desc,vote_count.desc",
	"Lowest rated":     "vote_average.asc,vote_count.desc",
	"Newest":           "primary_release_date.desc",
	"Oldest":           "primary_release_date.asc",
	"Highest revenue":  "revenue.desc",
	"Lowest revenue":   "revenue.asc",
	"Title ascending":  "original_title.asc",
	"Title descending": "original_title.desc",
}

// CertificationCountry scopes Filter.Certification.
const CertificationCountry = "US"

// Certifications maps display labels to US certification codes.
var Certifications = map[string]string{
	"G (General audiences)":     "G",
	"PG (Parental guidance)":    "PG",
	"PG-13 (Parents cautioned)": "PG-13",
	"R (Restricted)":            "R",
	"NC-17 (Adults only)":       "NC-17",
}

// Filter is a structured discover query.
type Filter struct {
	Page          int
	Region        string
	Genre         string  // TMDB genre ID; "" or "0" for all
	MinRating     float64 // vote_average.gte; ignored when <= 0
	Language      string  // with_original_language
	Year          int     // primary_release_year; ignored when 0
	SortBy        string
	Runtime       string // key into RuntimeRanges
	Certification string // US code from Certifications, e.g. "PG-13"
	Adult         bool
}

// Query renders the filter as discover query parameters. Region, page and
// include_adult are always present.
func (f Filter) Query() url.Values {
	q := url.Values{}
	region := f.Region
	if region == "" {
		region = DefaultRegion
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	q.Set("region", region)
	q.Set("page", strconv.Itoa(page))
	q.Set("include_adult", strconv.FormatBool(f.Adult))

	if f.Genre != "" && f.Genre != "0" {
		q.Set("with_genres", f.Genre)
	}
	if f.MinRating > 0 {
		q.Set("vote_average.gte", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	if f.Language != "" {
		q.Set("with_original_language", f.Language)
	}
	if f.Year != 0 {
		q.Set("primary_release_year", strconv.Itoa(f.Year))
	}
	if f.SortBy != "" {
		q.Set("sort_by", f.SortBy)
	}
	if r, ok := RuntimeRanges[strings.ToLower(f.Runtime)]; ok {
		if r.GTE > 0 {
			q.Set("with_runtime.gte", strconv.Itoa(r.GTE))
		}
		if r.LTE > 0 {
			q.Set("with_runtime.lte", strconv.Itoa(r.LTE))
		}
	}
	if f.Certification != "" {
		q.Set("certification_country", CertificationCountry)
		q.Set("certification", f.Certification)
	}
	return q
}
