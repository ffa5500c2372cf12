package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/moviedeck/internal/app"
	"github.com/vmunix/moviedeck/internal/tmdb"
)

var moviesCmd = &cobra.Command{
	Use:   "movies",
	Short: "Browse the movie catalog",
}

var moviesPopularCmd = &cobra.Command{
	Use:   "popular [page]",
	Short: "List popular movies",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := pageArg(args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			p, err := a.Catalog.GetMovies(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), a, p)
		})
	},
}

var moviesNowPlayingCmd = &cobra.Command{
	Use:   "now-playing [page]",
	Short: "List movies currently in theaters",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := pageArg(args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			p, err := a.Catalog.GetNowPlaying(cmd.Context(), page)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), a, p)
		})
	},
}

var moviesRecommendedCmd = &cobra.Command{
	Use:   "recommended",
	Short: "List recommended movies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			p, err := a.Catalog.GetRecommendedMovies(cmd.Context())
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), a, p)
		})
	},
}

var moviesDetailsCmd = &cobra.Command{
	Use:   "details <id>",
	Short: "Show movie details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := movieIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			m, err := a.Catalog.GetMovieDetails(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), m)
			}
			printMovie(cmd.OutOrStdout(), m, a.Wishlist.Contains(m.ID))
			return nil
		})
	},
}

var moviesFeaturedCmd = &cobra.Command{
	Use:   "featured",
	Short: "Show the featured movie",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			m, err := a.Catalog.GetFeaturedMovie(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), m)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)  ★ %.1f\n", m.Title, yearString(m.Year()), m.VoteAverage)
			if url := m.BackdropURL("w780"); url != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Backdrop: %s\n", url)
			}
			if m.Overview != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", m.Overview)
			}
			return nil
		})
	},
}

var moviesDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search the catalog with filters",
	Long: `Search the catalog with filters.

Genre, language, sort and certification accept either a label (e.g.
"Science Fiction", "Korean", "Highest rated") or the raw TMDB value.

Examples:
  moviedeck movies discover --genre Action --min-rating 7
  moviedeck movies discover --language Korean --year 2019 --runtime long
  moviedeck movies discover --certification PG-13 --sort Newest`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

var moviesPrefetchCmd = &cobra.Command{
	Use:   "prefetch [pages...]",
	Short: "Warm the cache for popular pages (default 1-3)",
	RunE: func(cmd *cobra.Command, args []string) error {
		pages := []int{1, 2, 3}
		if len(args) > 0 {
			pages = pages[:0]
			for _, arg := range args {
				p, err := strconv.Atoi(arg)
				if err != nil || p < 1 {
					return fmt.Errorf("invalid page %q", arg)
				}
				pages = append(pages, p)
			}
		}
		return withApp(cmd, func(a *app.App) error {
			if err := a.Catalog.Prefetch(cmd.Context(), pages...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prefetched %d pages\n", len(pages))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(moviesCmd)
	moviesCmd.AddCommand(moviesPopularCmd, moviesNowPlayingCmd, moviesRecommendedCmd,
		moviesDetailsCmd, moviesFeaturedCmd, moviesDiscoverCmd, moviesPrefetchCmd)

	f := moviesDiscoverCmd.Flags()
	f.Int("page", 1, "Result page")
	f.String("region", "", "ISO 3166 region (default from config)")
	f.String("genre", "", "Genre label or ID")
	f.Float64("min-rating", 0, "Minimum vote average")
	f.String("language", "", "Original language label or ISO 639-1 code")
	f.Int("year", 0, "Primary release year")
	f.String("sort", "", "Sort label or sort_by value")
	f.String("runtime", "", "Runtime bucket: short, medium, long")
	f.String("certification", "", "US rating: G, PG, PG-13, R, NC-17 or its label")
	f.Bool("adult", false, "Include adult titles")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	page, _ := flags.GetInt("page")
	region, _ := flags.GetString("region")
	genre, _ := flags.GetString("genre")
	minRating, _ := flags.GetFloat64("min-rating")
	language, _ := flags.GetString("language")
	year, _ := flags.GetInt("year")
	sortBy, _ := flags.GetString("sort")
	runtime, _ := flags.GetString("runtime")
	certification, _ := flags.GetString("certification")
	adult, _ := flags.GetBool("adult")

	if runtime != "" {
		if _, ok := tmdb.RuntimeRanges[strings.ToLower(runtime)]; !ok {
			return fmt.Errorf("unknown runtime %q (want short, medium or long)", runtime)
		}
	}

	filter := tmdb.Filter{
		Page:          page,
		Region:        region,
		Genre:         lookupLabel(tmdb.Genres, genre),
		MinRating:     minRating,
		Language:      lookupLabel(tmdb.Languages, language),
		Year:          year,
		SortBy:        lookupLabel(tmdb.SortOrders, sortBy),
		Runtime:       runtime,
		Certification: lookupCertification(certification),
		Adult:         adult,
	}

	return withApp(cmd, func(a *app.App) error {
		p, err := a.Catalog.Discover(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return printPage(cmd.OutOrStdout(), a, p)
	})
}

// lookupCertification accepts a label or a code, case-insensitively
// ("pg-13" yields "PG-13"). Unknown input is passed through.
func lookupCertification(s string) string {
	if s == "" {
		return ""
	}
	for label, code := range tmdb.Certifications {
		if strings.EqualFold(label, s) || strings.EqualFold(code, s) {
			return code
		}
	}
	return s
}

// lookupLabel maps a display label to its value, case-insensitively.
// Unknown input is passed through as a raw value.
func lookupLabel(table map[string]string, s string) string {
	if s == "" {
		return ""
	}
	for label, value := range table {
		if strings.EqualFold(label, s) {
			return value
		}
	}
	return s
}

func pageArg(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	page, err := strconv.Atoi(args[0])
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page %q", args[0])
	}
	return page, nil
}

func movieIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid movie id %q", s)
	}
	return id, nil
}

func printPage(w io.Writer, a *app.App, p *tmdb.Page) error {
	if jsonOutput {
		return printJSON(w, p)
	}
	if len(p.Results) == 0 {
		fmt.Fprintln(w, "No movies found")
		return nil
	}
	fmt.Fprintf(w, "  %-8s │ %-40s │ %4s │ %4s │ %s\n", "ID", "TITLE", "YEAR", "★", "")
	fmt.Fprintln(w, "───────────┼──────────────────────────────────────────┼──────┼──────┼───")
	for _, m := range p.Results {
		mark := ""
		if a.Wishlist.Contains(m.ID) {
			mark = "♥"
		}
		fmt.Fprintf(w, "  %-8d │ %-40s │ %4s │ %4.1f │ %s\n",
			m.ID, truncate(m.Title, 40), yearString(m.Year()), m.VoteAverage, mark)
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d results)\n", p.Page, p.TotalPages, p.TotalResults)
	return nil
}

func printMovie(w io.Writer, m *tmdb.Movie, wished bool) {
	fmt.Fprintf(w, "%s (%s)\n", m.Title, yearString(m.Year()))
	if m.Tagline != "" {
		fmt.Fprintf(w, "  %s\n", m.Tagline)
	}
	fmt.Fprintf(w, "\n  ID:       %d\n", m.ID)
	fmt.Fprintf(w, "  Rating:   %.1f (%d votes)\n", m.VoteAverage, m.VoteCount)
	if m.Runtime > 0 {
		fmt.Fprintf(w, "  Runtime:  %d min\n", m.Runtime)
	}
	if len(m.Genres) > 0 {
		names := make([]string, len(m.Genres))
		for i, g := range m.Genres {
			names[i] = g.Name
		}
		fmt.Fprintf(w, "  Genres:   %s\n", strings.Join(names, ", "))
	}
	if url := m.PosterURL("w500"); url != "" {
		fmt.Fprintf(w, "  Poster:   %s\n", url)
	}
	if wished {
		fmt.Fprintln(w, "  Wishlist: ♥")
	}
	if m.Overview != "" {
		fmt.Fprintf(w, "\n%s\n", m.Overview)
	}
}

func yearString(year int) string {
	if year == 0 {
		return "----"
	}
	return strconv.Itoa(year)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
