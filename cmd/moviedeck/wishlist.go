package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/moviedeck/internal/app"
)

var wishlistCmd = &cobra.Command{
	Use:   "wishlist",
	Short: "Manage the current user's wishlist",
}

var wishlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wishlisted movies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(a *app.App) error {
			items := a.Wishlist.Items()
			w := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(w, map[string]any{
					"partition": a.Wishlist.Partition(),
					"wishlist":  items,
				})
			}
			if len(items) == 0 {
				fmt.Fprintf(w, "Wishlist for %s is empty\n", a.Identity.DisplayName())
				return nil
			}
			fmt.Fprintf(w, "Wishlist for %s (%d):\n\n", a.Identity.DisplayName(), len(items))
			for _, m := range items {
				fmt.Fprintf(w, "  %-8d %s (%s)\n", m.ID, m.Title, yearString(m.Year()))
			}
			return nil
		})
	},
}

var wishlistToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Add a movie to the wishlist, or remove it if present",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := movieIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			ctx := cmd.Context()
			m, err := a.Catalog.GetMovieDetails(ctx, id)
			if err != nil {
				return err
			}
			added, err := a.Wishlist.Toggle(ctx, m.Summary())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"id":    m.ID,
					"title": m.Title,
					"added": added,
				})
			}
			return nil
		})
	},
}

var wishlistCheckCmd = &cobra.Command{
	Use:   "check <id>",
	Short: "Report whether a movie is wishlisted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := movieIDArg(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, func(a *app.App) error {
			in := a.Wishlist.Contains(id)
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "wishlisted": in})
			}
			if in {
				fmt.Fprintf(cmd.OutOrStdout(), "%d is in the wishlist\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%d is not in the wishlist\n", id)
			}
			return nil
		})
	},
}

var wishlistFindCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Fuzzy-search wishlist titles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, func(a *app.App) error {
			matches := a.Wishlist.Find(args[0], limit)
			w := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(w, matches)
			}
			if len(matches) == 0 {
				fmt.Fprintln(w, "No matches")
				return nil
			}
			for _, m := range matches {
				fmt.Fprintf(w, "  %-8d %-40s %.2f\n", m.Movie.ID, truncate(m.Movie.Title, 40), m.Score)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(wishlistCmd)
	wishlistCmd.AddCommand(wishlistListCmd, wishlistToggleCmd, wishlistCheckCmd, wishlistFindCmd)
	wishlistFindCmd.Flags().Int("limit", 10, "Maximum matches (0 for all)")
}
