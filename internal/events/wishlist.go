package events

import "github.com/vmunix/moviedeck/internal/tmdb"

// Event types.
const (
	EventWishlistChanged = "wishlist.changed"
	EventWishlistLoaded  = "wishlist.loaded"
	EventSessionChanged  = "session.changed"
)

// WishlistChanged is emitted after every toggle. It carries the full list so
// observers never need to read storage.
type WishlistChanged struct {
	BaseEvent
	Partition string              `json:"partition"`
	MovieID   int64               `json:"movie_id"`
	Title     string              `json:"title"`
	Added     bool                `json:"added"`
	Wishlist  []tmdb.MovieSummary `json:"wishlist"`
}

// NewWishlistChanged builds a WishlistChanged for the toggled movie.
func NewWishlistChanged(partition string, movie tmdb.MovieSummary, added bool, wishlist []tmdb.MovieSummary) *WishlistChanged {
	return &WishlistChanged{
		BaseEvent: NewBaseEvent(EventWishlistChanged, "wishlist", movie.ID),
		Partition: partition,
		MovieID:   movie.ID,
		Title:     movie.Title,
		Added:     added,
		Wishlist:  wishlist,
	}
}

// WishlistLoaded is emitted when a partition is (re)loaded from storage.
type WishlistLoaded struct {
	BaseEvent
	Partition string `json:"partition"`
	Count     int    `json:"count"`
}

// NewWishlistLoaded builds a WishlistLoaded event.
func NewWishlistLoaded(partition string, count int) *WishlistLoaded {
	return &WishlistLoaded{
		BaseEvent: NewBaseEvent(EventWishlistLoaded, "wishlist", 0),
		Partition: partition,
		Count:     count,
	}
}
