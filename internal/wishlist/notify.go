package wishlist

import "context"

// Kind distinguishes additions from removals.
type Kind string

const (
	KindAdded   Kind = "added"
	KindRemoved Kind = "removed"
)

// Notification is the user-visible message for one toggle.
type Notification struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

func newNotification(kind Kind, title string) Notification {
	msg := "'" + title + "' added to your wishlist!"
	if kind == KindRemoved {
		msg = "'" + title + "' removed from your wishlist."
	}
	return Notification{Kind: kind, Title: title, Message: msg}
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

type discard struct{}

func (discard) Notify(context.Context, Notification) {}
