package identity

import "context"

//go:generate mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks

// StatusConnected is the StatusInfo result for a live social session.
const StatusConnected = "connected"

// SocialProvider is the external social-auth service.
type SocialProvider interface {
	// AccessToken returns the provider's current token, or "" when it holds no session.
	AccessToken() string
	// SetAccessToken hands the provider the token obtained at login ("" to forget it).
	SetAccessToken(token string)
	// StatusInfo reports the token's connection status, e.g. StatusConnected.
	StatusInfo(ctx context.Context) (string, error)
	// Logout ends the provider-side session.
	Logout(ctx context.Context) error
}
