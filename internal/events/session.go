package events

// SessionChanged is emitted on every identity transition.
type SessionChanged struct {
	BaseEvent
	Kind          string `json:"kind"` // "anonymous", "email", "social"
	Email         string `json:"email,omitempty"`
	SocialUserID  int64  `json:"social_user_id,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

// NewSessionChanged builds a SessionChanged event.
func NewSessionChanged(kind, email string, socialUserID int64) *SessionChanged {
	return &SessionChanged{
		BaseEvent:     NewBaseEvent(EventSessionChanged, "session", socialUserID),
		Kind:          kind,
		Email:         email,
		SocialUserID:  socialUserID,
		Authenticated: kind != "anonymous",
	}
}
