// Package identity tracks who is using the client: nobody, a local email
// account, or a social (Kakao) login. It persists every transition and tells
// registered listeners about it so wishlist partitions can follow.
package identity

import (
	"strconv"
	"strings"
)

// Kind is the session variant.
type Kind string

const (
	KindAnonymous Kind = "anonymous"
	KindEmail     Kind = "email"
	KindSocial    Kind = "social"
)

// FallbackName is shown when neither a nickname nor an email is known.
const FallbackName = "User"

// Profile is the social provider's user record as stored under user_info.
type Profile struct {
	ID           int64         `json:"id"`
	KakaoAccount *KakaoAccount `json:"kakao_account,omitempty"`
}

// KakaoAccount holds the account section of a Kakao user record.
type KakaoAccount struct {
	Email   string          `json:"email,omitempty"`
	Profile *AccountProfile `json:"profile,omitempty"`
}

// AccountProfile holds the public profile of a Kakao account.
type AccountProfile struct {
	Nickname        string `json:"nickname,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

// Nickname returns the profile nickname, or "" if absent.
func (p *Profile) Nickname() string {
	if p == nil || p.KakaoAccount == nil || p.KakaoAccount.Profile == nil {
		return ""
	}
	return p.KakaoAccount.Profile.Nickname
}

// Session is exactly one of anonymous, email or social. Only the fields of
// the active Kind are set.
type Session struct {
	Kind    Kind
	Email   string
	Token   string
	Profile *Profile
}

// Anonymous is the zero identity.
func Anonymous() Session {
	return Session{Kind: KindAnonymous}
}

// Authenticated reports whether the session is not anonymous.
func (s Session) Authenticated() bool {
	return s.Kind == KindEmail || s.Kind == KindSocial
}

// PartitionKey selects this identity's wishlist partition:
// kakao_<userId>, email_<address> or anonymous.
func (s Session) PartitionKey() string {
	switch s.Kind {
	case KindSocial:
		var id int64
		if s.Profile != nil {
			id = s.Profile.ID
		}
		return "kakao_" + strconv.FormatInt(id, 10)
	case KindEmail:
		return "email_" + s.Email
	default:
		return "anonymous"
	}
}

// DisplayName is the social nickname, else the local part of the email, else FallbackName.
func (s Session) DisplayName() string {
	if nick := s.Profile.Nickname(); nick != "" {
		return nick
	}
	if local, _, _ := strings.Cut(s.Email, "@"); local != "" {
		return local
	}
	return FallbackName
}

func (s Session) socialUserID() int64 {
	if s.Profile == nil {
		return 0
	}
	return s.Profile.ID
}

// watchKey is the tuple whose change triggers listeners.
type watchKey struct {
	authenticated bool
	email         string
	token         string
}

func (s Session) watchKey() watchKey {
	return watchKey{authenticated: s.Authenticated(), email: s.Email, token: s.Token}
}
