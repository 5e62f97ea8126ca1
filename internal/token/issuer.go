// Package token mints and verifies the two token kinds the SSO flow needs:
// short-lived signup tokens carrying a canonical profile (pre-registration)
// and session tokens (post-registration).
package token

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/greenmarket/sso/internal/domain/repository"
	"github.com/greenmarket/sso/internal/provider"
)

var (
	// ErrExpired indicates the token's exp is in the past.
	ErrExpired = errors.New("token expired")

	// ErrInvalid indicates the token is malformed, has a bad signature, or
	// carries the wrong purpose claim.
	ErrInvalid = errors.New("token invalid")
)

// SignupTTL is how long a signup token stays usable. The profile it carries
// is transient; ten minutes covers the registration form round-trip.
const SignupTTL = 10 * time.Minute

const defaultSessionTTL = 24 * time.Hour

const (
	purposeSignup  = "signup"
	purposeSession = "session"
)

// Issuer signs and verifies tokens with an HMAC secret.
type Issuer struct {
	iss        string
	secret     []byte
	sessionTTL time.Duration
}

// NewIssuer creates an issuer. sessionTTL <= 0 falls back to 24h.
func NewIssuer(iss string, secret []byte, sessionTTL time.Duration) *Issuer {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Issuer{iss: iss, secret: secret, sessionTTL: sessionTTL}
}

// SignupPayload is what a verified signup token yields.
type SignupPayload struct {
	JTI     string
	Profile provider.CanonicalProfile
}

// IssueSignupToken mints a signup token carrying the canonical profile.
// Expires in exactly SignupTTL.
func (i *Issuer) IssueSignupToken(p *provider.CanonicalProfile) (string, error) {
	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"iss":        i.iss,
		"jti":        uuid.NewString(),
		"iat":        now.Unix(),
		"nbf":        now.Unix(),
		"exp":        now.Add(SignupTTL).Unix(),
		"purpose":    purposeSignup,
		"provider":   p.Provider,
		"externalId": p.ExternalID,
		"name":       p.Name,
		"email":      p.Email,
		"phone":      p.Phone,
		"birthYear":  p.BirthYear,
		"birthday":   p.Birthday,
		"gender":     p.Gender,
		"accessTok":  p.AccessToken,
		"refreshTok": p.RefreshToken,
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return tk.SignedString(i.secret)
}

// VerifySignupToken validates a signup token and reconstructs the profile.
func (i *Issuer) VerifySignupToken(raw string) (*SignupPayload, error) {
	claims, err := i.parse(raw, purposeSignup)
	if err != nil {
		return nil, err
	}
	jti, _ := claims["jti"].(string)
	return &SignupPayload{
		JTI: jti,
		Profile: provider.CanonicalProfile{
			Provider:     strClaim(claims, "provider"),
			ExternalID:   strClaim(claims, "externalId"),
			Name:         strClaim(claims, "name"),
			Email:        strClaim(claims, "email"),
			Phone:        strClaim(claims, "phone"),
			BirthYear:    strClaim(claims, "birthYear"),
			Birthday:     strClaim(claims, "birthday"),
			Gender:       strClaim(claims, "gender"),
			AccessToken:  strClaim(claims, "accessTok"),
			RefreshToken: strClaim(claims, "refreshTok"),
		},
	}, nil
}

// SessionPayload is what a verified session token yields.
type SessionPayload struct {
	UserID int64
	Role   string
	Store  string
}

// IssueSessionToken mints a session token for an authenticated user.
// storeCtx is optional caller context carried opaquely in the token.
func (i *Issuer) IssueSessionToken(u *repository.User, storeCtx string) (string, error) {
	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"iss":     i.iss,
		"sub":     fmt.Sprintf("%d", u.ID),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
		"exp":     now.Add(i.sessionTTL).Unix(),
		"purpose": purposeSession,
		"role":    u.Role,
	}
	if storeCtx != "" {
		claims["store"] = storeCtx
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return tk.SignedString(i.secret)
}

// VerifySessionToken validates a session token.
func (i *Issuer) VerifySessionToken(raw string) (*SessionPayload, error) {
	claims, err := i.parse(raw, purposeSession)
	if err != nil {
		return nil, err
	}
	var userID int64
	if _, err := fmt.Sscanf(strClaim(claims, "sub"), "%d", &userID); err != nil || userID <= 0 {
		return nil, ErrInvalid
	}
	return &SessionPayload{
		UserID: userID,
		Role:   strClaim(claims, "role"),
		Store:  strClaim(claims, "store"),
	}, nil
}

func (i *Issuer) parse(raw, purpose string) (jwtv5.MapClaims, error) {
	tok, err := jwtv5.Parse(raw,
		func(t *jwtv5.Token) (any, error) { return i.secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(i.iss),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrInvalid
	}
	if strClaim(claims, "purpose") != purpose {
		return nil, ErrInvalid
	}
	return claims, nil
}

func strClaim(m jwtv5.MapClaims, k string) string {
	s, _ := m[k].(string)
	return s
}
