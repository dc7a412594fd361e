package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"finance-tracker/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Rejection reasons. The error text is what clients see.
var (
	ErrNoToken      = errors.New("No token provided, authorization denied")
	ErrEmptyToken   = errors.New("No token, authorization denied")
	ErrTokenExpired = errors.New("Token has expired")
	ErrTokenInvalid = errors.New("Invalid token")
	ErrUserNotFound = errors.New("Token is not valid - user not found")
)

const bearerPrefix = "Bearer "

// Claims is the JWT payload issued to a logged-in user.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Issuer signs tokens for authenticated users.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer signing with HS256.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// UserLookup resolves a user id to a user. Implemented by the store.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Verifier turns an Authorization header into a user.
type Verifier struct {
	secret []byte
	users  UserLookup
	now    func() time.Time
}

// NewVerifier creates a Verifier that trusts tokens signed with secret.
func NewVerifier(secret string, users UserLookup) *Verifier {
	return &Verifier{secret: []byte(secret), users: users, now: time.Now}
}

// Authenticate validates header ("Bearer <token>") and resolves its user.
// Every failure is reported as one of the Err* values above; a failed user
// lookup, whatever its cause, is ErrUserNotFound.
func (v *Verifier) Authenticate(ctx context.Context, header string) (*models.User, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, ErrNoToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" {
		return nil, ErrEmptyToken
	}

	claims, err := v.parse(raw)
	if err != nil {
		return nil, err
	}

	user, err := v.users.GetUserByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}
	user.PasswordHash = ""
	return user, nil
}

func (v *Verifier) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrTokenInvalid
	}
	if claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// IsAuthError reports whether err is one of the rejection reasons.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNoToken) ||
		errors.Is(err, ErrEmptyToken) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrUserNotFound)
}
