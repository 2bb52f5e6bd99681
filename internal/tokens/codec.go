package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Class string

const (
	Access  Class = "access"
	Refresh Class = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Type Class `json:"typ"`
	jwt.RegisteredClaims
}

// Pair is issued together and never mutated; a refresh always issues a new one.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

type Option func(*Codec)

func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func WithTTL(access, refresh time.Duration) Option {
	return func(c *Codec) {
		c.accessTTL = access
		c.refreshTTL = refresh
	}
}

func NewCodec(accessSecret, refreshSecret []byte, opts ...Option) (*Codec, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, errors.New("token secrets must not be empty")
	}
	if string(accessSecret) == string(refreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	c := &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     15 * time.Minute,
		refreshTTL:    7 * 24 * time.Hour,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

func (c *Codec) secret(class Class) ([]byte, error) {
	switch class {
	case Access:
		return c.accessSecret, nil
	case Refresh:
		return c.refreshSecret, nil
	default:
		return nil, fmt.Errorf("unknown token class %q", class)
	}
}

func (c *Codec) sign(userID string, class Class, now time.Time, ttl time.Duration) (string, time.Time, error) {
	secret, err := c.secret(class)
	if err != nil {
		return "", time.Time{}, err
	}
	exp := now.Add(ttl)
	claims := Claims{
		Type: class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Issue signs a fresh access/refresh pair for userID.
func (c *Codec) Issue(userID string) (Pair, error) {
	if userID == "" {
		return Pair{}, errors.New("empty user id")
	}
	// NumericDate has second precision; align so exp in the token equals the returned time.
	now := c.now().Truncate(time.Second)

	access, accessExp, err := c.sign(userID, Access, now, c.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := c.sign(userID, Refresh, now, c.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify returns the user id bound to token. Every failure wraps ErrInvalidToken;
// expiry additionally wraps jwt.ErrTokenExpired. A token is expired at exp itself.
func (c *Codec) Verify(token string, class Class) (string, error) {
	secret, err := c.secret(class)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims Claims
	_, err = jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Type != class {
		return "", fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, class, claims.Type)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
