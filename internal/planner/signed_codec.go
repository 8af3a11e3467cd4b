package planner

import (
	"errors"
	"fmt"
	"time"

	"canteen-planner/internal/catalog"

	"github.com/golang-jwt/jwt/v5"
)

const payloadIssuer = "canteen-planner"

type dishClaims struct {
	Dish catalog.Dish `json:"dish"`
	jwt.RegisteredClaims
}

// SignedCodec wraps the dish in an HS256 token so that a client holding the
// payload between drag and drop cannot alter its nutrition values.
type SignedCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSignedCodec creates a codec whose payloads expire after ttl.
// A zero ttl disables expiry.
func NewSignedCodec(secret string, ttl time.Duration) (*SignedCodec, error) {
	if secret == "" {
		return nil, errors.New("payload signing secret is empty")
	}
	return &SignedCodec{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (c *SignedCodec) Encode(d catalog.Dish) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := c.now()
	claims := dishClaims{
		Dish: d.Clone(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   payloadIssuer,
			Subject:  d.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign drag payload: %w", err)
	}
	return []byte(token), nil
}

func (c *SignedCodec) Decode(payload []byte) (catalog.Dish, error) {
	if len(payload) == 0 {
		return catalog.Dish{}, fmt.Errorf("%w: empty", ErrMalformedPayload)
	}

	claims := &dishClaims{}
	token, err := jwt.ParseWithClaims(
		string(payload),
		claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(payloadIssuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return catalog.Dish{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !token.Valid {
		return catalog.Dish{}, fmt.Errorf("%w: invalid token", ErrMalformedPayload)
	}
	if err := claims.Dish.Validate(); err != nil {
		return catalog.Dish{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return claims.Dish, nil
}
