// AngelaMos | 2026
// jwt.go

package auth

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/identity-service/internal/claims"
	"github.com/carterperez-dev/identity-service/internal/config"
	"github.com/carterperez-dev/identity-service/internal/core"
)

var (
	ErrMalformedToken     = fmt.Errorf("malformed token: %w", core.ErrTokenInvalid)
	ErrAlgorithmMismatch  = fmt.Errorf("algorithm mismatch: %w", core.ErrTokenInvalid)
	ErrSignatureMismatch  = fmt.Errorf("signature mismatch: %w", core.ErrTokenInvalid)
	ErrIssuerMismatch     = fmt.Errorf("issuer mismatch: %w", core.ErrTokenInvalid)
	ErrAudienceMismatch   = fmt.Errorf("audience mismatch: %w", core.ErrTokenInvalid)
	ErrTokenLifetime      = fmt.Errorf("token lifetime: %w", core.ErrTokenInvalid)
	ErrAccessTokenExpired = fmt.Errorf(
		"%w: %w",
		core.ErrTokenExpired,
		core.ErrTokenInvalid,
	)
)

// registeredClaims are the JWT claim names that never carry identity claims.
var registeredClaims = map[string]struct{}{
	jwt.AudienceKey:   {},
	jwt.ExpirationKey: {},
	jwt.IssuedAtKey:   {},
	jwt.IssuerKey:     {},
	jwt.JwtIDKey:      {},
	jwt.NotBeforeKey:  {},
	jwt.SubjectKey:    {},
}

// claimOrder puts the standard vocabulary first when a token is decoded.
var claimOrder = []string{
	claims.TypeNameIdentifier,
	claims.TypeName,
	claims.TypeSurname,
	claims.TypeEmail,
	claims.TypeMobilePhone,
	claims.TypeRole,
	claims.TypePermission,
}

// Signer issues and verifies HS256 access tokens. It is safe for concurrent
// use; the key is read-only after construction.
type Signer struct {
	key      jwk.Key
	alg      jwa.SignatureAlgorithm
	issuer   string
	audience string
	now      func() time.Time
}

func NewSigner(cfg config.TokenConfig) (*Signer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("signing secret is empty")
	}

	key, err := jwk.Import([]byte(cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("import signing key: %w", err)
	}

	return &Signer{
		key:      key,
		alg:      jwa.HS256(),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}, nil
}

type VerifyOptions struct {
	// IgnoreLifetime accepts a token past its expiry. Only the refresh flow
	// sets it.
	IgnoreLifetime bool
}

type VerifiedToken struct {
	Claims    *claims.Set
	Subject   string
	ExpiresAt time.Time
}

// Sign encodes set as private claims: one value becomes a string, several
// become an array.
func (s *Signer) Sign(set *claims.Set, expiresAt time.Time) (string, error) {
	now := s.now()

	builder := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		IssuedAt(now).
		Expiration(expiresAt)

	if s.issuer != "" {
		builder = builder.Issuer(s.issuer)
	}
	if s.audience != "" {
		builder = builder.Audience([]string{s.audience})
	}
	if sub, ok := set.First(claims.TypeNameIdentifier); ok {
		builder = builder.Subject(sub)
	}

	for _, claimType := range set.Types() {
		if _, reserved := registeredClaims[claimType]; reserved {
			return "", fmt.Errorf("claim type %q is reserved", claimType)
		}

		values := set.Values(claimType)
		if len(values) == 1 {
			builder = builder.Claim(claimType, values[0])
			continue
		}
		builder = builder.Claim(claimType, values)
	}

	token, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(s.alg, s.key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

func (s *Signer) Verify(
	tokenString string,
	opts VerifyOptions,
) (*VerifiedToken, error) {
	raw := []byte(tokenString)

	if err := s.checkAlgorithm(raw); err != nil {
		return nil, err
	}

	token, err := jwt.Parse(
		raw,
		jwt.WithKey(s.alg, s.key),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", ErrSignatureMismatch)
	}

	if err := jwt.Validate(token, s.validateOptions(opts)...); err != nil {
		return nil, fmt.Errorf("verify token: %w", classifyValidationError(err))
	}

	set, err := decodeClaims(token)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	exp, _ := token.Expiration()
	sub, _ := token.Subject()

	return &VerifiedToken{
		Claims:    set,
		Subject:   sub,
		ExpiresAt: exp,
	}, nil
}

// checkAlgorithm rejects any token whose protected header names an
// algorithm other than the signer's, before the signature is looked at.
func (s *Signer) checkAlgorithm(raw []byte) error {
	msg, err := jws.Parse(raw)
	if err != nil {
		return fmt.Errorf("verify token: %w", ErrMalformedToken)
	}

	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return fmt.Errorf("verify token: %w", ErrMalformedToken)
	}

	headers := sigs[0].ProtectedHeaders()
	if headers == nil {
		return fmt.Errorf("verify token: %w", ErrMalformedToken)
	}

	alg, ok := headers.Algorithm()
	if !ok || alg.String() != s.alg.String() {
		return fmt.Errorf("verify token: %w", ErrAlgorithmMismatch)
	}

	return nil
}

func (s *Signer) validateOptions(opts VerifyOptions) []jwt.ValidateOption {
	out := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(s.now)),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
	}

	if opts.IgnoreLifetime {
		out = append(out, jwt.WithResetValidators(true))
	}
	if s.issuer != "" {
		out = append(out, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		out = append(out, jwt.WithAudience(s.audience))
	}

	return out
}

func classifyValidationError(err error) error {
	switch {
	case errors.Is(err, jwt.TokenExpiredError()):
		return ErrAccessTokenExpired
	case errors.Is(err, jwt.InvalidIssuerError()):
		return ErrIssuerMismatch
	case errors.Is(err, jwt.InvalidAudienceError()):
		return ErrAudienceMismatch
	case errors.Is(err, jwt.MissingRequiredClaimError()):
		return ErrMalformedToken
	default:
		return ErrTokenLifetime
	}
}

func decodeClaims(token jwt.Token) (*claims.Set, error) {
	var private []string
	for _, k := range token.Keys() {
		if _, reserved := registeredClaims[k]; !reserved {
			private = append(private, k)
		}
	}

	sort.SliceStable(private, func(i, j int) bool {
		return claimRank(private[i]) < claimRank(private[j]) ||
			(claimRank(private[i]) == claimRank(private[j]) &&
				private[i] < private[j])
	})

	set := claims.NewSet()
	for _, claimType := range private {
		var raw any
		if err := token.Get(claimType, &raw); err != nil {
			return nil, ErrMalformedToken
		}

		values, err := claimValues(raw)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			set.Add(claims.New(claimType, v))
		}
	}

	return set, nil
}

func claimRank(claimType string) int {
	if i := slices.Index(claimOrder, claimType); i >= 0 {
		return i
	}
	return len(claimOrder)
}

func claimValues(raw any) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, ErrMalformedToken
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, ErrMalformedToken
	}
}
