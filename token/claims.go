package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned for any token whose payload cannot be decoded into [Claims].
var ErrMalformed = errors.New("malformed token")

// Claims is the payload the auth endpoint signs into every access token.
type Claims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeUnverified splits raw into its three segments and decodes the middle
// one on its own. The header and signature are not inspected.
//
// Every failure, including a payload without a subject, wraps [ErrMalformed].
func DecodeUnverified(raw string) (*Claims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload encoding: %v", ErrMalformed, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload json: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	return &claims, nil
}

// decodeSegment accepts base64url (the JWT encoding) and falls back to the
// standard alphabet, which some issuers emit with padding.
func decodeSegment(seg string) ([]byte, error) {
	if seg == "" {
		return nil, errors.New("empty segment")
	}
	out, err := segmentParser.DecodeSegment(seg)
	if err == nil {
		return out, nil
	}
	if std, stdErr := base64.StdEncoding.DecodeString(seg); stdErr == nil {
		return std, nil
	}
	if std, stdErr := base64.RawStdEncoding.DecodeString(seg); stdErr == nil {
		return std, nil
	}
	return nil, err
}
