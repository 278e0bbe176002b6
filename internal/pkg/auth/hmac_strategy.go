package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidToken = errors.New("invalid auth token")

// tokenVersion prefixes every signed payload so the format can evolve.
const tokenVersion = "pz1"

var tokenEncoding = base64.RawURLEncoding

// HMACStrategy signs staff tokens of the form base64url(payload).base64url(mac),
// where payload is "pz1:<staff id>:<unix expiry>".
type HMACStrategy struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACStrategy builds HMACStrategy with provided secret and options.
func NewHMACStrategy(secret string, opts Options) *HMACStrategy {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &HMACStrategy{secret: []byte(secret), ttl: ttl, now: now}
}

// IssueToken generates a signed token for the staff member.
func (s *HMACStrategy) IssueToken(staffID int64) (string, error) {
	if staffID <= 0 {
		return "", fmt.Errorf("issue token: invalid staff id %d", staffID)
	}
	expires := s.now().Add(s.ttl).Unix()
	payload := fmt.Sprintf("%s:%d:%d", tokenVersion, staffID, expires)
	return tokenEncoding.EncodeToString([]byte(payload)) + "." + tokenEncoding.EncodeToString(s.sign(payload)), nil
}

// ParseToken validates token and returns the staff id it was issued for.
func (s *HMACStrategy) ParseToken(token string) (int64, error) {
	encodedPayload, encodedSig, ok := strings.Cut(token, ".")
	if !ok {
		return 0, ErrInvalidToken
	}

	payload, err := tokenEncoding.DecodeString(encodedPayload)
	if err != nil {
		return 0, ErrInvalidToken
	}
	sig, err := tokenEncoding.DecodeString(encodedSig)
	if err != nil {
		return 0, ErrInvalidToken
	}
	if !hmac.Equal(sig, s.sign(string(payload))) {
		return 0, ErrInvalidToken
	}

	parts := strings.Split(string(payload), ":")
	if len(parts) != 3 || parts[0] != tokenVersion {
		return 0, ErrInvalidToken
	}

	staffID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || staffID <= 0 {
		return 0, ErrInvalidToken
	}

	expires, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}

	if !s.now().Before(time.Unix(expires, 0)) {
		return 0, ErrInvalidToken
	}

	return staffID, nil
}

func (s *HMACStrategy) Name() string {
	return "hmac-sha256"
}

func (s *HMACStrategy) sign(payload string) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
