// Package session mints and validates signed, expiring session tokens.
//
// Token layout:
//
//	base64(JSON payload) + "." + hex(HMAC-SHA256(base64 payload, key))
//
// Every token is also stored server-side with an active flag so it can be
// revoked before it expires.
package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/clock"
	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/repositories/metadata"
	"github.com/dmitrijs2005/faceguard/internal/repositories/sessions"
)

const (
	DefaultValidity = 30 * time.Minute

	// KeyName is the metadata key holding the signing secret.
	KeyName = "session_signing_key"

	keySize   = 32
	nonceSize = 8
	separator = "."
)

// Payload is the signed body of a token.
type Payload struct {
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
	Nonce     string `json:"nonce"`
}

// Expires parses ExpiresAt.
func (p *Payload) Expires() (time.Time, error) {
	return time.ParseInLocation(common.TimestampLayout, p.ExpiresAt, time.UTC)
}

type Issuer struct {
	repo     sessions.Repository
	key      []byte
	clock    clock.Clock
	validity time.Duration
}

type Option func(*Issuer)

func WithClock(c clock.Clock) Option {
	return func(i *Issuer) { i.clock = c }
}

func WithValidity(d time.Duration) Option {
	return func(i *Issuer) {
		if d > 0 {
			i.validity = d
		}
	}
}

func NewIssuer(repo sessions.Repository, key []byte, opts ...Option) (*Issuer, error) {
	if len(key) == 0 {
		return nil, errors.New("session: empty signing key")
	}
	i := &Issuer{
		repo:     repo,
		key:      key,
		clock:    clock.Real(),
		validity: DefaultValidity,
	}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

// LoadOrCreateKey returns the persisted signing key, generating it on first
// use. Once stored the key is never replaced, even if several processes
// race to create it.
func LoadOrCreateKey(ctx context.Context, meta metadata.Repository) ([]byte, error) {
	candidate, err := common.MakeRandHexString(keySize)
	if err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	key, err := meta.GetOrCreate(ctx, KeyName, []byte(candidate))
	if err != nil {
		return nil, fmt.Errorf("load session key: %w", err)
	}
	return key, nil
}

// Create issues and persists a token for username.
func (i *Issuer) Create(ctx context.Context, username string) (string, error) {
	nonce, err := common.MakeRandHexString(nonceSize)
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	created := i.clock.Now().UTC().Truncate(time.Second)
	expires := created.Add(i.validity)

	body, err := json.Marshal(Payload{
		Username:  username,
		CreatedAt: created.Format(common.TimestampLayout),
		ExpiresAt: expires.Format(common.TimestampLayout),
		Nonce:     nonce,
	})
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(body)
	token := encoded + separator + i.sign(encoded)

	_, err = i.repo.Create(ctx, &models.Session{
		Username:  username,
		Token:     token,
		CreatedAt: created,
		ExpiresAt: expires,
	})
	if err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}

	return token, nil
}

// Validate returns the payload of a live token. Malformed, forged, expired
// and revoked tokens all yield common.ErrorInvalidSession. An expired token
// that is still marked active is deactivated as a side effect.
func (i *Issuer) Validate(ctx context.Context, token string) (*Payload, error) {
	idx := strings.LastIndex(token, separator)
	if idx < 0 {
		return nil, common.ErrorInvalidSession
	}
	encoded, sig := token[:idx], token[idx+1:]

	if !hmac.Equal([]byte(i.sign(encoded)), []byte(sig)) {
		return nil, common.ErrorInvalidSession
	}

	body, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, common.ErrorInvalidSession
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, common.ErrorInvalidSession
	}
	expires, err := p.Expires()
	if err != nil {
		return nil, common.ErrorInvalidSession
	}

	if !i.clock.Now().Before(expires) {
		if _, err := i.repo.Deactivate(ctx, token); err != nil {
			return nil, fmt.Errorf("deactivate expired session: %w", err)
		}
		return nil, common.ErrorInvalidSession
	}

	s, err := i.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !s.Active || s.Username != p.Username {
		return nil, common.ErrorInvalidSession
	}

	return &p, nil
}

// Invalidate marks token inactive. Unknown or already inactive tokens are
// not an error.
func (i *Issuer) Invalidate(ctx context.Context, token string) error {
	if _, err := i.repo.Deactivate(ctx, token); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	return nil
}

// InvalidateUser deactivates every active session of username.
func (i *Issuer) InvalidateUser(ctx context.Context, username string) (int64, error) {
	n, err := i.repo.DeactivateByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("invalidate sessions of %s: %w", username, err)
	}
	return n, nil
}

// ListActive returns active sessions, newest first.
func (i *Issuer) ListActive(ctx context.Context) ([]*models.Session, error) {
	return i.repo.ListActive(ctx)
}

func (i *Issuer) sign(encoded string) string {
	mac := hmac.New(sha256.New, i.key)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
