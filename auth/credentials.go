// Package auth verifies the administrator's credentials and issues the signed
// token that proves an authenticated session.
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyeyeon57/portfolio-backoffice/config"
	"github.com/hyeyeon57/portfolio-backoffice/errs"
)

const (
	defaultUsername = "admin"
	defaultPassword = "changeme"
)

// Verifier checks submitted credentials against the configured administrator.
type Verifier struct {
	username     string
	password     string
	passwordHash []byte
}

func NewVerifier(username, password, passwordHash string) *Verifier {
	return &Verifier{
		username:     strings.TrimSpace(username),
		password:     strings.TrimSpace(password),
		passwordHash: []byte(strings.TrimSpace(passwordHash)),
	}
}

// NewVerifierFromConfig reads ADMIN_USERNAME, ADMIN_PASSWORD and the optional
// bcrypt ADMIN_PASSWORD_HASH, falling back to fixed defaults.
func NewVerifierFromConfig(cfg map[string]string) *Verifier {
	username := config.GetString(cfg, "ADMIN_USERNAME", "")
	password := config.GetString(cfg, "ADMIN_PASSWORD", "")
	hash := config.GetString(cfg, "ADMIN_PASSWORD_HASH", "")

	if username == "" {
		username = defaultUsername
		log.Warn().Msg("ADMIN_USERNAME not set, using default")
	}
	if password == "" && hash == "" {
		password = defaultPassword
		log.Warn().Msg("ADMIN_PASSWORD not set, using default password")
	}
	return NewVerifier(username, password, hash)
}

// Verify trims both inputs and compares them with the configured pair. An
// empty field yields a missing-credentials error; a mismatch yields an
// invalid-credentials error.
func (v *Verifier) Verify(username, password string) error {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return errs.NewMissingCredentialsError()
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	passOK := v.passwordMatches(password)
	if !userOK || !passOK {
		return errs.NewInvalidCredentialsError()
	}
	return nil
}

func (v *Verifier) passwordMatches(password string) bool {
	if len(v.passwordHash) > 0 {
		return bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(v.password)) == 1
}
