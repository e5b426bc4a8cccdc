package emitter

import (
	"context"
	"os"

	dErrors "setforge/pkg/domain-errors"
)

// Credentials is the secret material one emission needs. BearerToken is
// optional; the other two are required and their absence is a fatal
// configuration error, never a retry candidate.
type Credentials struct {
	SigningKey  string
	KeyID       string
	BearerToken string
}

// CredentialProvider supplies signing credentials per invocation. Injected so
// the service can be tested with fakes and so credential-missing errors stay
// localized to one validation step.
//
//go:generate mockgen -source=secrets.go -destination=mocks/mock_secrets.go -package=mocks
type CredentialProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

const (
	envSigningKey  = "SSF_KEY"
	envKeyID       = "SSF_KEY_ID"
	envBearerToken = "AUTH_TOKEN"
)

// EnvProvider reads credentials from the process environment, the way the
// hosting pipeline delivers them.
type EnvProvider struct{}

func (EnvProvider) Credentials(_ context.Context) (Credentials, error) {
	return Credentials{
		SigningKey:  os.Getenv(envSigningKey),
		KeyID:       os.Getenv(envKeyID),
		BearerToken: os.Getenv(envBearerToken),
	}, nil
}

// StaticProvider returns fixed credentials. Test and embedding convenience.
type StaticProvider struct {
	Creds Credentials
}

func (p StaticProvider) Credentials(_ context.Context) (Credentials, error) {
	return p.Creds, nil
}

// checkCredentials enforces the required secrets before any token work starts.
func checkCredentials(c Credentials) error {
	if c.SigningKey == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "missing required secret: SSF_KEY")
	}
	if c.KeyID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "missing required secret: SSF_KEY_ID")
	}
	return nil
}
