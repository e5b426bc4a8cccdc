package set

import (
	"crypto"

	"github.com/golang-jwt/jwt/v5"

	dErrors "setforge/pkg/domain-errors"
)

// SigningKey describes the caller-supplied key material used to sign a SET.
// The PEM block must decode as an asymmetric private key matching the declared
// algorithm family; KeyID lands in the token header for verifier key lookup.
type SigningKey struct {
	PEM       []byte
	Algorithm string
	KeyID     string
}

// materialize decodes the PEM key material for the given signing method.
// Malformed material is a fatal, non-retryable condition.
func materialize(key SigningKey, method jwt.SigningMethod) (crypto.PrivateKey, error) {
	var (
		pk  crypto.PrivateKey
		err error
	)
	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		pk, err = jwt.ParseRSAPrivateKeyFromPEM(key.PEM)
	case *jwt.SigningMethodECDSA:
		pk, err = jwt.ParseECPrivateKeyFromPEM(key.PEM)
	case *jwt.SigningMethodEd25519:
		pk, err = jwt.ParseEdPrivateKeyFromPEM(key.PEM)
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput,
			"signing method %s is not an asymmetric algorithm", method.Alg())
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid signing key material")
	}
	return pk, nil
}
