package service

import (
	"context"
	"encoding/base64"

	"gocloud.dev/secrets"

	apperrors "github.com/allisson/authguard/internal/errors"

	// Register KMS provider drivers.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// SigningSecrets holds the decoded token signing secrets.
type SigningSecrets struct {
	Access  []byte
	Refresh []byte
}

// LoadSigningSecrets resolves the configured signing secrets. Without a KMS
// key URI the env values are used as-is. With one, the env values are treated
// as base64 ciphertext and decrypted through the KMS keeper, so plaintext
// signing keys never sit in the environment of a production deployment.
//
// Supported URI schemes: gcpkms://, awskms://, azurekeyvault://, hashivault://,
// base64key:// (local development).
func LoadSigningSecrets(ctx context.Context, kmsKeyURI, accessSecret, refreshSecret string) (*SigningSecrets, error) {
	if kmsKeyURI == "" {
		return &SigningSecrets{
			Access:  []byte(accessSecret),
			Refresh: []byte(refreshSecret),
		}, nil
	}

	keeper, err := secrets.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open KMS keeper")
	}
	defer keeper.Close()

	access, err := decryptSecret(ctx, keeper, accessSecret)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decrypt access token secret")
	}

	var refresh []byte
	if refreshSecret != "" {
		refresh, err = decryptSecret(ctx, keeper, refreshSecret)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to decrypt refresh token secret")
		}
	}

	return &SigningSecrets{Access: access, Refresh: refresh}, nil
}

// decryptSecret base64-decodes and KMS-decrypts a single secret value.
func decryptSecret(ctx context.Context, keeper *secrets.Keeper, encoded string) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperrors.Wrap(err, "secret is not valid base64")
	}

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, err
	}

	return plaintext, nil
}
