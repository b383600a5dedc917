package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/calebfds/postline/internal/platform"
	"github.com/calebfds/postline/internal/repository"
	"github.com/calebfds/postline/pkg/utils"
)

// CredentialProvider decrypts an account's access token for a publish
// attempt. Plaintext tokens only ever live in memory here and in the
// platform client making the call.
type CredentialProvider interface {
	Credentials(ctx context.Context, accountID string) (platform.Credentials, error)
}

type credentialProvider struct {
	sa            repository.SocialAccountRepository
	encryptionKey string
}

func NewCredentialProvider(sa repository.SocialAccountRepository, encryptionKey string) CredentialProvider {
	return &credentialProvider{sa: sa, encryptionKey: encryptionKey}
}

func (p *credentialProvider) Credentials(ctx context.Context, accountID string) (platform.Credentials, error) {
	account, err := p.sa.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return platform.Credentials{}, ErrAccountNotFound
		}
		return platform.Credentials{}, err
	}
	if !account.IsActive {
		return platform.Credentials{}, ErrAccountInvalid
	}

	token, err := utils.Decrypt(account.AccessToken, []byte(p.encryptionKey))
	if err != nil {
		return platform.Credentials{}, fmt.Errorf("decrypting access token for account %s: %w", accountID, err)
	}

	return platform.Credentials{AccessToken: token}, nil
}
