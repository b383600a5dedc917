package platform

import (
	"context"
	"fmt"

	config "github.com/calebfds/postline/configs"
	"github.com/calebfds/postline/internal/models"
)

// Credentials are decrypted at publish time and must never be persisted
// or written to logs.
type Credentials struct {
	AccessToken string
}

// Publisher posts content to one external platform and returns the
// platform-assigned post id.
type Publisher interface {
	Publish(ctx context.Context, creds Credentials, content string) (string, error)
}

// Registry maps a platform name to its publish client.
type Registry map[models.Platform]Publisher

func NewRegistry(cfg config.Config) Registry {
	return Registry{
		models.PlatformTwitter:  NewTwitterClient(),
		models.PlatformMastodon: NewMastodonClient(cfg.MastodonServer),
	}
}

func (r Registry) For(p models.Platform) (Publisher, error) {
	client, ok := r[p]
	if !ok {
		return nil, fmt.Errorf("no publish client for platform %q", p)
	}
	return client, nil
}
