package provider

import (
	"context"
	"fmt"

	"github.com/viant/onramp/internal/clock"
	"github.com/viant/onramp/model"
	"github.com/viant/scy"
	_ "github.com/viant/scy/kms/blowfish"
)

// SecretStore persists client secrets through viant/scy and hands out
// masked references only.
type SecretStore struct {
	service *scy.Service
	baseURL string
	prefix  string
	key     string
}

// NewSecretStore creates a secret provider. baseURL roots the secret
// resources (e.g. mem://localhost/secrets for tests, an encrypted bucket in
// deployments); key names the scy encryption key, e.g. blowfish://default.
func NewSecretStore(baseURL, prefix, key string) *SecretStore {
	if prefix == "" {
		prefix = "onboarding"
	}
	return &SecretStore{
		service: scy.New(),
		baseURL: baseURL,
		prefix:  prefix,
		key:     key,
	}
}

// Store encrypts and stores the raw secret, returning a reference carrying
// the storage name and the last-4-characters mask. The raw secret is never
// part of the returned evidence.
func (s *SecretStore) Store(ctx context.Context, client string, kind model.EnvKind, secret string) (*model.SecretRef, error) {
	if secret == "" {
		return nil, fmt.Errorf("client secret was empty")
	}
	name := fmt.Sprintf("%v/%v/%v/client_secret", s.prefix, model.NormalizeName(client), kind)
	resource := scy.NewResource(nil, fmt.Sprintf("%v/%v", s.baseURL, name), s.key)
	if err := s.service.Store(ctx, scy.NewSecret(secret, resource)); err != nil {
		return nil, fmt.Errorf("failed to store secret %v: %w", name, err)
	}
	mask := "****"
	if len(secret) >= 4 {
		mask += secret[len(secret)-4:]
	}
	return &model.SecretRef{
		Name:      name,
		Mask:      mask,
		CreatedAt: clock.Now(),
	}, nil
}
