// Package secrets optionally fetches the JWT signing secret from Vault,
// falling back to the env-provided secret when Vault isn't configured.
// Adapted from the teacher's internal/config/config.go VaultClient.
package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

// Resolver fetches the current JWT secret, preferring Vault when configured.
type Resolver struct {
	client     *vault.Client
	mountPath  string
	secretPath string
	fallback   string
}

// NewResolver builds a Resolver. If addr is empty, Vault is not used and
// Get always returns fallback.
func NewResolver(addr, token, mountPath, secretPath, fallback string) (*Resolver, error) {
	r := &Resolver{mountPath: mountPath, secretPath: secretPath, fallback: fallback}
	if addr == "" {
		return r, nil
	}

	cfg := vault.DefaultConfig()
	cfg.Address = addr
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("secrets: create vault client: %w", err)
	}
	client.SetToken(token)
	r.client = client
	return r, nil
}

// Get returns the JWT secret, from Vault if configured, otherwise the
// process's env-provided fallback.
func (r *Resolver) Get() (string, error) {
	if r.client == nil {
		return r.fallback, nil
	}

	secret, err := r.client.KVv2(r.mountPath).Get(context.Background(), r.secretPath)
	if err != nil {
		return "", fmt.Errorf("secrets: read vault secret: %w", err)
	}
	value, ok := secret.Data["jwt_secret"].(string)
	if !ok || value == "" {
		return r.fallback, nil
	}
	return value, nil
}
