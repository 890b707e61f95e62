package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrTenantNotFound is returned when no tenant matches the lookup.
var ErrTenantNotFound = fmt.Errorf("tenant not found")

// Tenant represents a row in the tenants table.
type Tenant struct {
	ID           string
	Name         string
	APIKeyHash   string
	APIKeyPrefix string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TenantWithPolicy is a Tenant joined with its enforcement_config JSONB.
type TenantWithPolicy struct {
	Tenant
	EnforcementConfig json.RawMessage
}

// GenerateAPIKey creates a new rk_ API key with its bcrypt hash and prefix.
// Returns (fullKey, hash, prefix, error). The fullKey is shown to the caller
// once and never stored.
func GenerateAPIKey() (string, string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}
	fullKey := "rk_" + hex.EncodeToString(raw) // 67 chars total

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(fullKey), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}

	prefix := fullKey[:8] // "rk_" + first five hex chars
	return fullKey, string(hashBytes), prefix, nil
}

// CreateTenant inserts a tenant with an empty enforcement config and returns
// the tenant plus the plaintext API key (shown once).
func (s *Store) CreateTenant(ctx context.Context, name string) (*Tenant, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("CreateTenant: %w", err)
	}

	var t Tenant
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO tenants (name, api_key_hash, api_key_prefix, enforcement_config)
		VALUES ($1, $2, $3, '{}'::jsonb)
		RETURNING id, name, api_key_hash, api_key_prefix, created_at, updated_at`,
		name, keyHash, keyPrefix,
	).Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("CreateTenant: %w", err)
	}

	return &t, fullKey, nil
}

// GetTenant fetches one tenant with its enforcement config.
func (s *Store) GetTenant(ctx context.Context, id string) (*TenantWithPolicy, error) {
	var t TenantWithPolicy
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix, enforcement_config,
		       created_at, updated_at
		FROM tenants WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix, &t.EnforcementConfig,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("GetTenant: %w", err)
	}
	return &t, nil
}

// ListTenants returns all tenants ordered by created_at DESC.
func (s *Store) ListTenants(ctx context.Context) ([]*Tenant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix, created_at, updated_at
		FROM tenants ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListTenants: %w", err)
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListTenants: %w", err)
		}
		tenants = append(tenants, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListTenants: %w", err)
	}
	return tenants, nil
}

// LookupByPrefix fetches the tenant owning an API key prefix, for auth.
func (s *Store) LookupByPrefix(ctx context.Context, prefix string) (*TenantWithPolicy, error) {
	var t TenantWithPolicy
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, api_key_hash, api_key_prefix, enforcement_config,
		       created_at, updated_at
		FROM tenants WHERE api_key_prefix = $1`,
		prefix,
	).Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix, &t.EnforcementConfig,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// No tenant with this prefix — reject, don't fail open.
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("LookupByPrefix: %w", err)
	}
	return &t, nil
}

// UpdateTenant renames a tenant.
func (s *Store) UpdateTenant(ctx context.Context, id, name string) (*Tenant, error) {
	var t Tenant
	err := s.db.QueryRowContext(ctx, `
		UPDATE tenants SET name = $1, updated_at = now()
		WHERE id = $2
		RETURNING id, name, api_key_hash, api_key_prefix, created_at, updated_at`,
		name, id,
	).Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("UpdateTenant: %w", err)
	}
	return &t, nil
}

// DeleteTenant removes a tenant.
func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteTenant: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTenantNotFound
	}
	return nil
}

// RotateKey replaces a tenant's API key and returns the new plaintext key.
func (s *Store) RotateKey(ctx context.Context, id string) (string, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return "", "", fmt.Errorf("RotateKey: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tenants SET api_key_hash = $1, api_key_prefix = $2, updated_at = now()
		WHERE id = $3`,
		keyHash, keyPrefix, id)
	if err != nil {
		return "", "", fmt.Errorf("RotateKey: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", "", ErrTenantNotFound
	}

	return fullKey, keyPrefix, nil
}

// UpdatePolicy replaces a tenant's enforcement_config JSONB.
func (s *Store) UpdatePolicy(ctx context.Context, id string, config json.RawMessage) (*TenantWithPolicy, error) {
	var t TenantWithPolicy
	err := s.db.QueryRowContext(ctx, `
		UPDATE tenants SET enforcement_config = $1::jsonb, updated_at = now()
		WHERE id = $2
		RETURNING id, name, api_key_hash, api_key_prefix, enforcement_config,
		          created_at, updated_at`,
		string(config), id,
	).Scan(&t.ID, &t.Name, &t.APIKeyHash, &t.APIKeyPrefix, &t.EnforcementConfig,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("UpdatePolicy: %w", err)
	}
	return &t, nil
}
