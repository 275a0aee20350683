package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"creatorsupport/internal/infra"
	"creatorsupport/internal/sqlinline"
)

const (
	ProviderCashfree = "cashfree"
)

// Store reads gateway secrets kept in the integration_tokens table, for
// deployments that do not ship them through the environment.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// CashfreeClientSecret returns the stored API secret, or "" when none is set.
func (s *Store) CashfreeClientSecret(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderCashfree)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetCashfreeClientSecret(ctx context.Context, secret string, clientID string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.New("cashfree client secret is required")
	}
	props := map[string]any{}
	if id := strings.TrimSpace(clientID); id != "" {
		props["client_id"] = id
	}
	return s.upsert(ctx, ProviderCashfree, secret, props)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
