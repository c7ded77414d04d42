// Package session persists lightweight workflow state so a restarted client
// can find its in-flight documents and hand them to session recovery.
package session

import (
	"context"
	"time"

	"github.com/vithaluntold/rai-compliance-client/internal/core/domain"
)

// Session is the minimal state needed to resume a document workflow:
// everything else is reconstructed from the server.
type Session struct {
	SessionID  string              `json:"session_id"`
	DocumentID string              `json:"document_id"`
	Step       domain.WorkflowStep `json:"step"`
	Framework  string              `json:"framework,omitempty"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Store persists sessions keyed by document ID.
type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, documentID string) (*Session, error)
	List(ctx context.Context) ([]Session, error)
	Delete(ctx context.Context, documentID string) error
	Close() error
}

// Config holds session store configuration. An empty Redis URL selects the
// in-memory store.
type Config struct {
	Redis RedisConfig   `yaml:"redis"`
	TTL   time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}
