package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"session-cache/internal/cache"
	"session-cache/pkg/logger"
)

// conversation documents share the cache namespace with rate-limit counters
const keyPrefix = "session:"

// DefaultTTL keeps a conversation alive between handler invocations
const DefaultTTL = 300 * time.Second

// Store persists conversations through the fail-open cache client. Every
// method inherits the client's semantics: a cache outage reads as "no
// conversation" and writes report false, so callers must treat the store as
// best-effort shared state, not a system of record.
type Store struct {
	client *cache.Client
	tokens *TokenGenerator
	ttl    time.Duration
	logger *logger.Logger
}

// NewStore creates a conversation store with dependencies injected.
// ttl <= 0 falls back to DefaultTTL.
func NewStore(client *cache.Client, log *logger.Logger, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client: client,
		tokens: NewTokenGenerator(16),
		ttl:    ttl,
		logger: log,
	}
}

// Create starts a new conversation for a tenant and user and persists it.
// The conversation is returned even when the write fails, so a degraded
// cache still lets the request proceed with in-memory context.
func (s *Store) Create(ctx context.Context, tenantID, userID string, metadata map[string]interface{}) (*Conversation, bool) {
	now := time.Now().UTC()
	conv := &Conversation{
		ConversationID: uuid.NewString(),
		TenantID:       tenantID,
		UserID:         userID,
		SessionID:      s.tokens.Generate(),
		Metadata:       metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	saved := s.Save(ctx, conv)
	if !saved {
		s.logger.Warn("Conversation not persisted, continuing without shared context",
			"conversation_id", conv.ConversationID,
		)
	}

	return conv, saved
}

// Load retrieves a conversation by ID. Returns false when it does not
// exist, has expired, or the cache is unavailable.
func (s *Store) Load(ctx context.Context, conversationID string) (*Conversation, bool) {
	var conv Conversation
	if !s.client.Get(ctx, key(conversationID), &conv) {
		return nil, false
	}

	return &conv, true
}

// Save writes a conversation, stamping its update time and resetting the
// session TTL. Returns true only on a confirmed write.
func (s *Store) Save(ctx context.Context, conv *Conversation) bool {
	conv.UpdatedAt = time.Now().UTC()
	return s.client.Set(ctx, key(conv.ConversationID), conv, s.ttl)
}

// AppendMessage loads a conversation, appends one message, and writes it
// back. The read-modify-write is not atomic; concurrent appenders are
// last-writer-wins, which session context tolerates.
func (s *Store) AppendMessage(ctx context.Context, conversationID, role, content string) (*Conversation, bool) {
	conv, ok := s.Load(ctx, conversationID)
	if !ok {
		return nil, false
	}

	conv.Append(role, content)
	if !s.Save(ctx, conv) {
		return nil, false
	}

	return conv, true
}

// Delete removes a conversation. True means the conversation is gone,
// including when it never existed.
func (s *Store) Delete(ctx context.Context, conversationID string) bool {
	return s.client.Delete(ctx, key(conversationID))
}

// ValidSessionID checks a caller-supplied session token's shape
func (s *Store) ValidSessionID(token string) bool {
	return s.tokens.IsValid(token)
}

func key(conversationID string) string {
	return keyPrefix + conversationID
}
