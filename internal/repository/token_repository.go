package repository

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DeviceToken is a device registered for pre-pump alerts.
type DeviceToken struct {
	Token        string    `json:"token"`
	Platform     string    `json:"platform"` // "android" or "ios"
	RegisteredAt time.Time `json:"registeredAt"`
}

// TokenRepository keeps alert device tokens in memory.
type TokenRepository struct {
	tokens map[string]DeviceToken
	mu     sync.RWMutex
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		tokens: make(map[string]DeviceToken),
	}
}

// RegisterToken adds a token or refreshes its platform and timestamp.
func (r *TokenRepository) RegisterToken(token, platform string, at time.Time) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if platform == "" {
		platform = "android"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = DeviceToken{Token: token, Platform: platform, RegisteredAt: at}
}

// UnregisterToken removes a token; unknown tokens are ignored.
func (r *TokenRepository) UnregisterToken(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tokens[token]
	delete(r.tokens, token)
	return ok
}

// GetAllTokens returns every registered token in a stable order.
func (r *TokenRepository) GetAllTokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.tokens))
	for token := range r.tokens {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

func (r *TokenRepository) GetTokenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
