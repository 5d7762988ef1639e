package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// Chamber key builders

func (kb *KeyBuilder) KeyPollStatistics(pollID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPollStatistics, pollID))
}

func (kb *KeyBuilder) KeyVoterCast(pollID, voterID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyVoterCast, pollID, voterID))
}

func (kb *KeyBuilder) KeyCastInflight(pollID, voterID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyCastInflight, pollID, voterID))
}

// KeyCustom builds an environment-prefixed key from a format string
func (kb *KeyBuilder) KeyCustom(format string, args ...interface{}) string {
	return kb.BuildKey(fmt.Sprintf(format, args...))
}
