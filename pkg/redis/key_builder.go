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

// Favorites key builders
func (kb *KeyBuilder) KeyDeviceFavorites(deviceID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyDeviceFavorites, deviceID))
}

// Shared link key builders
func (kb *KeyBuilder) KeyLinkByCode(code string) string {
	return kb.BuildKey(fmt.Sprintf(KeyLinkByCode, code))
}

func (kb *KeyBuilder) KeyOwnerLinkIDs(ownerID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyOwnerLinkIDs, ownerID))
}

// ChannelImportFeed returns the pub/sub channel carrying import events
func (kb *KeyBuilder) ChannelImportFeed() string {
	return kb.BuildKey(ChannelImportFeed)
}

// KeyCustom builds a key from a custom pattern
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	key := fmt.Sprintf(pattern, args...)
	return kb.BuildKey(key)
}
