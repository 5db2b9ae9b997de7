package driven

// ConfigStore provides typed access to persisted engine settings such
// as the embedding provider, data directory, and search defaults.
// Implementations flatten nested sections into dot-notation keys
// (e.g. "embedding.model").
type ConfigStore interface {
	// Get retrieves a raw value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" when unset.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 when unset.
	GetInt(key string) int

	// GetFloat retrieves a float value, or 0 when unset.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value, or false when unset.
	GetBool(key string) bool

	// Set stores a value and persists immediately.
	Set(key string, value any) error

	// Load re-reads configuration from the backing store.
	Load() error

	// Path returns the backing store location for display.
	Path() string
}
