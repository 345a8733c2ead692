// Package config provides configuration types and loading for the arena.
package config

// Config is the root configuration struct.
type Config struct {
	Storage StorageConfig `json:"storage"`
	Kafka   KafkaConfig   `json:"kafka"`
}

// StorageConfig groups database settings.
type StorageConfig struct {
	Path string `json:"path" envconfig:"PATH"`
}

// KafkaConfig configures the optional usage-report ingest.
type KafkaConfig struct {
	Enabled bool   `json:"enabled" envconfig:"ENABLED"`
	Brokers string `json:"brokers" envconfig:"BROKERS"`
	Topic   string `json:"topic" envconfig:"TOPIC"`
	GroupID string `json:"groupId" envconfig:"GROUP_ID"`
}

// DefaultConfig returns the built-in defaults. The storage path is resolved
// lazily by the loader so tests can point it anywhere.
func DefaultConfig() *Config {
	return &Config{
		Kafka: KafkaConfig{
			Brokers: "localhost:9092",
			Topic:   "skill-usage",
			GroupID: "arena-ingest",
		},
	}
}
