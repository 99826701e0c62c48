package kafka

// Config holds the Kafka connection used by the notification sink.
type Config struct {
	// Enabled turns the sink on. When false nothing connects to Kafka.
	Enabled bool `env:"KAFKA_ENABLED" envDefault:"false"`
	// Brokers is a comma separated list: localhost:19092 on the host, kafka:9092 in docker.
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	// Topic receives every storefront notification as JSON.
	Topic string `env:"KAFKA_TOPIC" envDefault:"storefront.notifications"`
	// ClientID identifies the writer on the broker side.
	ClientID string `env:"KAFKA_CLIENT_ID" envDefault:"storefront"`
}

// DefaultConfig returns the local-development defaults. Env values override them in LoadEnv.
func DefaultConfig() Config {
	return Config{
		Brokers:  []string{"localhost:19092"},
		Topic:    "storefront.notifications",
		ClientID: "storefront",
	}
}
