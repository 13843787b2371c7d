package config

const (
	defaultBaseURL = "http://chatbot_platform.test"

	defaultEventStreamTopic = "botconsole.turns"

	defaultMockListen = ":8090"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Platform: PlatformConfig{
			BaseURL: defaultBaseURL,
		},
		EventStream: EventStreamConfig{
			Topic: defaultEventStreamTopic,
		},
		Mock: MockConfig{
			Listen: defaultMockListen,
		},
	}
}
