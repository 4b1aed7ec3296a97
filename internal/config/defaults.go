package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Miner: MinerConfig{
			Host:      "127.0.0.1",
			Port:      4028,
			TimeoutMS: 3000,
		},
		HTTP: HTTPConfig{
			Listen:              "127.0.0.1:3000",
			ReadHeaderTimeoutMS: 5000,
			ShutdownTimeoutMS:   5000,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		StartupProbe: true,
		Log:          LogConfig{Level: "info"},
	}
}
