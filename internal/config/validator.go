package config

import (
	"fmt"
	"net"
	"strconv"
)

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config error: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config error: %w", err)
	}

	if err := c.validateKnowledge(); err != nil {
		return fmt.Errorf("knowledge config error: %w", err)
	}

	if err := c.validateKafka(); err != nil {
		return fmt.Errorf("kafka config error: %w", err)
	}

	if c.Tracing.Enabled && (c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1) {
		return fmt.Errorf("tracing config error: sample_rate must be between 0 and 1")
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.MaxRequestSize <= 0 {
		return fmt.Errorf("max_request_size must be positive")
	}

	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout must not be negative")
	}

	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid format: %s", c.Logging.Format)
	}

	return nil
}

func (c *Config) validateKnowledge() error {
	k := c.Knowledge
	if k.SearchDefaultLimit <= 0 || k.SearchMaxLimit <= 0 {
		return fmt.Errorf("search limits must be positive")
	}

	if k.SearchDefaultLimit > k.SearchMaxLimit {
		return fmt.Errorf("search_default_limit %d exceeds search_max_limit %d", k.SearchDefaultLimit, k.SearchMaxLimit)
	}

	if k.PopularDefaultLimit <= 0 || k.PopularMaxLimit <= 0 {
		return fmt.Errorf("popular limits must be positive")
	}

	if k.PopularDefaultLimit > k.PopularMaxLimit {
		return fmt.Errorf("popular_default_limit %d exceeds popular_max_limit %d", k.PopularDefaultLimit, k.PopularMaxLimit)
	}

	return nil
}

func (c *Config) validateKafka() error {
	if len(c.Kafka.Brokers) == 0 {
		return nil
	}

	for _, broker := range c.Kafka.Brokers {
		_, port, err := net.SplitHostPort(broker)
		if err != nil {
			return fmt.Errorf("invalid broker format: %s (expected host:port)", broker)
		}
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid broker port: %s", broker)
		}
	}

	if c.Kafka.Topic == "" {
		return fmt.Errorf("topic is required")
	}

	return nil
}
