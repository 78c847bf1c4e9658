package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// LLM
	viper.SetDefault("llm.endpoint", "https://api.openai.com")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.request_timeout", 90*time.Second)

	// Global
	viper.SetDefault("file_state_dir", "~/.whatsapp-me")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("trace", false)

	// WhatsApp
	viper.SetDefault("whatsapp.dir_name", "whatsapp")
	viper.SetDefault("whatsapp.target_group", "")
	viper.SetDefault("whatsapp.self_test_enabled", true)

	// Intake gate
	viper.SetDefault("gate.history_size", 5)
	viper.SetDefault("flood.window", 30*time.Second)
	viper.SetDefault("flood.min_count", 3)
	viper.SetDefault("flood.no_caption_ratio", 0.7)

	// Group metadata cache
	viper.SetDefault("cache.ttl", 30*time.Minute)
	viper.SetDefault("cache.max_disk_age", 24*time.Hour)
	viper.SetDefault("cache.persist_interval", 5*time.Minute)
	viper.SetDefault("cache.fetch_attempts", 3)
	viper.SetDefault("cache.backoff_base", 2*time.Second)

	// Dedup store
	viper.SetDefault("dedup.retention", 30*24*time.Hour)

	// Admin server
	viper.SetDefault("server.enabled", false)
	viper.SetDefault("server.bind", "127.0.0.1")
	viper.SetDefault("server.port", 8787)
}
