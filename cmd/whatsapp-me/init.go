package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noamelf/whatsapp-me/internal/pathutil"
)

// starterConfig mirrors the viper defaults so `init` writes a config file
// the user can edit instead of starting from a blank page.
type starterConfig struct {
	LLM struct {
		Endpoint string `yaml:"endpoint"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"llm"`
	WhatsApp struct {
		TargetGroup string `yaml:"target_group"`
	} `yaml:"whatsapp"`
	Flood struct {
		Window         string  `yaml:"window"`
		MinCount       int     `yaml:"min_count"`
		NoCaptionRatio float64 `yaml:"no_caption_ratio"`
	} `yaml:"flood"`
	Cache struct {
		TTL             string `yaml:"ttl"`
		MaxDiskAge      string `yaml:"max_disk_age"`
		PersistInterval string `yaml:"persist_interval"`
	} `yaml:"cache"`
	Dedup struct {
		Retention string `yaml:"retention"`
	} `yaml:"dedup"`
	Server struct {
		Enabled bool   `yaml:"enabled"`
		Bind    string `yaml:"bind"`
		Port    int    `yaml:"port"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Initialize the state directory and write a starter config.yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "~/.whatsapp-me/"
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = args[0]
			}
			dir = pathutil.ExpandHomePath(dir)
			if strings.TrimSpace(dir) == "" {
				return fmt.Errorf("invalid dir")
			}
			dir = filepath.Clean(dir)

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			cfgPath := filepath.Join(dir, "config.yaml")
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists: %s", cfgPath)
			}

			body, err := yaml.Marshal(defaultStarterConfig())
			if err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, body, 0o644); err != nil {
				return err
			}

			fmt.Printf("initialized %s\n", dir)
			fmt.Println("next: set llm.api_key and whatsapp.target_group, then run `whatsapp-me run`")
			return nil
		},
	}

	return cmd
}

func defaultStarterConfig() starterConfig {
	var cfg starterConfig
	cfg.LLM.Endpoint = "https://api.openai.com"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.Flood.Window = "30s"
	cfg.Flood.MinCount = 3
	cfg.Flood.NoCaptionRatio = 0.7
	cfg.Cache.TTL = "30m"
	cfg.Cache.MaxDiskAge = "24h"
	cfg.Cache.PersistInterval = "5m"
	cfg.Dedup.Retention = "720h"
	cfg.Server.Bind = "127.0.0.1"
	cfg.Server.Port = 8787
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return cfg
}
