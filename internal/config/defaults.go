package config

import (
	"github.com/knadh/koanf/v2"
)

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"server.host": "0.0.0.0",
		"server.port": 8080,

		"database.max_connections": 25,

		"services.ailogic_url":     "http://localhost:8001",
		"services.videoengine_url": "http://localhost:8002",
		"services.script_timeout":  "60s",
		"services.video_timeout":   "300s",
		"services.health_timeout":  "5s",

		"s3.region":        "us-east-1",
		"s3.input_bucket":  "short-factory-input",
		"s3.output_bucket": "short-factory-output",
		"s3.assets_bucket": "short-factory-assets",

		"video.target_duration": 60,
		"video.platforms":       []string{"tiktok", "instagram", "youtube"},
		"video.style":           "entertaining",

		"logging.level":  "info",
		"logging.format": "pretty",
	}

	for key, val := range defaults {
		k.Set(key, val)
	}
	return nil
}
