// Package config loads the service configuration from a JSON or YAML file
// with optional environment overrides (EV_MQTT__BROKER=... style).
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/evsched/evsched/core/metrics"
	"github.com/evsched/evsched/core/schedule"
	"github.com/evsched/evsched/core/wake"
	"github.com/evsched/evsched/infra/mqtt"
)

type Config struct {
	MQTT         mqtt.Config        `json:"mqtt"`
	Wake         wake.Config        `json:"wake"`
	Policy       PolicyConfig       `json:"policy"`
	Units        UnitsConfig        `json:"units"`
	Notification NotificationConfig `json:"notification"`
	Schedule     []schedule.Item    `json:"schedule"`
	Metrics      metrics.Config     `json:"metrics"`
	Logging      LoggingConfig      `json:"logging"`
	API          APIConfig          `json:"api"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("EV_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ev_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Policy.SetDefaults()
	cfg.Units.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Units.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
