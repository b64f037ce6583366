package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix scopes environment overrides, e.g. RACKFIT_SEARCH_WIDTH.
const EnvPrefix = "RACKFIT"

// SetDefaults registers Default() values on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("search_width", d.SearchWidth)
	v.SetDefault("requests_dir", d.RequestsDir)
	v.SetDefault("servers_dir", d.ServersDir)
	v.SetDefault("output", d.Output)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("rules_file", d.RulesFile)
	v.SetDefault("history_path", d.HistoryPath)
	v.SetDefault("otel_endpoint", d.OtelEndpoint)
	v.SetDefault("slack_webhook", d.SlackWebhook)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("json_logs", d.JsonLogs)
}

// Load decodes v into a Config.
// search_width is checked by hand because env and file values arrive as
// strings and must fail loudly instead of decoding to zero.
func Load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	width, err := parseSearchWidth(v.Get("search_width"))
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.SearchWidth = width
	return cfg, nil
}

func parseSearchWidth(raw interface{}) (int, error) {
	switch w := raw.(type) {
	case int:
		if w < 0 {
			return 0, fmt.Errorf("%w: got %d", ErrInvalidSearchWidth, w)
		}
		return w, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(w))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: got %q", ErrInvalidSearchWidth, w)
		}
		return n, nil
	case nil:
		return Default().SearchWidth, nil
	default:
		return parseSearchWidth(fmt.Sprint(w))
	}
}
