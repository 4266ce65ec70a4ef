package config

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// StringToLogLevel is a DecodeHookFunc that converts "debug", "info", "warn"
// or "error" (any case) to slog.Level.
func StringToLogLevel() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(slog.Level(0)) {
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if s == "" {
			return slog.LevelInfo, nil
		}
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", s, err)
		}
		return lvl, nil
	}
}
