package config

import (
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
)

func TestStringToLogLevel(t *testing.T) {
	t.Parallel()
	hook := StringToLogLevel().(func(f, t reflect.Type, data interface{}) (interface{}, error))
	levelType := reflect.TypeOf(slog.Level(0))
	strType := reflect.TypeOf("")

	tests := []struct {
		name    string
		in      string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", in: "debug", want: slog.LevelDebug},
		{name: "upper warn", in: "WARN", want: slog.LevelWarn},
		{name: "padded error", in: "  error ", want: slog.LevelError},
		{name: "blank defaults to info", in: "", want: slog.LevelInfo},
		{name: "unknown", in: "verbose", wantErr: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := hook(strType, levelType, tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestStringToLogLevelPassThrough(t *testing.T) {
	var out struct {
		Level   slog.Level
		Timeout time.Duration
		Name    string
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(StringToLogLevel(), mapstructure.StringToTimeDurationHookFunc()),
		Result:     &out,
	})
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	if err := dec.Decode(map[string]any{"Level": "warn", "Timeout": "2s", "Name": "debug"}); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Level != slog.LevelWarn || out.Timeout != 2*time.Second || out.Name != "debug" {
		t.Fatalf("unexpected decode result: %+v", out)
	}
}
