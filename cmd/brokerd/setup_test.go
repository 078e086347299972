package main

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"goflare.io/broker/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		env     config.LoggerEnv
		level   zapcore.Level
		wantErr bool
	}{
		{name: "json info", env: config.LoggerEnv{Level: "info", Format: "json"}, level: zapcore.InfoLevel},
		{name: "console debug", env: config.LoggerEnv{Level: "debug", Format: "console"}, level: zapcore.DebugLevel},
		{name: "bad level", env: config.LoggerEnv{Level: "loud", Format: "json"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := newLogger(tt.env)
			if (err != nil) != tt.wantErr {
				t.Fatalf("newLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !logger.Core().Enabled(tt.level) {
				t.Errorf("level %s not enabled", tt.level)
			}
			if tt.level > zapcore.DebugLevel && logger.Core().Enabled(tt.level-1) {
				t.Errorf("level below %s should be disabled", tt.level)
			}
		})
	}
}

func TestDemoPostsAreComplete(t *testing.T) {
	for _, d := range demoPosts {
		if d.title == "" || d.body == "" || d.age <= 0 {
			t.Errorf("incomplete demo post %+v", d)
		}
	}
}
