package main

import (
	"strings"
	"testing"
)

func TestRun_ReturnsStartupErrors(t *testing.T) {
	t.Setenv("JOBLY_ENV", "test")

	tests := []struct {
		name    string
		config  string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "MissingConfigFile",
			config:  "/does/not/exist.yaml",
			wantErr: "load config",
		},
		{
			name:    "InvalidConfig",
			env:     map[string]string{"JOBLY_BCRYPT_COST": "1"},
			wantErr: "invalid config",
		},
		{
			name:    "DatabaseUnreachable",
			env:     map[string]string{"DATABASE_URL": "postgres://jobly@127.0.0.1:1/jobly?sslmode=disable&connect_timeout=1"},
			wantErr: "open DB",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			err := run(tc.config)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}
