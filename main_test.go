package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRunEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("MAIL_PROVIDER", "log")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("INSTITUTION_EMAIL_DOMAIN", "inst.edu")
	t.Setenv("NATS_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("CLUB_CATALOG", "")
}

func TestRun_InvalidConfigReturnsError(t *testing.T) {
	setRunEnv(t)
	t.Setenv("DB_DRIVER", "oracle")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRun_StartupFailureAfterResourcesOpenReturnsError(t *testing.T) {
	setRunEnv(t)
	t.Setenv("CLUB_CATALOG", filepath.Join(t.TempDir(), "missing.yaml"))

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load club catalog")
}
