// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/platform/config"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/shelf")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_PRIVATE_KEY_PATH", "/keys/private.pem")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/keys/public.pem")
}

/*
TestLoad_Defaults verifies defaults when only required keys are set.
*/
func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, config.StorageDriverLocal, cfg.StorageDriver)
	assert.Equal(t, "temp-publications", cfg.StagingPrefix)
	assert.Equal(t, "publications", cfg.PermanentPrefix)
	assert.Equal(t, "deleted-publications", cfg.ArchivePrefix)
	assert.True(t, cfg.IsDevelopment())
}

/*
TestLoad_EnvFile verifies that values from a .env file are picked up.
*/
func TestLoad_EnvFile(t *testing.T) {
	setRequired(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EXTRA_ORIGINS=https://a.example, https://b.example\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("EXTRA_ORIGINS") })

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins())
}

/*
TestValidate covers storage driver and prefix constraints.
*/
func TestValidate(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			StorageDriver:    config.StorageDriverLocal,
			StorageLocalRoot: "/srv/shelf",
			StagingPrefix:    "temp-publications",
			PermanentPrefix:  "publications",
			ArchivePrefix:    "deleted-publications",
			MaxUploadBytes:   1024,
		}
	}

	assert.NoError(t, base().Validate())

	s3WithoutBucket := base()
	s3WithoutBucket.StorageDriver = config.StorageDriverS3
	assert.Error(t, s3WithoutBucket.Validate())

	duplicatePrefix := base()
	duplicatePrefix.ArchivePrefix = "publications"
	assert.Error(t, duplicatePrefix.Validate())

	unknownDriver := base()
	unknownDriver.StorageDriver = "ftp"
	assert.Error(t, unknownDriver.Validate())
}
