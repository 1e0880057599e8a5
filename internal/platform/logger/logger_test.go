// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-shelf/internal/platform/logger"
)

/*
TestNew_JSON verifies production output is JSON carrying the app attributes.
*/
func TestNew_JSON(t *testing.T) {
	var buffer bytes.Buffer

	log, flush, err := logger.New(&buffer, logger.Options{})
	require.NoError(t, err)
	defer flush()

	log.Info("server_started")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &record))
	assert.Equal(t, "server_started", record["msg"])
	assert.Equal(t, "shelf-api", record["app"])
}

/*
TestNew_DebugLevel verifies debug records are dropped unless enabled.
*/
func TestNew_DebugLevel(t *testing.T) {
	var buffer bytes.Buffer

	log, _, err := logger.New(&buffer, logger.Options{})
	require.NoError(t, err)
	log.Debug("hidden")
	assert.Zero(t, buffer.Len())

	log, _, err = logger.New(&buffer, logger.Options{Debug: true})
	require.NoError(t, err)
	log.Debug("shown")
	assert.Contains(t, buffer.String(), "shown")
}
