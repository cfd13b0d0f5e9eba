package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sagan/promptmeta/constants"
)

func TestGetLogLevel(t *testing.T) {
	t.Setenv(constants.ENV_LOG_LEVEL, "")
	assert.Equal(t, "warn", GetLogLevel())
	t.Setenv(constants.ENV_LOG_LEVEL, "debug")
	assert.Equal(t, "debug", GetLogLevel())
}

func TestGetMaxImageSize(t *testing.T) {
	tests := []struct {
		env  string
		want int64
	}{
		{"", 256 << 20},
		{"1048576", 1 << 20},
		{"abc", 256 << 20},
		{"0", 256 << 20},
		{"-5", 256 << 20},
	}
	for _, tt := range tests {
		t.Setenv(constants.ENV_MAX_IMAGE_SIZE, tt.env)
		assert.Equal(t, tt.want, GetMaxImageSize(), "env %q", tt.env)
	}
}

func TestGetIndexJobs(t *testing.T) {
	t.Setenv(constants.ENV_INDEX_JOBS, "")
	assert.Equal(t, 4, GetIndexJobs())
	t.Setenv(constants.ENV_INDEX_JOBS, "16")
	assert.Equal(t, 16, GetIndexJobs())
	t.Setenv(constants.ENV_INDEX_JOBS, "0")
	assert.Equal(t, 4, GetIndexJobs())
}
