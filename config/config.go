package config

import (
	"os"

	"github.com/sagan/promptmeta/constants"
	"github.com/sagan/promptmeta/util"
)

// GetLogLevel returns the PROMPTMETA_LOG_LEVEL env, or constants.DEFAULT_LOG_LEVEL if it's not set.
func GetLogLevel() string {
	level := os.Getenv(constants.ENV_LOG_LEVEL)
	if level == "" {
		level = constants.DEFAULT_LOG_LEVEL
	}
	return level
}

// GetMaxImageSize returns the max accepted image file size in bytes.
// A missing, malformed or non-positive PROMPTMETA_MAX_IMAGE_SIZE yields the default.
func GetMaxImageSize() int64 {
	size := util.ParseInt(os.Getenv(constants.ENV_MAX_IMAGE_SIZE), int64(constants.DEFAULT_MAX_IMAGE_SIZE))
	if size <= 0 {
		return constants.DEFAULT_MAX_IMAGE_SIZE
	}
	return size
}

func GetIndexJobs() int {
	jobs := util.ParseInt(os.Getenv(constants.ENV_INDEX_JOBS), constants.DEFAULT_INDEX_JOBS)
	if jobs <= 0 {
		return constants.DEFAULT_INDEX_JOBS
	}
	return jobs
}
