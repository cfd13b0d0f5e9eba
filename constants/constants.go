package constants

const (
	// Env variable names

	ENV_LOG_LEVEL      = "PROMPTMETA_LOG_LEVEL"
	ENV_MAX_IMAGE_SIZE = "PROMPTMETA_MAX_IMAGE_SIZE" // bytes
	ENV_INDEX_JOBS     = "PROMPTMETA_INDEX_JOBS"

	DEFAULT_LOG_LEVEL      = "warn"
	DEFAULT_MAX_IMAGE_SIZE = 256 << 20
	DEFAULT_INDEX_JOBS     = 4

	// Max displayed length of values in "inspect" output
	INSPECT_INFO_LENGTH     = 200
	INSPECT_EXIF_LENGTH     = 500
	INSPECT_EXIF_IFD_LENGTH = 1000

	INDEX_FORMAT_CSV   = "csv"
	INDEX_FORMAT_JSONL = "jsonl"

	NULL = "null"
)

const HELP_TEMPLATE_FLAG = `The Go text template string. If the value starts with "@", ` +
	`it (the rest part after @) is treated as a filename, ` +
	`which contents will be used as template. ` +
	`All sprout functions are supported, see https://github.com/go-sprout/sprout`

const HELP_LOG_LEVEL = `Log level: "trace", "debug", "info", "warn", "error". ` +
	`If not set, it uses ` + ENV_LOG_LEVEL + ` env, then fallbacks to "` + DEFAULT_LOG_LEVEL + `"`
