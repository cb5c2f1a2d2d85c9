package api

// API limits and constants.
const (
	// MaxUploadSize is the maximum allowed size for cover uploads (10 MB).
	MaxUploadSize = 10 << 20
)

// Cache-Control header values.
const (
	CacheOneWeek = "public, max-age=604800"
	CacheNoStore = "no-cache"
)
