package sessiondata

const (
	Sessions = "sessions" // session records by ID
)
