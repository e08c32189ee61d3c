package errors

// Error codes grouped by the failure taxonomy.
//
// Configuration faults are surfaced once to the operator; everything else is
// downgraded to a safe no-op or empty result at the component boundary.
const (
	// ErrCodeStoreUnavailable indicates the index storage backend is
	// missing or misconfigured. Indexing and query become no-ops.
	ErrCodeStoreUnavailable = "ERR_STORE_UNAVAILABLE"

	// ErrCodeStoreMigration indicates a structural migration failed.
	ErrCodeStoreMigration = "ERR_STORE_MIGRATION"

	// ErrCodeRebuildRunning indicates a rebuild is already in progress.
	// Scheduling another is a no-op, never an error raised to the caller.
	ErrCodeRebuildRunning = "ERR_REBUILD_RUNNING"

	// ErrCodeSourceFailed indicates a content source page fetch failed.
	ErrCodeSourceFailed = "ERR_SOURCE_FAILED"

	// ErrCodeUnauthorized indicates a transport-level authorization failure.
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"

	// ErrCodeInvalidInput indicates a malformed request.
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal = "ERR_INTERNAL"
)

// ErrRebuildRunning is the sentinel returned when a rebuild invocation finds
// another rebuild already holding the in-progress flag.
var ErrRebuildRunning = New(ErrCodeRebuildRunning, "index rebuild already in progress", nil)

// ErrStoreUnavailable is the sentinel for a missing or broken index store.
var ErrStoreUnavailable = New(ErrCodeStoreUnavailable, "index store unavailable", nil)
