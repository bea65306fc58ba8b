package capture

import "errors"

// ErrResourceUnavailable is returned when the duplication resource could not
// be created. It is transient and handled by the retry backoff.
var ErrResourceUnavailable = errors.New("duplication resource unavailable")

// ErrFrameStale is returned when an acquired duplication resource stopped
// producing valid frames and must be torn down.
var ErrFrameStale = errors.New("duplication frame stale")

// ErrMonitorNotFound is returned when the requested monitor index does not exist.
var ErrMonitorNotFound = errors.New("monitor not found")
