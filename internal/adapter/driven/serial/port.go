package serial

import "time"

// DefaultWriteTimeout bounds a single feedback write.
const DefaultWriteTimeout = 10 * time.Second
