package pool

import "errors"

// ErrClosed is returned by Invoke and BorrowForDownload once Quit has
// been called.
var ErrClosed = errors.New("pool: closed")

// ErrMigrationLoop guards against a pathological server response that
// keeps redirecting the same call between datacenters.
var ErrMigrationLoop = errors.New("pool: migration redirected more than the allowed number of times")

// maxMigrationHops bounds how many consecutive *_MIGRATE_N redirects a
// single Invoke call will follow before giving up.
const maxMigrationHops = 5
