package pool

import "errors"

var errPoolDestroyed = errors.New("session pool destroyed")
