package control

import "errors"

// ErrNoCommander is returned while no controller host is configured.
var ErrNoCommander = errors.New("no hardware client configured")
