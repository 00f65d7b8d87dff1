package mqtt

import "errors"

// ErrNotConnected is returned when publishing without a broker session.
var ErrNotConnected = errors.New("mqtt: not connected")
