package strip

import "errors"

// ErrUnknownOutlet is returned when a button override toggles an outlet
// that is not configured.
var ErrUnknownOutlet = errors.New("strip: unknown outlet")
