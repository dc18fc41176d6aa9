package axilite

import "errors"

// ErrTimedOut is returned when a master abandons a transaction because a
// phase exhausted its cycle budget.
var ErrTimedOut = errors.New("axilite: transaction timed out")
