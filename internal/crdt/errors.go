package crdt

import "github.com/pkg/errors"

// ErrInsufficientQuota is returned by BCounter.Decrement and BCounter.Transfer
// when the replica's available quota is less than the requested amount.
var ErrInsufficientQuota = errors.New("crdt: insufficient quota")
