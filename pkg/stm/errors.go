package stm

import "errors"

var TxnAbortedErr = errors.New("txn aborted: read set is no longer consistent")
var ReadOnlyTxnErr = errors.New("txn is read-only, can not perform the operation")
var TxnDiscardedErr = errors.New("txn is discarded, can not perform the operation")
