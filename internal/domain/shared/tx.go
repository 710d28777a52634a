package shared

import "context"

// TxManager runs a function inside a storage transaction. The
// transactional handle travels in the context so repositories used
// within fn join the same transaction; fn returning an error rolls
// everything back.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
