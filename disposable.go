package depends

import "context"

// Disposable is implemented by values that release resources on Close.
//
// Producers usually hand back their cleanup as a second return value:
//
//	func openTx(db *sql.DB) (*sql.Tx, func() error, error) {
//	    tx, err := db.Begin()
//	    if err != nil {
//	        return nil, nil, err
//	    }
//	    return tx, tx.Rollback, nil
//	}
//
// Track covers values obtained some other way.
type Disposable interface {
	Close() error
}

// DisposableWithContext allows disposal with context for graceful shutdown.
// The context passed to Close is the scope's context without its
// cancellation, so cleanup still runs after the client went away.
type DisposableWithContext interface {
	Close(ctx context.Context) error
}

// Track registers v to be closed when the scope closes. It reports whether
// v implements Disposable or DisposableWithContext.
func (s *Scope) Track(v any) bool {
	switch d := v.(type) {
	case Disposable:
		s.addCleanup(d.Close)
	case DisposableWithContext:
		ctx := context.WithoutCancel(s.ctx)
		s.addCleanup(func() error { return d.Close(ctx) })
	default:
		return false
	}
	return true
}
