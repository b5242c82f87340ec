package track

import (
	"errors"
	"io"

	"github.com/openglass/resourced/registry"
)

// CloseWriter is implemented by connections that support half-close
// (net.TCPConn and friends). Cleanup shuts the write side down before the
// full close so the peer sees an orderly EOF.
type CloseWriter interface {
	CloseWrite() error
}

// Rollbacker is implemented by database sessions with an open transaction
// that should be rolled back before the connection closes.
type Rollbacker interface {
	Rollback() error
}

// MemberLister is implemented by connection pools that can enumerate their
// members for individual release.
type MemberLister interface {
	Members() []any
}

// Teardowner is implemented by pools with a pool-level teardown that runs
// after every member has been released.
type Teardowner interface {
	Teardown() error
}

// Network registers a single network connection for shutdown-then-close
// cleanup.
func Network(reg *registry.Registry, conn io.Closer, opts ...registry.RegisterOption) (string, error) {
	opts = append(opts, registry.WithCleanup(releaseConn))
	return reg.Register(conn, registry.TypeNetworkConn, opts...)
}

// DB registers a single database connection or session. An open
// transaction is rolled back before the close.
func DB(reg *registry.Registry, conn io.Closer, opts ...registry.RegisterOption) (string, error) {
	opts = append(opts, registry.WithCleanup(releaseDBConn))
	return reg.Register(conn, registry.TypeDBConn, opts...)
}

// NetworkPool registers a pool of network connections. Cleanup releases
// each member, then runs the pool-level teardown if present.
func NetworkPool(reg *registry.Registry, pool any, opts ...registry.RegisterOption) (string, error) {
	opts = append(opts, registry.WithCleanup(func(res any) error {
		return releasePool(res, releaseConn)
	}))
	return reg.Register(pool, registry.TypeNetworkPool, opts...)
}

// DBPool registers a pool of database connections. Members are rolled back
// and closed, then the pool-level teardown runs if present.
func DBPool(reg *registry.Registry, pool any, opts ...registry.RegisterOption) (string, error) {
	opts = append(opts, registry.WithCleanup(func(res any) error {
		return releasePool(res, releaseDBConn)
	}))
	return reg.Register(pool, registry.TypeDBPool, opts...)
}

func releaseConn(res any) error {
	var errs []error

	if cw, ok := res.(CloseWriter); ok {
		errs = append(errs, guard("close-write", cw.CloseWrite))
	}
	if c, ok := res.(io.Closer); ok {
		errs = append(errs, guard("close", c.Close))
	}

	return errors.Join(errs...)
}

func releaseDBConn(res any) error {
	var errs []error

	if rb, ok := res.(Rollbacker); ok {
		errs = append(errs, guard("rollback", rb.Rollback))
	}
	if c, ok := res.(io.Closer); ok {
		errs = append(errs, guard("close", c.Close))
	}

	return errors.Join(errs...)
}

// releasePool releases every member with releaseMember, then the pool
// itself. Member failures are collected, never short-circuited.
func releasePool(pool any, releaseMember func(any) error) error {
	var errs []error

	if ml, ok := pool.(MemberLister); ok {
		for _, m := range ml.Members() {
			errs = append(errs, releaseMember(m))
		}
	}

	switch v := pool.(type) {
	case Teardowner:
		errs = append(errs, guard("teardown", v.Teardown))
	case io.Closer:
		errs = append(errs, guard("close", v.Close))
	}

	return errors.Join(errs...)
}
