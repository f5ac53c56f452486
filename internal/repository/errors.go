// Package repository implements the MySQL stores behind the BFF's local
// state.  Each repo satisfies a small interface declared by the package
// that consumes it (session.Store, booking.Journal, customer.FavoriteStore).
package repository

import "errors"

// ErrNotFound is returned when a row does not exist or is no longer live
// (a revoked or expired session, for instance).
var ErrNotFound = errors.New("not found")

