// Package redis provides Redis-backed infrastructure adapters: the
// shared client, a distributed sliding-window rate limiter, and the
// single-use password reset token store.
//
// All adapters share one Client so the application holds a single
// connection pool. The rate limiter and token store satisfy the
// corresponding interfaces declared by the app layer.
package redis
