// Package storage defines the persistence contract of the platform:
// the Store interface, the user and restaurant records, sentinel errors,
// and the tenant context helpers used for per-request data scoping.
//
// Implementations live in subpackages (memory, postgres). The tenant
// identifier placed in the context always originates from a verified
// session token, never from request input; stores use it to fence
// tenant-scoped reads and writes.
package storage
