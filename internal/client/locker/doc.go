// Package locker holds the Safe Locker client workflows: the upload
// orchestrator that stores objects and records them in the catalog, and the
// library that lists, sorts, resolves and deletes what was stored.
//
// Every remote effect goes through the ObjectStore and Catalog interfaces, so
// the same code runs against the gRPC backend, the in-memory backend and test
// doubles.
package locker
