// Package inmemorystore provides a thread-safe, in-memory implementation
// of the runstore.Store interface. It is suitable for development, testing,
// or any run whose history does not need to outlive the process.
package inmemorystore
