// Package sqlitestore implements runstore.Store on SQLite through the
// pure-Go modernc.org/sqlite driver, so run history survives the process
// without cgo.
package sqlitestore
