// Package database provides SQLite-based storage for privacy snapshots.
//
// The store keeps one current record per hostname, keyed
// "PRIVACY_DATA_<hostname>", so a restarted session for the same site can
// pick up where the last one stopped. Every save also appends a row to a
// history table, which is what the history command lists.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the data is
// small, local to one machine and written by a single process. The CGO-free
// driver keeps cross-compilation simple and WAL mode lets readers run while
// a session is being saved.
package database
