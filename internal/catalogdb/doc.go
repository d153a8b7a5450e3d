// Package catalogdb persists finished catalogs to SQLite and reads them back.
//
// A Writer never touches a live database in place: the whole catalog is
// written to "<path>.tmp" inside one transaction and renamed over the target
// only after the commit succeeds, so readers observe either the previous
// catalog or the complete new one. Table and column names match what the
// browsing application queries.
package catalogdb
