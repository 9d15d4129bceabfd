// Package archive keeps generated leaderboards in a SQLite database so a later run
// can use an earlier one as its prior period.
package archive
