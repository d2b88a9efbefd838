// Package vocabulary loads the shared word pool from spreadsheet and CSV
// exports. Rows are validated, normalized and assigned stable IDs derived
// from word and category so that re-importing a file updates items in place.
package vocabulary
