// Package visitor implements the visitor registry.
//
// A visitor is identified by email and nothing else. The registry guarantees
// at most one record per address: FindOrCreate is idempotent in existence
// terms, and a lost insert race (the storage layer's unique constraint fires)
// is resolved by re-reading the winner's row.
//
// The service layer depends only on the Repository interface defined in
// repository.go. It never imports net/http or database/sql directly.
package visitor
