// Package driving defines the operations the command line drives:
// the poll loop, batch ingestion and ledger inspection.
//
// Implementations live in internal/core/services.
package driving
