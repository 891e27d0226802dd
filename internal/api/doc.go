// Package api exposes the operational surface shared by the IPC server and
// the CLI: transport-friendly DTOs plus a service that fronts the queue
// store, the workflow manager, and bulk selection.
//
// The package deliberately owns all conversion between persistence types and
// wire payloads so the store and manager never leak into transport code.
package api
