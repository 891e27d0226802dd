// Package queue owns the durable pipeline state: the project registry, the
// three per-stage FIFO job queues, and the persisted queue run states. All
// mutations flow through the Store so that every state change has a single
// write path into SQLite.
package queue
