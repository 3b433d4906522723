// Command dbspctl manages projects and pipelines on a DBSP pipeline server.
//
// It creates and compiles SQL projects, publishes pipeline configs from TOML
// endpoint files, drives pipelines through pause, shutdown, and delete,
// prepares Kafka topics for them, and offers a live terminal dashboard
// (`dbspctl watch`).
package main
