// Package app contains the core application logic. It defines the App
// struct, its configuration, and the run lifecycle: load the network files,
// build the network, sample it in the configured mode, report the
// marginals and record the run. It is decoupled from any entrypoint like a
// CLI or a test harness.
package app
