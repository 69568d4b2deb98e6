// Package otel publishes goConsole metrics through an OpenTelemetry meter.
//
// Every counter becomes an Int64ObservableCounter and the login latency
// histogram becomes one cumulative gauge per bucket plus a count gauge. All
// instruments are observed from a single registered callback that reads a
// store snapshot; [OTelExporter.Close] unregisters it.
package otel
