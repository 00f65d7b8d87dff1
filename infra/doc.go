// Package infra contains technical adapters: the MQTT request transport,
// metrics sinks, the Sentry monitor and the zerolog logger. These packages
// should depend only on the interfaces defined in the core packages.
package infra
