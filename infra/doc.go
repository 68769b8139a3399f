// Package infra holds the adapters behind the core interfaces: metrics
// sinks, the MQTT publisher, the flow store and S3 uploads. Packages here
// depend on core, never the other way round.
package infra
