// Package infra contains technical adapters such as MQTT clients,
// metrics exporters, snapshot writers and run stores. These packages
// should depend only on the interfaces defined in the core packages.
package infra
