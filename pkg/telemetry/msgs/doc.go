// Package msgs defines the telemetry messages published by the
// controller and the Typed envelope carrying them over MQTT and
// websocket.
package msgs

// Producer: thermald
// Consumer: dashboards, bench tools
