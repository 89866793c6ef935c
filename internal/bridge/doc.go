// Package bridge republishes OpenMotics change events on an MQTT broker.
//
// Every event becomes a retained JSON message on
//
//	<prefix>/<installation>/<type>/<id>
//
// so subscribers joining late still see the last known state. The bridge
// announces itself as online on <prefix>/bridge/status and registers an
// offline Last Will so a crash is visible to subscribers too.
//
// Publishing goes through the Publisher interface; Connect returns the
// paho-backed implementation.
package bridge
