// Package models holds the OpenMotics domain types returned by the cloud and
// local gateway clients, the schemas used to validate their payloads and the
// conversions from local gateway configuration/status pairs.
//
// Values are plain data: callers may copy them freely and nothing in this
// package performs I/O.
package models
