// Package events streams live change events from the OpenMotics cloud
// websocket.
//
// Dial connects, sends a set_subscription action and returns a Stream whose
// Events channel delivers every change until the context is cancelled or
// Close is called. Dropped connections are re-established with exponential
// backoff; rejected credentials end the stream and are reported by Err.
package events
