package bridge

import "errors"

var (
	// ErrNotConnected is returned when publishing without a live broker connection.
	ErrNotConnected = errors.New("mqtt: client not connected")
	// ErrConnectionFailed wraps broker connect failures.
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	// ErrPublishFailed wraps broker publish failures.
	ErrPublishFailed = errors.New("mqtt: publish failed")
	// ErrTimeout is returned when the broker does not acknowledge in time.
	ErrTimeout = errors.New("mqtt: operation timed out")

	// ErrInvalidQoS is returned for QoS levels other than 0, 1 or 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")
	// ErrInvalidTopic is returned for an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
