// Package ui renders omctl output in the terminal.
//
// Lists are drawn as Lipgloss tables, results and failures as bordered
// boxes, and `omctl events watch` runs a Bubble Tea program that shows a
// spinner while the websocket connects and then scrolls incoming events.
//
// All components write through a Printer so commands can be tested against
// a bytes.Buffer. When the output format is JSON the Printer emits indented
// JSON instead of tables.
//
// Logging is controlled by OPENMOTICS_LOG_LEVEL. When unset zap stays silent
// so the styled output is not interleaved with log lines.
package ui
