// Package localgw talks to an OpenMotics gateway on the LAN.
//
// The gateway API is action based: every call is a form POST to
// https://<host>/<action> carrying a session token obtained from the "login"
// action. The client logs in lazily, injects the token into every form and
// logs in again once when the gateway rejects it.
package localgw
