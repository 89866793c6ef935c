package urls

// CloudAPI is the default base URL of the OpenMotics cloud REST API.
const CloudAPI = "https://cloud.openmotics.com/api/v1.1"

// CloudEvents is the websocket endpoint used for live installation events.
const CloudEvents = "wss://cloud.openmotics.com/api/v1.1/ws/events"

// CloudTokenPath is the OAuth2 token endpoint, relative to CloudAPI.
const CloudTokenPath = "/authentication/oauth2/token"

// CloudAPIDocs documents the cloud REST API, scopes and rate limits.
const CloudAPIDocs = "https://cloud.openmotics.com/api/v1.1/docs"

// GatewayAPIDocs documents the local gateway HTTP API (login, actions, tokens).
const GatewayAPIDocs = "https://wiki.openmotics.com/index.php/API_Documentation"

// DeveloperPortal is where cloud client ids and secrets are created.
const DeveloperPortal = "https://portal.openmotics.com"
