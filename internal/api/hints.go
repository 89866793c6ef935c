package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evilb/openmotics/internal/urls"
)

// TroubleshootingHint returns multi-line guidance for an error returned by the client.
func TroubleshootingHint(err error) string {
	if errors.Is(err, ErrClientClosed) {
		return "The client was closed while the request was running. Re-run the command."
	}
	if errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrInvalidID) {
		return strings.Join([]string{
			"An argument on the command line was not accepted.",
			"  • Run the command with --help to see the expected arguments",
			"  • List the resource kind (e.g. 'omctl outputs list') to look up ids",
		}, "\n")
	}

	apiErr, ok := asError(err)
	if !ok {
		return "An unexpected error occurred. Please try again."
	}

	switch apiErr.Type {
	case ErrTypeConfiguration:
		return strings.Join([]string{
			"The client is not configured correctly.",
			"Troubleshooting:",
			"  • Check the base URL (e.g. " + urls.CloudAPI + ")",
			"  • Run 'omctl config show' to inspect the active settings",
		}, "\n")

	case ErrTypeAuth:
		if apiErr.StatusCode == 0 {
			return strings.Join([]string{
				"No usable credentials were found.",
				"Troubleshooting:",
				"  • Export OPENMOTICS_TOKEN or OPENMOTICS_CLIENT_SECRET for the cloud",
				"  • Export OPENMOTICS_PASSWORD for a local gateway",
				"  • Create API credentials at " + urls.DeveloperPortal,
			}, "\n")
		}
		return strings.Join([]string{
			fmt.Sprintf("The server rejected the credentials (HTTP %d).", apiErr.StatusCode),
			"Troubleshooting:",
			"  • The access token may have expired; request a new one",
			"  • Check that the client has the 'control' scope for write actions",
			"  • Verify the installation id belongs to this account",
		}, "\n")

	case ErrTypeTransport:
		hint := []string{"The request could not be completed."}

		switch apiErr.NetworkSubtype {
		case NetworkErrorTimeout:
			hint = append(hint, "The server did not answer in time.",
				"Troubleshooting:",
				"  • Try increasing --timeout",
				"  • Check your internet connection or gateway LAN link")
		case NetworkErrorDNS:
			hint = append(hint, "The host name could not be resolved.",
				"Troubleshooting:",
				"  • Use the gateway IP address instead of its name",
				"  • Run 'omctl discover' to find gateways on the LAN")
		case NetworkErrorConnectionRefused:
			hint = append(hint, "The connection was refused.",
				"Troubleshooting:",
				"  • Verify the port (the gateway API listens on 443)",
				"  • Check that the gateway API is enabled")
		case NetworkErrorHostUnreachable, NetworkErrorNetworkUnreachable:
			hint = append(hint, "The host is not reachable from this machine.",
				"Troubleshooting:",
				"  • Check that you are on the same network as the gateway")
		case NetworkErrorServerStatus:
			hint = append(hint, fmt.Sprintf("The server kept failing (HTTP %d).", apiErr.StatusCode),
				"Troubleshooting:",
				"  • The service may be under maintenance; try again later")
		case NetworkErrorTLS:
			hint = append(hint, "The server certificate could not be verified.",
				"Troubleshooting:",
				"  • Local gateways use a self-signed certificate; pass --insecure to accept it",
				"  • Check that the host name matches the certificate")
		case NetworkErrorCancelled:
			return "The request was cancelled."
		default:
			hint = append(hint, "Troubleshooting:",
				"  • Check your network connection")
		}
		if apiErr.Attempts > 1 {
			hint = append(hint, fmt.Sprintf("  • Gave up after %d attempts", apiErr.Attempts))
		}
		return strings.Join(hint, "\n")

	case ErrTypeAPI:
		if apiErr.StatusCode == 404 {
			return "The requested item does not exist. Check the id and installation."
		}
		return fmt.Sprintf("The API rejected the request (HTTP %d). See %s for valid parameters.", apiErr.StatusCode, urls.CloudAPIDocs)

	case ErrTypeValidation:
		return strings.Join([]string{
			"The server response did not have the expected shape.",
			"This usually means the API version differs from the one this tool supports.",
			"  • Run with OPENMOTICS_LOG_LEVEL=debug to see the payload",
		}, "\n")

	default:
		return "An error occurred. Please check the error message for details."
	}
}

// ShortErrorMessage returns a one-line summary suitable for status output.
func ShortErrorMessage(err error) string {
	apiErr, ok := asError(err)
	if !ok {
		return err.Error()
	}

	switch apiErr.Type {
	case ErrTypeConfiguration:
		return "Invalid configuration: " + apiErr.Message
	case ErrTypeAuth:
		return "Authentication failed"
	case ErrTypeTransport:
		switch apiErr.NetworkSubtype {
		case NetworkErrorTimeout:
			return "Server not responding (timeout)"
		case NetworkErrorCancelled:
			return "Request cancelled"
		case NetworkErrorTLS:
			return "Certificate not trusted"
		case NetworkErrorServerStatus:
			return fmt.Sprintf("Server error (HTTP %d)", apiErr.StatusCode)
		}
		return "Network error"
	case ErrTypeAPI:
		return fmt.Sprintf("Request rejected (HTTP %d)", apiErr.StatusCode)
	case ErrTypeValidation:
		return "Unexpected response: " + apiErr.Message
	default:
		return apiErr.Error()
	}
}
