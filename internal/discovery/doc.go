// Package discovery finds OpenMotics gateways on the local network.
//
// Gateways advertise their web interface as an "_http._tcp" mDNS service.
// A Scanner browses for those services and keeps the ones that identify as
// an OpenMotics gateway, either through the hostname or instance name or
// through a "vendor=openmotics" TXT record.
//
// # Usage Example
//
//	gateways, err := discovery.NewScanner().Scan(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, gw := range gateways {
//	    fmt.Printf("%s at %s\n", gw.Name, gw.BaseURL())
//	}
//
// Multicast must be allowed on the interface (UDP port 5353) and the gateway
// must be on the same network segment.
package discovery
