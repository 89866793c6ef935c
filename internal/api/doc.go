// Package api is the transport core shared by the cloud and local gateway
// clients.
//
// A Client is built once from a Config with Connect and is safe for use by
// many goroutines. Every call goes through Do, which applies authentication,
// sends the request with a per-attempt deadline, retries transient failures
// according to a RetryPolicy and maps the outcome onto a single Error type:
//
//	client, err := api.Connect(api.Config{
//		BaseURL: "https://cloud.openmotics.com/api/v1.1",
//		Token:   os.Getenv("OPENMOTICS_TOKEN"),
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	resources, err := client.ListResources(ctx)
//
// Payloads are checked against a Schema before they are decoded into typed
// values, so a shape mismatch surfaces as a validation error instead of a
// half-filled struct.
package api
