// Package calendar provides a client for interacting with the Google Calendar API.
//
// The client is the scheduling engine's calendar collaborator: it fetches
// busy events per participant, queries aggregated free/busy data, and books
// meetings with attendee notifications and optional Google Meet conferences.
// It also offers direct event management (list, get, update, delete) for the
// HTTP and MCP surfaces.
//
// Credentials are resolved through the google package's ordered strategies.
// When only a bare access token is available the client runs read-only and
// refuses write operations with a ReadOnlyError.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := calendar.NewClient(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// List upcoming events
//	events, err := client.ListEvents(ctx, "primary", time.Now(), time.Now().AddDate(0, 0, 7), "")
//	if err != nil {
//	    log.Fatal(err)
//	}
package calendar
