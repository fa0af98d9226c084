// Package schedule_tools provides the MCP tools for meeting scheduling:
// find_availability, schedule_meeting, list_events and query_freebusy.
// All tools accept an optional account argument so one server can hold
// credentials for several Google identities.
package schedule_tools
