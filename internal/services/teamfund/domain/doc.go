// Package domain defines the TeamFund records exchanged between the HTTP API,
// storage, and the lead/outreach integrations.
//
// JSON field names follow the camelCase wire format used by the browser and
// CLI clients.
package domain
