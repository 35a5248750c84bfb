// Package mail builds outgoing messages and talks to the Gmail API on behalf
// of a connected user.
//
// Build produces RFC 2822 bytes and EncodeRaw turns them into the base64url
// form the API expects. OAuth wraps the consent and token exchange flow, and
// Mailbox covers the inbox, draft and send calls the dashboard uses.
package mail
