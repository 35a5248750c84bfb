// Package integration groups the outbound clients for third-party lead,
// completion and image services. Each subpackage owns one provider.
package integration
