// Package errors provides structured error handling for TeamFund services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeUnauthenticated  Code = "UNAUTHENTICATED"
	CodeNotConfigured    Code = "NOT_CONFIGURED"
	CodeMethodNotAllowed Code = "METHOD_NOT_ALLOWED"

	// Team errors
	CodeTeamNotFound     Code = "TEAM_NOT_FOUND"
	CodeTeamNameEmpty    Code = "TEAM_NAME_EMPTY"
	CodeTeamInvalidField Code = "TEAM_INVALID_FIELD"

	// Lead errors
	CodeLeadNotFound      Code = "LEAD_NOT_FOUND"
	CodeLeadInvalidStatus Code = "LEAD_INVALID_STATUS"
	CodeLeadInvalidFilter Code = "LEAD_INVALID_FILTER"

	// Outreach draft errors
	CodeDraftNotFound      Code = "DRAFT_NOT_FOUND"
	CodeDraftInvalidStatus Code = "DRAFT_INVALID_STATUS"

	// Asset errors
	CodeAssetNotFound    Code = "ASSET_NOT_FOUND"
	CodeAssetInvalidType Code = "ASSET_INVALID_TYPE"
	CodeAssetTooLarge    Code = "ASSET_TOO_LARGE"

	// Mail errors
	CodeMailNotConnected Code = "MAIL_NOT_CONNECTED"
	CodeMailInvalid      Code = "MAIL_INVALID_MESSAGE"

	// Payment errors
	CodePaymentInvalidAmount    Code = "PAYMENT_INVALID_AMOUNT"
	CodePaymentInvalidSignature Code = "PAYMENT_INVALID_SIGNATURE"

	// Upstream errors
	CodeUpstreamFailed   Code = "UPSTREAM_FAILED"
	CodeLocationNotFound Code = "LOCATION_NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidInput,
		CodeTeamNameEmpty,
		CodeTeamInvalidField,
		CodeLeadInvalidStatus,
		CodeLeadInvalidFilter,
		CodeDraftInvalidStatus,
		CodeAssetInvalidType,
		CodeMailInvalid,
		CodePaymentInvalidAmount,
		CodePaymentInvalidSignature:
		return http.StatusBadRequest

	case CodeUnauthenticated, CodeMailNotConnected:
		return http.StatusUnauthorized

	case CodeTeamNotFound,
		CodeLeadNotFound,
		CodeDraftNotFound,
		CodeAssetNotFound,
		CodeLocationNotFound:
		return http.StatusNotFound

	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed

	case CodeAssetTooLarge:
		return http.StatusRequestEntityTooLarge

	case CodeUpstreamFailed:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
