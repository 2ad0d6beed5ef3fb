// Package auth implements the credential schemes the driver's transport
// consumes through the Credentials capability: a static bearer token, an
// IAM/JWT service-account exchange, and an instance-metadata delegate.
package auth

import "context"

// AuthHeaderTicket and AuthHeaderDatabase are the two metadata headers
// every outbound call must carry, per the wire protocol.
const (
	AuthHeaderTicket   = "x-ydb-auth-ticket"
	AuthHeaderDatabase = "x-ydb-database"
)

// Credentials is the capability every auth variant implements.
type Credentials interface {
	GetAuthMetadata(ctx context.Context) (map[string]string, error)
}
