package ydbpb

// StatusCode mirrors the server's wire-level operation status, distinct from
// gRPC's own transport-level codes.Code. A gRPC call can succeed at the
// transport layer (codes.OK) yet carry a non-success StatusCode in its
// response body.
type StatusCode int32

const (
	StatusSuccess            StatusCode = 400000
	StatusBadRequest         StatusCode = 400010
	StatusUnauthorized       StatusCode = 400020
	StatusInternalError      StatusCode = 400030
	StatusAborted            StatusCode = 400040
	StatusUnavailable        StatusCode = 400050
	StatusOverloaded         StatusCode = 400060
	StatusSchemeError        StatusCode = 400070
	StatusGenericError       StatusCode = 400080
	StatusTimeout            StatusCode = 400090
	StatusBadSession         StatusCode = 400100
	StatusPreconditionFailed StatusCode = 400120
	StatusNotFound           StatusCode = 400130
	StatusSessionBusy        StatusCode = 400140
	StatusSessionExpired     StatusCode = 400150
)

func (c StatusCode) String() string {
	switch c {
	case StatusSuccess:
		return "SUCCESS"
	case StatusBadRequest:
		return "BAD_REQUEST"
	case StatusUnauthorized:
		return "UNAUTHORIZED"
	case StatusInternalError:
		return "INTERNAL_ERROR"
	case StatusAborted:
		return "ABORTED"
	case StatusUnavailable:
		return "UNAVAILABLE"
	case StatusOverloaded:
		return "OVERLOADED"
	case StatusSchemeError:
		return "SCHEME_ERROR"
	case StatusGenericError:
		return "GENERIC_ERROR"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusBadSession:
		return "BAD_SESSION"
	case StatusPreconditionFailed:
		return "PRECONDITION_FAILED"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusSessionBusy:
		return "SESSION_BUSY"
	case StatusSessionExpired:
		return "SESSION_EXPIRED"
	default:
		return "UNKNOWN"
	}
}
