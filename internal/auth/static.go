package auth

import "context"

// StaticCredentials returns a fixed bearer token unchanged on every call —
// the simplest auth variant, typically used against a local/test cluster.
type StaticCredentials struct {
	Token    string
	Database string
}

func NewStaticCredentials(token, database string) *StaticCredentials {
	return &StaticCredentials{Token: token, Database: database}
}

func (c *StaticCredentials) GetAuthMetadata(_ context.Context) (map[string]string, error) {
	return map[string]string{
		AuthHeaderTicket:   c.Token,
		AuthHeaderDatabase: c.Database,
	}, nil
}
