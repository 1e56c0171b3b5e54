package models

// Credential issued by the API on login.
// Both values are opaque: nothing on the client parses or validates them
type Credential struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

func (c Credential) IsZero() bool {
	return c.Access == ""
}
