package domain

// Payload is a JSON-like document as returned by the upstream API.
// Values must stay plain structured data so they can be re-encoded as-is.
type Payload map[string]interface{}

// Clone returns a shallow copy of the payload
func (p Payload) Clone() Payload {
	out := make(Payload, len(p)+4)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ListParams describes a page request against the wanted list
type ListParams struct {
	Page     int
	PageSize int
	// Title filters the list by a free-text title match (search)
	Title string
}

// FilterOptions lists the distinct values the client can filter on
type FilterOptions struct {
	HairColors []string `json:"hairColors"`
	Races      []string `json:"races"`
}

// Payload converts the options into a cacheable payload
func (o FilterOptions) Payload() Payload {
	return Payload{
		"hairColors": o.HairColors,
		"races":      o.Races,
	}
}

// User is the identity carried by an access token
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
