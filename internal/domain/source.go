package domain

import "context"

// WantedSource is the upstream wanted persons directory
type WantedSource interface {
	// List returns one page of the wanted list, optionally filtered by title
	List(ctx context.Context, params ListParams) (Payload, error)

	// Person returns a single wanted person record by uid
	Person(ctx context.Context, id string) (Payload, error)
}
