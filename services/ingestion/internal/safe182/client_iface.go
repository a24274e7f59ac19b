package safe182

import "context"

// Provider is the port for fetching pages of missing-person records.
type Provider interface {
	FetchPage(ctx context.Context, page int) (*Response, error)
	RowSize() int
}
