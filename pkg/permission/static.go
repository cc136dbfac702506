package permission

import "context"

// Static answers every request the same way.
type Static struct {
	Granted bool
}

// Request implements Provider.
func (s Static) Request(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.Granted, nil
}
