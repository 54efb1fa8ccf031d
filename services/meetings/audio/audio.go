// Package audio stores uploaded recordings and reads them back by reference.
package audio

import "context"

type Store interface {
	// Save writes data under name and returns the reference to load it with.
	Save(ctx context.Context, name string, data []byte) (string, error)
	// Load returns the bytes behind ref. A missing object yields an
	// entity.ErrContentMissing error.
	Load(ctx context.Context, ref string) ([]byte, error)
}
