package storage

import "context"

// Store persists uploaded meal photos and hands back an externally
// resolvable URL the vision model can fetch.
type Store interface {
	// Save writes the image under a collision-resistant name derived from the
	// client-supplied one and returns the stored name and its retrieval URL.
	Save(ctx context.Context, filename string, data []byte) (storedName string, url string, err error)
}
