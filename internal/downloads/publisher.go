package downloads

import (
	"context"

	"github.com/google/uuid"
)

// PathPrefix is where the HTTP server serves published downloads
const PathPrefix = "/downloads/"

// Publisher stores documents and hands back the URL they can be fetched from
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Publish stores the document under a fresh ID. The handle stays valid
// until the store expires it.
func (p *Publisher) Publish(ctx context.Context, name, contentType string, data []byte) (string, error) {
	id := uuid.NewString()
	blob := &Blob{Name: name, ContentType: contentType, Data: data}
	if err := p.store.Put(ctx, id, blob); err != nil {
		return "", err
	}
	return PathPrefix + id, nil
}
