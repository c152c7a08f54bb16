package redis

import (
	"context"
	"fmt"

	"github.com/aretw0/pangea/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// HandleAllocator implements ports.HandleAllocator with INCR on a shared
// counter, so handles stay unique across every process using the same key.
type HandleAllocator struct {
	client *backend.Client
	key    string
}

// NewHandleAllocator creates an allocator counting under prefix+"handles".
func NewHandleAllocator(client *backend.Client, prefix string) *HandleAllocator {
	return &HandleAllocator{
		client: client,
		key:    prefix + "handles",
	}
}

// Next returns the next handle. The first handle is 1.
func (a *HandleAllocator) Next(ctx context.Context) (domain.Handle, error) {
	n, err := a.client.Incr(ctx, a.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate handle: %w", err)
	}
	return domain.Handle(n), nil
}
