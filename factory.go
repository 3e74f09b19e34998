package objstore

import (
	"sync"

	oserrors "github.com/strandcloud/objstore/errors"
	"github.com/strandcloud/objstore/ostypes"
)

// Factory hands out clients keyed by account and jurisdiction, creating
// each one lazily on first request and reusing it afterwards. The base
// options given at construction apply to every client; account and
// jurisdiction are overridden per key.
//
// A Factory is safe for concurrent use.
type Factory struct {
	mu      sync.Mutex
	opts    []ostypes.Option
	clients map[string]*Client
	closed  bool
}

// NewFactory creates a factory whose clients share the given base options.
func NewFactory(opts ...ostypes.Option) *Factory {
	return &Factory{
		opts:    opts,
		clients: make(map[string]*Client),
	}
}

// Client returns the client for the given account and jurisdiction,
// creating it on first use. Two calls with the same pair return the same
// client.
func (f *Factory) Client(account, jurisdiction string) (*Client, error) {
	if account == "" {
		return nil, oserrors.NewValidationError("factory",
			"account cannot be empty", oserrors.ErrInvalidInput)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, oserrors.NewError("factory", oserrors.ErrInvalidInput).
			WithMessage("factory is shut down")
	}

	key := account + "/" + jurisdiction
	if client, ok := f.clients[key]; ok {
		return client, nil
	}

	opts := make([]ostypes.Option, 0, len(f.opts)+2)
	opts = append(opts, f.opts...)
	opts = append(opts, WithAccount(account), WithJurisdiction(jurisdiction))

	client, err := New(opts...)
	if err != nil {
		return nil, err
	}
	f.clients[key] = client
	return client, nil
}

// Len reports how many clients the factory currently holds.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Shutdown closes every cached client and marks the factory unusable.
func (f *Factory) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var firstErr error
	for key, client := range f.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(f.clients, key)
	}
	return firstErr
}
