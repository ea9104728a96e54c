package dashboard

import (
	"context"
	"errors"
	"log"
)

// LoadedState is the atomic result of the three initial reads.
type LoadedState struct {
	Identity  Identity
	Profile   Profile
	Owned     []Device
	Available []Device
}

// ResourceLoader issues the three initial reads concurrently and joins
// them into one all-or-nothing result.
type ResourceLoader struct {
	client *Client
	logger *log.Logger
}

// NewResourceLoader constructs a ResourceLoader.
func NewResourceLoader(client *Client, logger *log.Logger) (*ResourceLoader, error) {
	if client == nil {
		return nil, errors.New("dashboard: nil client")
	}
	return &ResourceLoader{client: client, logger: logger}, nil
}

// LoadInitialState fans out the session identity, owned-devices and
// available-devices reads and waits for all three to settle. An auth
// rejection on any read wins over the others and returns ErrAuthRejected;
// any other failure returns an error with no partial state applied.
func (l *ResourceLoader) LoadInitialState(ctx context.Context) (*LoadedState, error) {
	var (
		identity  Identity
		bundle    UserDevices
		available []Device
	)

	identityErr := make(chan error, 1)
	bundleErr := make(chan error, 1)
	availableErr := make(chan error, 1)

	go func() {
		var err error
		identity, err = l.client.Me(ctx)
		identityErr <- err
	}()
	go func() {
		var err error
		bundle, err = l.client.MyDevices(ctx)
		bundleErr <- err
	}()
	go func() {
		var err error
		available, err = l.client.AvailableDevices(ctx)
		availableErr <- err
	}()

	errs := []error{<-identityErr, <-bundleErr, <-availableErr}

	for _, err := range errs {
		if errors.Is(err, ErrAuthRejected) {
			return nil, ErrAuthRejected
		}
	}
	for _, err := range errs {
		if err != nil {
			if l.logger != nil {
				l.logger.Printf("dashboard: initial load failed: %v", err)
			}
			return nil, err
		}
	}

	state := &LoadedState{
		Identity:  identity,
		Profile:   bundle.User,
		Owned:     bundle.Devices,
		Available: available,
	}
	if state.Owned == nil {
		state.Owned = []Device{}
	}
	if state.Available == nil {
		state.Available = []Device{}
	}
	return state, nil
}
