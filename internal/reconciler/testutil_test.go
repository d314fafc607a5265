package reconciler

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"gitlab.bluewillows.net/root/wgdisco/pkg/provider"
)

// recordKey identifies a record set in the fake provider.
type recordKey struct {
	name  string
	rtype provider.RecordType
}

// fakeProvider is an in-memory provider.Provider for reconciler tests.
// It honors the capability contract: List of an absent key returns an
// empty slice, Delete of an absent key succeeds.
type fakeProvider struct {
	mu      sync.Mutex
	records map[recordKey][]string
	calls   []string

	// failHook, if set, is consulted before every mutation; a non-nil
	// return aborts the operation with that error.
	failHook func(op, name string, rtype provider.RecordType) error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{records: make(map[recordKey][]string)}
}

func (f *fakeProvider) Name() string { return "fake-zone" }
func (f *fakeProvider) Type() string { return "fake" }

func (f *fakeProvider) Ping(ctx context.Context) error { return nil }

func (f *fakeProvider) List(ctx context.Context, name string, rtype provider.RecordType) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("list %s %s", rtype, name))
	return slices.Clone(f.records[recordKey{name, rtype}]), nil
}

func (f *fakeProvider) Create(ctx context.Context, name string, rtype provider.RecordType, content string, ttl int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHook != nil {
		if err := f.failHook("create", name, rtype); err != nil {
			return err
		}
	}
	f.calls = append(f.calls, fmt.Sprintf("create %s %s", rtype, name))
	f.records[recordKey{name, rtype}] = []string{content}
	return nil
}

func (f *fakeProvider) Update(ctx context.Context, name string, rtype provider.RecordType, contents []string, ttl int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHook != nil {
		if err := f.failHook("update", name, rtype); err != nil {
			return err
		}
	}
	f.calls = append(f.calls, fmt.Sprintf("update %s %s", rtype, name))
	f.records[recordKey{name, rtype}] = slices.Clone(contents)
	return nil
}

func (f *fakeProvider) Delete(ctx context.Context, name string, rtype provider.RecordType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failHook != nil {
		if err := f.failHook("delete", name, rtype); err != nil {
			return err
		}
	}
	f.calls = append(f.calls, fmt.Sprintf("delete %s %s", rtype, name))
	delete(f.records, recordKey{name, rtype})
	return nil
}

// content returns the stored content for a key, nil when absent.
func (f *fakeProvider) content(name string, rtype provider.RecordType) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.records[recordKey{name, rtype}])
}

// exists reports whether a record set is present at all.
func (f *fakeProvider) exists(name string, rtype provider.RecordType) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[recordKey{name, rtype}]
	return ok
}

var _ provider.Provider = (*fakeProvider)(nil)
