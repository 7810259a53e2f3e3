// Package mocks provides centralized mock implementations for testing.
//
// Each mock implements one interface with function fields per method, so a
// test can override exactly the behavior it cares about:
//
//	userStore := mocks.NewMockUserStore()
//	userStore.GetByEmailFn = func(ctx context.Context, email string) (*domain.User, error) {
//	    return nil, store.ErrUserNotFound
//	}
//
// Methods without an override fall back to a simple in-memory default.
package mocks
