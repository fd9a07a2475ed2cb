// Package mocks provides testify/mock implementations of the store and
// collaborator interfaces, shared by the automation, collab and api tests.
//
// Usage:
//
//	cards := &mocks.MockCardStore{}
//	cards.On("SetPriority", mock.Anything, cardID, domain.PriorityLow).Return(nil)
//	// ... exercise the code under test ...
//	cards.AssertExpectations(t)
//
// When adding a mock, create a file named after the interface being mocked
// and add a compile-time assertion that the mock satisfies it.
package mocks
