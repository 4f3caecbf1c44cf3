// Package mocks provides test doubles for the enrichment collaborators.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sells-group/dataforge/internal/model"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockTextExtractor is a mock type for the TextExtractor interface.
type MockTextExtractor struct {
	mock.Mock
}

// Extract provides a mock function with given fields: ctx, url
func (_m *MockTextExtractor) Extract(ctx context.Context, url string) (string, error) {
	ret := _m.Called(ctx, url)

	if len(ret) == 0 {
		panic("no return value specified for Extract")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (string, error)); ok {
		return rf(ctx, url)
	}
	return ret.String(0), ret.Error(1)
}

// NewMockTextExtractor creates a new instance of MockTextExtractor.
func NewMockTextExtractor(t testingT) *MockTextExtractor {
	m := &MockTextExtractor{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockContactInferrer is a mock type for the ContactInferrer interface.
type MockContactInferrer struct {
	mock.Mock
}

// Infer provides a mock function with given fields: ctx, text, existing
func (_m *MockContactInferrer) Infer(ctx context.Context, text string, existing map[string]string) (*model.Contact, error) {
	ret := _m.Called(ctx, text, existing)

	if len(ret) == 0 {
		panic("no return value specified for Infer")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, map[string]string) (*model.Contact, error)); ok {
		return rf(ctx, text, existing)
	}
	var r0 *model.Contact
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Contact)
	}
	return r0, ret.Error(1)
}

// NewMockContactInferrer creates a new instance of MockContactInferrer.
func NewMockContactInferrer(t testingT) *MockContactInferrer {
	m := &MockContactInferrer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockEmailFinder is a mock type for the EmailFinder interface.
type MockEmailFinder struct {
	mock.Mock
}

// Find provides a mock function with given fields: ctx, firstName, lastName, domain
func (_m *MockEmailFinder) Find(ctx context.Context, firstName, lastName, domain string) (string, error) {
	ret := _m.Called(ctx, firstName, lastName, domain)

	if len(ret) == 0 {
		panic("no return value specified for Find")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, string, string) (string, error)); ok {
		return rf(ctx, firstName, lastName, domain)
	}
	return ret.String(0), ret.Error(1)
}

// NewMockEmailFinder creates a new instance of MockEmailFinder.
func NewMockEmailFinder(t testingT) *MockEmailFinder {
	m := &MockEmailFinder{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockEmailVerifier is a mock type for the EmailVerifier interface.
type MockEmailVerifier struct {
	mock.Mock
}

// Verify provides a mock function with given fields: ctx, email
func (_m *MockEmailVerifier) Verify(ctx context.Context, email string) (*model.Verification, error) {
	ret := _m.Called(ctx, email)

	if len(ret) == 0 {
		panic("no return value specified for Verify")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (*model.Verification, error)); ok {
		return rf(ctx, email)
	}
	var r0 *model.Verification
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Verification)
	}
	return r0, ret.Error(1)
}

// NewMockEmailVerifier creates a new instance of MockEmailVerifier.
func NewMockEmailVerifier(t testingT) *MockEmailVerifier {
	m := &MockEmailVerifier{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// MockRowStore is a mock type for the RowStore interface.
type MockRowStore struct {
	mock.Mock
}

// GetRow provides a mock function with given fields: ctx, id
func (_m *MockRowStore) GetRow(ctx context.Context, id string) (*model.Row, error) {
	ret := _m.Called(ctx, id)

	if len(ret) == 0 {
		panic("no return value specified for GetRow")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) (*model.Row, error)); ok {
		return rf(ctx, id)
	}
	var r0 *model.Row
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Row)
	}
	return r0, ret.Error(1)
}

// UpdateRow provides a mock function with given fields: ctx, id, upd
func (_m *MockRowStore) UpdateRow(ctx context.Context, id string, upd model.RowUpdate) error {
	ret := _m.Called(ctx, id, upd)

	if len(ret) == 0 {
		panic("no return value specified for UpdateRow")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, model.RowUpdate) error); ok {
		return rf(ctx, id, upd)
	}
	return ret.Error(0)
}

// ListRows provides a mock function with given fields: ctx, listID
func (_m *MockRowStore) ListRows(ctx context.Context, listID string) ([]model.Row, error) {
	ret := _m.Called(ctx, listID)

	if len(ret) == 0 {
		panic("no return value specified for ListRows")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string) ([]model.Row, error)); ok {
		return rf(ctx, listID)
	}
	var r0 []model.Row
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Row)
	}
	return r0, ret.Error(1)
}

// NewMockRowStore creates a new instance of MockRowStore.
func NewMockRowStore(t testingT) *MockRowStore {
	m := &MockRowStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
