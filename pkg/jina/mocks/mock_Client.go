// Package mocks provides test doubles for the jina client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	jina "github.com/sells-group/dataforge/pkg/jina"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Read provides a mock function with given fields: ctx, targetURL
func (_m *MockClient) Read(ctx context.Context, targetURL string) (*jina.ReadResponse, error) {
	ret := _m.Called(ctx, targetURL)

	if len(ret) == 0 {
		panic("no return value specified for Read")
	}

	var r0 *jina.ReadResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*jina.ReadResponse, error)); ok {
		return rf(ctx, targetURL)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *jina.ReadResponse); ok {
		r0 = rf(ctx, targetURL)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*jina.ReadResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, targetURL)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
