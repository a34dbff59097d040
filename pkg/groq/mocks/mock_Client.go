// Package mocks provides test doubles for the groq client.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	groq "github.com/ComradeParth/VC-Intelligence-Interface/pkg/groq"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// ChatCompletion provides a mock function with given fields: ctx, req
func (_m *MockClient) ChatCompletion(ctx context.Context, req groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error) {
	ret := _m.Called(ctx, req)

	if len(ret) == 0 {
		panic("no return value specified for ChatCompletion")
	}

	var r0 *groq.ChatCompletionResponse
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, groq.ChatCompletionRequest) (*groq.ChatCompletionResponse, error)); ok {
		return rf(ctx, req)
	}
	if rf, ok := ret.Get(0).(func(context.Context, groq.ChatCompletionRequest) *groq.ChatCompletionResponse); ok {
		r0 = rf(ctx, req)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*groq.ChatCompletionResponse)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, groq.ChatCompletionRequest) error); ok {
		r1 = rf(ctx, req)
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
