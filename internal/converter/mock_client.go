package converter

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of API for handler and submitter tests.
type MockClient struct {
	mock.Mock
}

var _ API = (*MockClient)(nil)

func (m *MockClient) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	args := m.Called(ctx, req)
	if resp := args.Get(0); resp != nil {
		return resp.(*SubmitResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClient) DownloadResult(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if data := args.Get(0); data != nil {
		return data.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}
