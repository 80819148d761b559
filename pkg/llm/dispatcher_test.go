package llm

import (
	"context"
	"strings"
	"testing"
	"time"

	"smelty/pkg/ratelimit"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MockProvider struct {
	mock.Mock
	name string
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Complete(ctx context.Context, system, user string) (string, error) {
	args := m.Called(system, user)
	return args.String(0), args.Error(1)
}

func TestGenerate_PrimarySuccess(t *testing.T) {
	primary := &MockProvider{name: "primary"}
	secondary := &MockProvider{name: "secondary"}
	primary.On("Complete", "sys", "hi").Return("hello", nil).Once()

	limiter := ratelimit.New(5, time.Minute)
	d := NewDispatcher(limiter, time.Second, nil, primary, secondary)

	text, err := d.Generate(context.Background(), "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	primary.AssertExpectations(t)
	secondary.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	assert.Equal(t, 1, limiter.Stats().Used)
}

func TestGenerate_FallbackOnPrimaryFailure(t *testing.T) {
	primary := &MockProvider{name: "primary"}
	secondary := &MockProvider{name: "secondary"}
	primary.On("Complete", "sys", "hi").Return("", &APIError{StatusCode: 503, Body: "down"}).Once()
	secondary.On("Complete", "sys", "hi").Return("from backup", nil).Once()

	limiter := ratelimit.New(5, time.Minute)
	d := NewDispatcher(limiter, time.Second, nil, primary, secondary)

	text, err := d.Generate(context.Background(), "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "from backup", text)
	assert.Equal(t, 1, limiter.Stats().Used)

	primary.AssertExpectations(t)
	secondary.AssertExpectations(t)
}

func TestGenerate_EmptyPrimaryFallsBack(t *testing.T) {
	primary := &MockProvider{name: "primary"}
	secondary := &MockProvider{name: "secondary"}
	primary.On("Complete", "sys", "hi").Return("   ", nil).Once()
	secondary.On("Complete", "sys", "hi").Return("ok", nil).Once()

	d := NewDispatcher(ratelimit.New(5, time.Minute), time.Second, nil, primary, secondary)

	text, err := d.Generate(context.Background(), "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestGenerate_BothFail(t *testing.T) {
	primary := &MockProvider{name: "primary"}
	secondary := &MockProvider{name: "secondary"}
	primary.On("Complete", "sys", "hi").Return("", errors.New("timeout")).Once()
	secondary.On("Complete", "sys", "hi").Return("", errors.New("bad payload")).Once()

	limiter := ratelimit.New(5, time.Minute)
	d := NewDispatcher(limiter, time.Second, nil, primary, secondary)

	_, err := d.Generate(context.Background(), "sys", "hi")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProvidersUnavailable))

	var rlErr *RateLimitError
	assert.False(t, errors.As(err, &rlErr))

	// Failed attempts do not consume budget.
	stats := limiter.Stats()
	assert.Equal(t, 0, stats.Used)
	assert.Equal(t, 0, stats.Pending)
}

func TestGenerate_RateLimitedMakesNoCall(t *testing.T) {
	primary := &MockProvider{name: "primary"}

	limiter := ratelimit.New(1, time.Minute)
	limiter.Record()
	d := NewDispatcher(limiter, time.Second, nil, primary)

	_, err := d.Generate(context.Background(), "sys", "hi")
	require.Error(t, err)

	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.True(t, rlErr.RetryAfter > 0)
	assert.False(t, errors.Is(err, ErrProvidersUnavailable))

	primary.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	assert.Equal(t, 1, limiter.Stats().Used)
}

func TestGenerate_SkipsNilProviders(t *testing.T) {
	var missing *MockProvider
	secondary := &MockProvider{name: "secondary"}
	secondary.On("Complete", "sys", "hi").Return("ok", nil).Once()

	d := NewDispatcher(ratelimit.New(5, time.Minute), time.Second, nil, missing, secondary)
	assert.Equal(t, []string{"secondary"}, d.Providers())

	text, err := d.Generate(context.Background(), "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestGenerate_NoProviders(t *testing.T) {
	limiter := ratelimit.New(5, time.Minute)
	d := NewDispatcher(limiter, time.Second, nil)

	_, err := d.Generate(context.Background(), "sys", "hi")
	assert.True(t, errors.Is(err, ErrProvidersUnavailable))
	assert.Equal(t, 0, limiter.Stats().Pending)
}

type slowProvider struct{}

func (slowProvider) Name() string { return "slow" }

func (slowProvider) Complete(ctx context.Context, system, user string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGenerate_PerCallTimeout(t *testing.T) {
	secondary := &MockProvider{name: "secondary"}
	secondary.On("Complete", "sys", "hi").Return("fast", nil).Once()

	d := NewDispatcher(ratelimit.New(5, time.Minute), 20*time.Millisecond, nil, slowProvider{}, secondary)

	start := time.Now()
	text, err := d.Generate(context.Background(), "sys", "hi")
	require.NoError(t, err)
	assert.Equal(t, "fast", text)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRateLimitError_RetrySeconds(t *testing.T) {
	assert.Equal(t, 55, (&RateLimitError{RetryAfter: 54100 * time.Millisecond}).RetrySeconds())
	assert.Equal(t, 1, (&RateLimitError{RetryAfter: 0}).RetrySeconds())
}

func TestAPIErrorTruncation(t *testing.T) {
	err := &APIError{StatusCode: 400, Body: strings.Repeat("A", 5000)}

	msg := err.Error()
	assert.Less(t, len(msg), 1000)
	assert.Contains(t, msg, "(truncated)")
	assert.Contains(t, msg, "api status 400")
}

func TestCleanOutput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Plain", "hello", "hello"},
		{"Think block", "<think>\nreasoning\n</think>\n answer ", "answer"},
		{"Quoted", "\"quoted reply\"", "quoted reply"},
		{"Single quote char", "\"", "\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanOutput(tt.in))
		})
	}
}
