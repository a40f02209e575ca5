package modelclient

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/refact-ai/agentcore/internal/model"
)

type fakeRLClient struct {
	calls int
	err   error
	resp  Response
}

func (f *fakeRLClient) Complete(_ context.Context, _ Request) (Response, error) {
	f.calls++
	return f.resp, f.err
}

func TestAdaptiveRateLimiterBacksOffOnRateLimited(t *testing.T) {
	l := NewAdaptiveRateLimiter(1000, 1000)
	before := l.currentTPM
	l.observe(errRateLimitedWrapped())
	if l.currentTPM >= before {
		t.Fatalf("expected currentTPM to drop below %v, got %v", before, l.currentTPM)
	}
	if l.currentTPM < l.minTPM {
		t.Fatalf("currentTPM %v fell below floor %v", l.currentTPM, l.minTPM)
	}
}

func TestAdaptiveRateLimiterIgnoresUnrelatedErrors(t *testing.T) {
	l := NewAdaptiveRateLimiter(1000, 1000)
	before := l.currentTPM
	l.observe(errors.New("some other failure"))
	if l.currentTPM != before {
		t.Fatalf("expected currentTPM unchanged on unrelated error, got %v want %v", l.currentTPM, before)
	}
}

func TestAdaptiveRateLimiterRecoversOnSuccess(t *testing.T) {
	l := NewAdaptiveRateLimiter(1000, 1000)
	l.backoff()
	backedOff := l.currentTPM
	l.observe(nil)
	if l.currentTPM <= backedOff {
		t.Fatalf("expected currentTPM to rise above %v after a success, got %v", backedOff, l.currentTPM)
	}
}

func TestAdaptiveRateLimiterClampsToMax(t *testing.T) {
	l := NewAdaptiveRateLimiter(1000, 1000)
	for i := 0; i < 100; i++ {
		l.observe(nil)
	}
	if l.currentTPM > l.maxTPM {
		t.Fatalf("currentTPM %v exceeded ceiling %v", l.currentTPM, l.maxTPM)
	}
}

func TestLimitedClientObservesUnderlyingErrors(t *testing.T) {
	next := &fakeRLClient{err: errRateLimitedWrapped()}
	l := NewAdaptiveRateLimiter(1000, 1000)
	wrapped := l.Wrap(next)

	before := l.currentTPM
	_, err := wrapped.Complete(context.Background(), Request{
		Messages: []model.Message{model.NewSimpleText(model.RoleUser, "hi")},
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited to propagate, got %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("expected underlying client called once, got %d", next.calls)
	}
	if l.currentTPM >= before {
		t.Fatalf("expected wrapped client to observe the failure and back off")
	}
}

func errRateLimitedWrapped() error {
	return fmt.Errorf("modelclient: bedrock converse: %w: ThrottlingException", ErrRateLimited)
}
