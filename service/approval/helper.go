package approval

import (
	"context"
	"fmt"
	"time"
)

// DecisionFunc decides what to do with a pending request.
// Return (true,  "") to approve
//
//	(false, "…") to reject with reason.
type DecisionFunc func(r *Request) (approved bool, reason string)

// WaitForDecision blocks until the request identified by id takes a
// terminal transition, consuming the service's event queue, and returns the
// decided request. It fails when the timeout elapses first. The helper
// assumes it is the queue's only consumer.
func WaitForDecision(ctx context.Context, svc Service, id string, timeout time.Duration) (*Request, error) {
	deadline := time.Now().Add(timeout)
	waitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	// The decision may predate the wait.
	if request, err := svc.Get(ctx, id); err == nil && request.Status.Terminal() {
		return request, nil
	}

	queue := svc.Queue()
	for {
		message, err := queue.Consume(waitCtx)
		if err != nil {
			return nil, fmt.Errorf("timed out waiting for decision on %v: %w", id, err)
		}
		event := message.T()
		_ = message.Ack()
		if event.Request == nil || event.Request.ID != id {
			continue
		}
		switch event.Topic {
		case TopicRequestDecided, TopicRequestExpired:
			return event.Request, nil
		}
	}
}

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request, acting as each request's first listed approver. It returns
// stop() – call it (or cancel ctx) to exit.
func AutoDecider(ctx context.Context, svc Service, fn DecisionFunc, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	done := make(chan struct{})

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				requests, _ := svc.ListPending(ctx, "")
				for _, request := range requests {
					approver := ""
					if len(request.Approvers) > 0 {
						approver = request.Approvers[0]
					}
					if ok, reason := fn(request); ok {
						_ = svc.Approve(ctx, request.ID, approver, reason)
					} else {
						_ = svc.Reject(ctx, request.ID, approver, reason)
					}
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending requests.
func AutoApprove(ctx context.Context, svc Service, interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (bool, string) { return true, "" }, interval)
}

// AutoReject automatically rejects all pending requests with the given
// reason.
func AutoReject(ctx context.Context, svc Service, reason string, interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (bool, string) { return false, reason }, interval)
}
