package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polkiloo/channelpass/internal/adapter/telegram"
)

type sourceStub struct {
	mu       sync.Mutex
	offsets  []int
	timeouts []time.Duration
	replies  []func() ([]telegram.Update, error)
}

func (s *sourceStub) GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]telegram.Update, error) {
	s.mu.Lock()
	s.offsets = append(s.offsets, offset)
	s.timeouts = append(s.timeouts, timeout)
	var reply func() ([]telegram.Update, error)
	if len(s.replies) > 0 {
		reply = s.replies[0]
		s.replies = s.replies[1:]
	}
	s.mu.Unlock()

	if reply != nil {
		return reply()
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *sourceStub) seenOffsets() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.offsets...)
}

type handlerStub struct {
	mu      sync.Mutex
	handled []int
	// block holds updates of the given sender until the channel is closed.
	block map[int64]chan struct{}
	delay time.Duration
}

func (h *handlerStub) Handle(_ context.Context, u telegram.Update) {
	if gate, ok := h.block[telegram.SenderID(u)]; ok {
		<-gate
	}
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	h.handled = append(h.handled, u.UpdateID)
	h.mu.Unlock()
}

func (h *handlerStub) ids() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.handled...)
}

func updates(ids ...int) func() ([]telegram.Update, error) {
	return func() ([]telegram.Update, error) {
		result := make([]telegram.Update, 0, len(ids))
		for _, id := range ids {
			result = append(result, telegram.Update{UpdateID: id})
		}
		return result, nil
	}
}

func fromUser(id int, userID int64) telegram.Update {
	return telegram.Update{
		UpdateID: id,
		Message:  &telegram.Message{From: &telegram.User{ID: userID}, Text: "/start"},
	}
}

func TestUpdatePollerAdvancesOffset(t *testing.T) {
	source := &sourceStub{replies: []func() ([]telegram.Update, error){
		updates(100, 101),
		updates(102),
	}}
	handler := &handlerStub{}
	poller := NewUpdatePoller(source, handler, 25*time.Second, 2, discardLogger())

	poller.Start(context.Background())
	waitFor(t, time.Second, func() bool { return len(source.seenOffsets()) >= 3 }, "poller stalled")
	poller.Stop()

	assert.Equal(t, []int{100, 101, 102}, handler.ids())
	assert.Equal(t, []int{0, 102, 103}, source.seenOffsets()[:3])
	source.mu.Lock()
	assert.Equal(t, 25*time.Second, source.timeouts[0])
	source.mu.Unlock()
}

func TestUpdatePollerBacksOffOnRateLimit(t *testing.T) {
	source := &sourceStub{replies: []func() ([]telegram.Update, error){
		func() ([]telegram.Update, error) {
			return nil, telegram.TooManyRequestsError{RetryAfter: 20 * time.Millisecond}
		},
		updates(7),
	}}
	handler := &handlerStub{}
	poller := NewUpdatePoller(source, handler, time.Second, 1, discardLogger())

	started := time.Now()
	poller.Start(context.Background())
	waitFor(t, time.Second, func() bool { return len(handler.ids()) == 1 }, "update after rate limit not handled")
	poller.Stop()

	assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)
	assert.Equal(t, []int{0, 0}, source.seenOffsets()[:2])
}

func TestUpdatePollerRetriesAfterError(t *testing.T) {
	source := &sourceStub{replies: []func() ([]telegram.Update, error){
		func() ([]telegram.Update, error) { return nil, errors.New("connection reset") },
		updates(1),
	}}
	handler := &handlerStub{}
	poller := NewUpdatePoller(source, handler, time.Second, 1, discardLogger())
	poller.retryDelay = 5 * time.Millisecond

	poller.Start(context.Background())
	waitFor(t, time.Second, func() bool { return len(handler.ids()) == 1 }, "poller did not recover")
	poller.Stop()
}

func TestUpdatePollerStopInterruptsLongPoll(t *testing.T) {
	source := &sourceStub{}
	poller := NewUpdatePoller(source, &handlerStub{}, time.Minute, 1, discardLogger())

	poller.Start(context.Background())
	waitFor(t, time.Second, func() bool { return len(source.seenOffsets()) == 1 }, "poll did not start")

	done := make(chan struct{})
	go func() {
		poller.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "stop did not interrupt long poll")
	}
}

func TestNewUpdatePollerClampsTimeout(t *testing.T) {
	poller := NewUpdatePoller(&sourceStub{}, &handlerStub{}, -time.Second, 0, discardLogger())
	assert.Equal(t, time.Duration(0), poller.timeout)
	assert.Equal(t, 1, poller.shards)
	assert.Equal(t, defaultRetryDelay, poller.retryDelay)
}

func TestUpdatePollerUsersDoNotBlockEachOther(t *testing.T) {
	gate := make(chan struct{})
	source := &sourceStub{replies: []func() ([]telegram.Update, error){
		func() ([]telegram.Update, error) {
			return []telegram.Update{fromUser(1, 1), fromUser(2, 2)}, nil
		},
	}}
	handler := &handlerStub{block: map[int64]chan struct{}{1: gate}}
	poller := NewUpdatePoller(source, handler, time.Second, 2, discardLogger())

	poller.Start(context.Background())
	waitFor(t, time.Second, func() bool { return len(handler.ids()) == 1 }, "second user waited behind the first")
	assert.Equal(t, []int{2}, handler.ids())

	close(gate)
	waitFor(t, time.Second, func() bool { return len(handler.ids()) == 2 }, "first user never finished")
	poller.Stop()
}

func TestUpdatePollerKeepsPerUserOrder(t *testing.T) {
	source := &sourceStub{replies: []func() ([]telegram.Update, error){
		func() ([]telegram.Update, error) {
			return []telegram.Update{fromUser(1, 7), fromUser(2, 8), fromUser(3, 7), fromUser(4, 7), fromUser(5, 8)}, nil
		},
	}}
	handler := &handlerStub{delay: time.Millisecond}
	poller := NewUpdatePoller(source, handler, time.Second, 4, discardLogger())

	poller.Start(context.Background())
	waitFor(t, time.Second, func() bool { return len(handler.ids()) == 5 }, "updates not handled")
	poller.Stop()

	var user7 []int
	for _, id := range handler.ids() {
		if id == 1 || id == 3 || id == 4 {
			user7 = append(user7, id)
		}
	}
	assert.Equal(t, []int{1, 3, 4}, user7)
}

func TestUpdatePollerStopDrainsQueuedUpdates(t *testing.T) {
	source := &sourceStub{replies: []func() ([]telegram.Update, error){
		func() ([]telegram.Update, error) {
			return []telegram.Update{fromUser(1, 5), fromUser(2, 5), fromUser(3, 5)}, nil
		},
	}}
	handler := &handlerStub{delay: 20 * time.Millisecond}
	poller := NewUpdatePoller(source, handler, time.Second, 2, discardLogger())

	poller.Start(context.Background())
	waitFor(t, time.Second, func() bool { return len(source.seenOffsets()) == 2 }, "batch not fetched")
	poller.Stop()

	assert.Equal(t, []int{1, 2, 3}, handler.ids())
}

func TestShardFor(t *testing.T) {
	assert.Equal(t, 0, shardFor(0, 4))
	assert.Equal(t, 0, shardFor(-100123, 4))
	assert.Equal(t, 1, shardFor(5, 4))
	assert.Equal(t, shardFor(42, 3), shardFor(42, 3))
}
