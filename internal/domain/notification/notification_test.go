package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Send(ctx context.Context, c Confirmation) Result {
	args := m.Called(ctx, c)
	return args.Get(0).(Result)
}

func (m *MockDispatcher) Verify(ctx context.Context) Result {
	args := m.Called(ctx)
	return args.Get(0).(Result)
}

func fastRetry() AsyncOption {
	return WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} })
}

func sampleConfirmation() Confirmation {
	return Confirmation{
		BookingID:       7,
		To:              "maria@example.com",
		CustomerName:    "Maria",
		ServiceName:     "Tunsoare de Bază",
		ServiceDuration: 30,
		ServicePrice:    decimal.RequireFromString("25"),
		Date:            "2026-03-02",
		Time:            "10:10",
	}
}

func dispatchAndWait(t *testing.T, a *Async, c Confirmation) Result {
	t.Helper()
	var (
		mu  sync.Mutex
		got Result
	)
	a.Dispatch(c, func(r Result) {
		mu.Lock()
		got = r
		mu.Unlock()
	})
	a.Wait()
	mu.Lock()
	defer mu.Unlock()
	return got
}

func TestAsync_SucceedsFirstTry(t *testing.T) {
	d := new(MockDispatcher)
	d.On("Send", mock.Anything, mock.Anything).Return(Result{Success: true, Message: "sent"}).Once()

	res := dispatchAndWait(t, NewAsync(d, time.Second, fastRetry()), sampleConfirmation())

	assert.True(t, res.Success)
	assert.Equal(t, "sent", res.Message)
	d.AssertNumberOfCalls(t, "Send", 1)
}

func TestAsync_RetriesThenGivesUp(t *testing.T) {
	d := new(MockDispatcher)
	d.On("Send", mock.Anything, mock.Anything).Return(Result{Success: false, Message: "smtp down"})

	res := dispatchAndWait(t, NewAsync(d, time.Second, fastRetry()), sampleConfirmation())

	assert.False(t, res.Success)
	assert.Equal(t, "smtp down", res.Message)
	d.AssertNumberOfCalls(t, "Send", 3)
}

func TestAsync_PermanentFailureIsNotRetried(t *testing.T) {
	d := new(MockDispatcher)
	d.On("Send", mock.Anything, mock.Anything).Return(rejected("No recipient"))

	res := dispatchAndWait(t, NewAsync(d, time.Second, fastRetry()), sampleConfirmation())

	assert.False(t, res.Success)
	assert.Equal(t, "No recipient", res.Message)
	d.AssertNumberOfCalls(t, "Send", 1)
}

func TestAsync_MailWithoutCredentialsTriesOnce(t *testing.T) {
	mail := NewMailDispatcher(MailConfig{Enabled: true}, Salon{Name: "Naomi"})
	d := new(MockDispatcher)
	d.On("Send", mock.Anything, mock.Anything).Return(mail.Send(context.Background(), sampleConfirmation()))

	res := dispatchAndWait(t, NewAsync(d, time.Second, fastRetry()), sampleConfirmation())

	assert.Equal(t, "Email not configured", res.Message)
	d.AssertNumberOfCalls(t, "Send", 1)
}

func TestAsync_RecoversOnRetry(t *testing.T) {
	d := new(MockDispatcher)
	d.On("Send", mock.Anything, mock.Anything).Return(Result{Success: false, Message: "busy"}).Once()
	d.On("Send", mock.Anything, mock.Anything).Return(Result{Success: true, Message: "sent"}).Once()

	res := dispatchAndWait(t, NewAsync(d, time.Second, fastRetry()), sampleConfirmation())

	assert.True(t, res.Success)
	d.AssertNumberOfCalls(t, "Send", 2)
}

type fakeSender struct {
	sent    []*gomail.Message
	sendErr error
	dialErr error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, m...)
	return nil
}

func (f *fakeSender) Dial() (gomail.SendCloser, error) {
	return nil, f.dialErr
}

func TestMailDispatcher(t *testing.T) {
	salon := Salon{Name: "Naomi", Address: "Str. Test 1"}
	cfg := MailConfig{Enabled: true, Host: "smtp.example.com", Port: 587, User: "salon@example.com", Password: "pw"}

	t.Run("disabled", func(t *testing.T) {
		d := NewMailDispatcher(MailConfig{Enabled: false}, salon)
		res := d.Send(context.Background(), sampleConfirmation())
		assert.True(t, res.Success)
		assert.Equal(t, "Email disabled", res.Message)
	})

	t.Run("missing credentials", func(t *testing.T) {
		d := NewMailDispatcher(MailConfig{Enabled: true}, salon)
		res := d.Send(context.Background(), sampleConfirmation())
		assert.False(t, res.Success)
		assert.Equal(t, "Email not configured", res.Message)
	})

	t.Run("sends text and html", func(t *testing.T) {
		d := NewMailDispatcher(cfg, salon)
		fs := &fakeSender{}
		d.sender = fs

		res := d.Send(context.Background(), sampleConfirmation())
		require.True(t, res.Success, res.Message)
		require.Len(t, fs.sent, 1)
		assert.Equal(t, []string{"maria@example.com"}, fs.sent[0].GetHeader("To"))
		assert.Equal(t, []string{"Booking confirmation - Naomi"}, fs.sent[0].GetHeader("Subject"))
	})

	t.Run("smtp failure is reported not raised", func(t *testing.T) {
		d := NewMailDispatcher(cfg, salon)
		d.sender = &fakeSender{sendErr: errors.New("connection refused")}

		res := d.Send(context.Background(), sampleConfirmation())
		assert.False(t, res.Success)
		assert.Contains(t, res.Message, "connection refused")
	})

	t.Run("verify dial failure", func(t *testing.T) {
		d := NewMailDispatcher(cfg, salon)
		d.sender = &fakeSender{dialErr: errors.New("auth failed")}

		res := d.Verify(context.Background())
		assert.False(t, res.Success)
	})
}

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

// fakeBroker hands out one publisher per dial.
type fakeBroker struct {
	pubs   []*fakePublisher
	dials  int
	closed bool
	closes int
}

func (b *fakeBroker) dial() (*amqpLink, error) {
	if b.dials >= len(b.pubs) {
		return nil, errors.New("connection refused")
	}
	pub := b.pubs[b.dials]
	b.dials++
	b.closed = false
	return &amqpLink{
		pub:      pub,
		isClosed: func() bool { return b.closed },
		close: func() error {
			b.closes++
			return nil
		},
	}, nil
}

func newBrokerDispatcher(b *fakeBroker) *AMQPDispatcher {
	return &AMQPDispatcher{dial: b.dial, exchange: "salon.notifications", salon: Salon{Name: "Naomi"}}
}

func TestAMQPDispatcher_Send(t *testing.T) {
	pub := &fakePublisher{}
	broker := &fakeBroker{pubs: []*fakePublisher{pub}}
	d := newBrokerDispatcher(broker)

	res := d.Send(context.Background(), sampleConfirmation())

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "salon.notifications", pub.exchange)
	assert.Equal(t, RoutingKeyConfirmation, pub.key)
	assert.Equal(t, "application/json", pub.msg.ContentType)
	assert.Contains(t, string(pub.msg.Body), `"booking_id":7`)
	assert.Contains(t, string(pub.msg.Body), `"service_price":"25"`)
	assert.Equal(t, 1, broker.dials)

	assert.NoError(t, d.Close())
	assert.Equal(t, 1, broker.closes)
}

func TestAMQPDispatcher_RedialsAfterPublishError(t *testing.T) {
	broken := &fakePublisher{err: amqp.ErrClosed}
	healthy := &fakePublisher{}
	broker := &fakeBroker{pubs: []*fakePublisher{broken, healthy}}
	d := newBrokerDispatcher(broker)

	res := d.Send(context.Background(), sampleConfirmation())
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "publish confirmation")
	assert.Equal(t, 1, broker.closes)

	res = d.Send(context.Background(), sampleConfirmation())
	require.True(t, res.Success, res.Message)
	assert.Equal(t, 2, broker.dials)
	assert.Equal(t, RoutingKeyConfirmation, healthy.key)
}

func TestAMQPDispatcher_RedialsClosedConnection(t *testing.T) {
	first, second := &fakePublisher{}, &fakePublisher{}
	broker := &fakeBroker{pubs: []*fakePublisher{first, second}}
	d := newBrokerDispatcher(broker)

	require.True(t, d.Verify(context.Background()).Success)
	broker.closed = true

	res := d.Send(context.Background(), sampleConfirmation())
	require.True(t, res.Success, res.Message)
	assert.Empty(t, first.key)
	assert.Equal(t, RoutingKeyConfirmation, second.key)
	assert.Equal(t, 2, broker.dials)

	// the broker stays down: verify reports it instead of panicking
	broker.closed = true
	res = d.Verify(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "connection refused")
}

func TestAMQPDispatcher_RetriedThroughAsync(t *testing.T) {
	broker := &fakeBroker{pubs: []*fakePublisher{{err: amqp.ErrClosed}, {}}}
	d := newBrokerDispatcher(broker)

	res := dispatchAndWait(t, NewAsync(d, time.Second, fastRetry()), sampleConfirmation())

	assert.True(t, res.Success, res.Message)
	assert.Equal(t, 2, broker.dials)
}
