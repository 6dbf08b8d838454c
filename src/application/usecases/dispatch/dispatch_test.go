package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainErrors "emrs-notify-api/src/domain/errors"
	"emrs-notify-api/src/domain/notification"
	"emrs-notify-api/src/domain/provider"
	logger "emrs-notify-api/src/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockProvider implements provider.Provider for testing
type MockProvider struct {
	name     string
	openFunc func(ctx context.Context) (provider.Session, error)
}

func (m *MockProvider) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *MockProvider) Open(ctx context.Context) (provider.Session, error) {
	return m.openFunc(ctx)
}

// MockSession implements provider.Session for testing
type MockSession struct {
	mu          sync.Mutex
	deliverFunc func(ctx context.Context, recipient string, message provider.Message) error
	delivered   []string
	messages    []provider.Message
	closed      int
}

func (m *MockSession) Deliver(ctx context.Context, recipient string, message provider.Message) error {
	m.mu.Lock()
	m.delivered = append(m.delivered, recipient)
	m.messages = append(m.messages, message)
	m.mu.Unlock()
	if m.deliverFunc != nil {
		return m.deliverFunc(ctx, recipient, message)
	}
	return nil
}

func (m *MockSession) Close() error {
	m.closed++
	return nil
}

// MockAuditSink records what it receives and can fail selected writes
type MockAuditSink struct {
	records   []notification.AuditRecord
	writeFunc func(record notification.AuditRecord) error
}

func (m *MockAuditSink) Write(ctx context.Context, record notification.AuditRecord) error {
	m.records = append(m.records, record)
	if m.writeFunc != nil {
		return m.writeFunc(record)
	}
	return nil
}

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestUseCase(t *testing.T, sink notification.AuditSink) (*DispatchUseCase, *[]time.Duration) {
	t.Helper()
	renderer, err := NewRenderer("EMRS Dornala")
	require.NoError(t, err)

	var waits []time.Duration
	uc := NewDispatchUseCase(renderer, sink, logger.NewNopLogger()).(*DispatchUseCase)
	uc.now = func() time.Time { return fixedNow }
	uc.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	uc.newBatchID = func() string { return "batch-1" }
	return uc, &waits
}

func providerWith(session *MockSession) *MockProvider {
	return &MockProvider{openFunc: func(ctx context.Context) (provider.Session, error) {
		return session, nil
	}}
}

func emailRoute(p provider.Provider) Route {
	return Route{Channel: notification.ChannelEmail, Provider: p, Interval: 100 * time.Millisecond}
}

func TestDispatch_AllSentInInputOrder(t *testing.T) {
	sink := &MockAuditSink{}
	uc, waits := newTestUseCase(t, sink)
	session := &MockSession{}

	recipients := []string{"a@x.com", "b@x.com", "a@x.com"}
	request := notification.NewDispatchRequest(recipients, "Hi", "Line1\nLine2", notification.CategoryGeneral)

	result, err := uc.Dispatch(context.Background(), emailRoute(providerWith(session)), request)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	for i, o := range result.Outcomes {
		assert.Equal(t, recipients[i], o.Recipient)
		assert.Equal(t, notification.OutcomeSent, o.State)
		assert.Empty(t, o.ErrorDetail)
		assert.Equal(t, fixedNow, o.AttemptedAt)
	}
	assert.Equal(t, recipients, session.delivered)
	assert.Equal(t, notification.BatchSummary{Total: 3, Succeeded: 3, Failed: 0, OverallState: notification.OverallSent}, result.Summary)
	assert.Equal(t, 1, session.closed)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, *waits)

	require.NotEmpty(t, session.messages)
	assert.Contains(t, session.messages[0].HTML, "Line1<br>Line2")
	assert.Equal(t, "Hi", session.messages[0].Subject)
	assert.Equal(t, "Line1\nLine2", session.messages[0].Text)
}

func TestDispatch_FailureInTheMiddleDoesNotAbort(t *testing.T) {
	uc, _ := newTestUseCase(t, &MockAuditSink{})
	session := &MockSession{
		deliverFunc: func(ctx context.Context, recipient string, message provider.Message) error {
			if recipient == "b@x.com" {
				return errors.New("550 mailbox unavailable")
			}
			return nil
		},
	}

	request := notification.NewDispatchRequest([]string{"a@x.com", "b@x.com", "c@x.com"}, "Hi", "Body", notification.CategoryNews)
	result, err := uc.Dispatch(context.Background(), emailRoute(providerWith(session)), request)
	require.NoError(t, err)

	states := []notification.OutcomeState{}
	for _, o := range result.Outcomes {
		states = append(states, o.State)
	}
	assert.Equal(t, []notification.OutcomeState{notification.OutcomeSent, notification.OutcomeFailed, notification.OutcomeSent}, states)
	assert.Equal(t, "550 mailbox unavailable", result.Outcomes[1].ErrorDetail)
	assert.Equal(t, notification.OverallPartial, result.Summary.OverallState)
	assert.Equal(t, result.Summary.Total, result.Summary.Succeeded+result.Summary.Failed)
}

func TestDispatch_AllFailed(t *testing.T) {
	uc, _ := newTestUseCase(t, &MockAuditSink{})
	session := &MockSession{
		deliverFunc: func(ctx context.Context, recipient string, message provider.Message) error {
			return errors.New("rejected")
		},
	}

	request := notification.NewDispatchRequest([]string{"a@x.com", "b@x.com"}, "Hi", "Body", "")
	result, err := uc.Dispatch(context.Background(), emailRoute(providerWith(session)), request)
	require.NoError(t, err)
	assert.Equal(t, notification.OverallFailed, result.Summary.OverallState)
	assert.Equal(t, 2, result.Summary.Failed)
}

func TestDispatch_EmptyRecipientsIsSent(t *testing.T) {
	sink := &MockAuditSink{}
	uc, _ := newTestUseCase(t, sink)
	session := &MockSession{}

	request := notification.NewDispatchRequest(nil, "Hi", "Body", notification.CategoryEvent)
	result, err := uc.Dispatch(context.Background(), emailRoute(providerWith(session)), request)
	require.NoError(t, err)

	assert.Empty(t, result.Outcomes)
	assert.Equal(t, notification.OverallSent, result.Summary.OverallState)
	assert.Equal(t, 0, result.Summary.Total)
	require.Len(t, sink.records, 1)
	assert.Equal(t, notification.AuditKindBatch, sink.records[0].Kind)
}

func TestDispatch_OpenFailureIsFatal(t *testing.T) {
	sink := &MockAuditSink{}
	uc, _ := newTestUseCase(t, sink)
	p := &MockProvider{openFunc: func(ctx context.Context) (provider.Session, error) {
		return nil, errors.New("535 authentication failed")
	}}

	request := notification.NewDispatchRequest([]string{"a@x.com"}, "Hi", "Body", notification.CategoryGeneral)
	result, err := uc.Dispatch(context.Background(), emailRoute(p), request)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, domainErrors.IsType(err, domainErrors.ProviderUnavailable))
	assert.Contains(t, err.Error(), "535 authentication failed")
	assert.Empty(t, sink.records)
}

func TestDispatch_MissingCredentialsKeepsSentinel(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	p := &MockProvider{openFunc: func(ctx context.Context) (provider.Session, error) {
		return nil, provider.ErrMissingCredentials
	}}

	_, err := uc.Dispatch(context.Background(), emailRoute(p), notification.NewDispatchRequest([]string{"a@x.com"}, "Hi", "Body", ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrMissingCredentials)
}

func TestDispatch_InvalidRequestIsRejectedBeforeOpen(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	opened := false
	p := &MockProvider{openFunc: func(ctx context.Context) (provider.Session, error) {
		opened = true
		return &MockSession{}, nil
	}}

	_, err := uc.Dispatch(context.Background(), emailRoute(p), notification.NewDispatchRequest([]string{"a@x.com"}, "Hi", "Body", "memo"))
	require.Error(t, err)
	assert.True(t, domainErrors.IsType(err, domainErrors.ValidationError))
	assert.ErrorIs(t, err, notification.ErrInvalidCategory)

	_, err = uc.Dispatch(context.Background(), emailRoute(p), notification.NewDispatchRequest([]string{"a@x.com"}, "Hi", "  ", ""))
	assert.ErrorIs(t, err, notification.ErrEmptyBody)
	assert.False(t, opened)
}

func TestDispatch_NilProvider(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	_, err := uc.Dispatch(context.Background(), Route{Channel: notification.ChannelSMS}, notification.NewDispatchRequest(nil, "", "Body", ""))
	assert.True(t, domainErrors.IsType(err, domainErrors.ProviderUnavailable))
}

func TestDispatch_CancellationStopsFurtherSends(t *testing.T) {
	sink := &MockAuditSink{}
	uc, _ := newTestUseCase(t, sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session := &MockSession{
		deliverFunc: func(_ context.Context, recipient string, _ provider.Message) error {
			if recipient == "b@x.com" {
				cancel()
			}
			return nil
		},
	}

	request := notification.NewDispatchRequest([]string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}, "Hi", "Body", "")
	result, err := uc.Dispatch(ctx, emailRoute(providerWith(session)), request)
	require.NoError(t, err)

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, session.delivered)
	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, notification.OutcomeSent, result.Outcomes[1].State)
	for _, o := range result.Outcomes[2:] {
		assert.Equal(t, notification.OutcomeFailed, o.State)
		assert.Contains(t, o.ErrorDetail, "context canceled")
	}
	assert.Equal(t, []string{"c@x.com", "d@x.com"}, []string{result.Outcomes[2].Recipient, result.Outcomes[3].Recipient})
	assert.Equal(t, notification.OverallPartial, result.Summary.OverallState)
	assert.Equal(t, 1, session.closed)

	// audit still written with a detached context
	assert.Len(t, sink.records, 5)
	assert.False(t, result.AuditDegraded())
}

func TestDispatch_AuditFailuresAreReportedNotReturned(t *testing.T) {
	sink := &MockAuditSink{
		writeFunc: func(record notification.AuditRecord) error {
			if record.Recipient == "b@x.com" {
				return errors.New("audit table unavailable")
			}
			return nil
		},
	}
	uc, _ := newTestUseCase(t, sink)

	request := notification.NewDispatchRequest([]string{"a@x.com", "b@x.com"}, "Exam results", "Body", notification.CategoryExamResult)
	result, err := uc.Dispatch(context.Background(), emailRoute(providerWith(&MockSession{})), request)
	require.NoError(t, err)

	assert.Equal(t, notification.OverallSent, result.Summary.OverallState)
	require.Len(t, result.Audit, 3)
	assert.Equal(t, notification.AuditLogged, result.Audit[0].Status)
	assert.Equal(t, notification.AuditLogFailed, result.Audit[1].Status)
	assert.Equal(t, "audit table unavailable", result.Audit[1].Reason)
	assert.Equal(t, notification.AuditKindBatch, result.Audit[2].Kind)
	assert.True(t, result.AuditDegraded())

	batch := sink.records[2]
	assert.Equal(t, "batch-1", batch.BatchID)
	assert.Equal(t, notification.CategoryExamResult, batch.Category)
	assert.Equal(t, 2, batch.Total)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, "sent", batch.Status)
}

func TestDispatch_InputSliceIsNotObserved(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	session := &MockSession{}

	recipients := []string{"a@x.com", "b@x.com"}
	request := notification.NewDispatchRequest(recipients, "Hi", "Body", "")
	recipients[0] = "changed@x.com"

	result, err := uc.Dispatch(context.Background(), emailRoute(providerWith(session)), request)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", result.Outcomes[0].Recipient)
}

func TestDispatch_PanicInDeliverClosesSession(t *testing.T) {
	uc, _ := newTestUseCase(t, nil)
	session := &MockSession{deliverFunc: func(ctx context.Context, recipient string, message provider.Message) error {
		panic("relay client bug")
	}}
	request := notification.NewDispatchRequest([]string{"a@x.com", "b@x.com"}, "Hi", "Body", "")

	assert.PanicsWithValue(t, "relay client bug", func() {
		_, _ = uc.Dispatch(context.Background(), emailRoute(providerWith(session)), request)
	})
	assert.Equal(t, 1, session.closed)
	assert.Equal(t, []string{"a@x.com"}, session.delivered)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
