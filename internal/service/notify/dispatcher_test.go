package notify

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxfolio/portfolio-api/internal/domain"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    []domain.Envelope
	failFor map[string]error
	panicOn string
}

func (f *fakeTransport) Name() string { return "fake" }

func (f *fakeTransport) Send(_ context.Context, env domain.Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if env.To == f.panicOn {
		panic("boom")
	}
	if err := f.failFor[env.To]; err != nil {
		return err
	}
	f.sent = append(f.sent, env)
	return nil
}

type countingObserver struct {
	ok, failed int
}

func (c *countingObserver) Delivery(_ string, ok bool, _ time.Duration) {
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

func visitors(n int) iter.Seq2[domain.Visitor, error] {
	return func(yield func(domain.Visitor, error) bool) {
		for i := 1; i <= n; i++ {
			if !yield(domain.Visitor{ID: int64(i), Email: fmt.Sprintf("v%d@x.com", i)}, nil) {
				return
			}
		}
	}
}

func staticRenderer(c Content) Renderer {
	return func(domain.Visitor) (Content, error) { return c, nil }
}

func TestSendOne_DerivesPlainText(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, nil)

	ok := d.SendOne(context.Background(), "announcement", "a@x.com", Content{
		Subject: "Hi",
		HTML:    "<html><body><h2>Hello</h2><p>World</p></body></html>",
	})
	require.True(t, ok)
	require.Len(t, tr.sent, 1)
	assert.Equal(t, "Hello\n\nWorld", tr.sent[0].Text)
	assert.Contains(t, tr.sent[0].HTML, "<h2>Hello</h2>")
}

func TestSendOne_TransportErrorIsSwallowed(t *testing.T) {
	tr := &fakeTransport{failFor: map[string]error{"bad@x.com": errors.New("550 no such user")}}
	obs := &countingObserver{}
	d := NewDispatcher(tr, obs)

	assert.False(t, d.SendOne(context.Background(), "welcome", "bad@x.com", Content{Subject: "s", Text: "t"}))
	assert.Equal(t, 1, obs.failed)
}

func TestSendOne_PanicIsSwallowed(t *testing.T) {
	tr := &fakeTransport{panicOn: "p@x.com"}
	obs := &countingObserver{}
	d := NewDispatcher(tr, obs)

	assert.NotPanics(t, func() {
		assert.False(t, d.SendOne(context.Background(), "welcome", "p@x.com", Content{Text: "t"}))
	})
	assert.Equal(t, 1, obs.failed)
}

func TestSendBatch_IsolatesFailures(t *testing.T) {
	tr := &fakeTransport{failFor: map[string]error{"v3@x.com": errors.New("mailbox full")}}
	obs := &countingObserver{}
	d := NewDispatcher(tr, obs)

	report, err := d.SendBatch(context.Background(), "newsletter", visitors(5), staticRenderer(Content{Subject: "s", HTML: "<p>x</p>"}))
	require.NoError(t, err)

	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 5, report.Attempted)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 4, obs.ok)

	var order []string
	for _, env := range tr.sent {
		order = append(order, env.To)
	}
	assert.Equal(t, []string{"v1@x.com", "v2@x.com", "v4@x.com", "v5@x.com"}, order)
}

func TestSendBatch_RendersPerRecipient(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, nil)

	_, err := d.SendBatch(context.Background(), "newsletter", visitors(2), func(v domain.Visitor) (Content, error) {
		return Content{Subject: "for " + v.Email, Text: "t"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "for v1@x.com", tr.sent[0].Subject)
	assert.Equal(t, "for v2@x.com", tr.sent[1].Subject)
}

func TestSendBatch_RenderErrorAborts(t *testing.T) {
	tr := &fakeTransport{}
	d := NewDispatcher(tr, nil)

	calls := 0
	report, err := d.SendBatch(context.Background(), "newsletter", visitors(3), func(v domain.Visitor) (Content, error) {
		calls++
		if calls == 2 {
			return Content{}, errors.New("missing field conclusion")
		}
		return Content{Text: "ok"}, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "missing field conclusion")
	assert.Equal(t, 1, report.Attempted)
	assert.Len(t, tr.sent, 1)
}

func TestSendBatch_ListingErrorAborts(t *testing.T) {
	d := NewDispatcher(&fakeTransport{}, nil)
	listErr := errors.New("db gone")
	seq := func(yield func(domain.Visitor, error) bool) {
		if !yield(domain.Visitor{ID: 1, Email: "v1@x.com"}, nil) {
			return
		}
		yield(domain.Visitor{}, listErr)
	}

	report, err := d.SendBatch(context.Background(), "newsletter", seq, staticRenderer(Content{Text: "t"}))
	assert.ErrorIs(t, err, listErr)
	assert.NotErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, 1, report.Succeeded)
}

func TestSendBatch_Empty(t *testing.T) {
	d := NewDispatcher(&fakeTransport{}, nil)
	report, err := d.SendBatch(context.Background(), "announcement", visitors(0), staticRenderer(Content{Text: "t"}))
	require.NoError(t, err)
	assert.Zero(t, report.Attempted)
}
