package generation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const DefaultJoinTimeout = 5 * time.Second

// Bridge runs a blocking Generator on its own goroutine per request and
// hands the tokens to the caller as a Stream.
type Bridge struct {
	gen         Generator
	model       string
	joinTimeout time.Duration
	active      atomic.Int64
}

func NewBridge(gen Generator, model string, joinTimeout time.Duration) *Bridge {
	if joinTimeout <= 0 {
		joinTimeout = DefaultJoinTimeout
	}
	return &Bridge{gen: gen, model: model, joinTimeout: joinTimeout}
}

// Active reports how many generation workers are still running.
func (b *Bridge) Active() int {
	return int(b.active.Load())
}

// Generate starts producing tokens for prompt and returns immediately.
// Cancelling ctx or closing the stream cancels the producer.
func (b *Bridge) Generate(ctx context.Context, prompt string) *Stream {
	wctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		id:          uuid.NewString(),
		q:           newQueue(),
		cancel:      cancel,
		finished:    make(chan struct{}),
		joinTimeout: b.joinTimeout,
	}

	n := b.active.Add(1)
	log.Printf("🤖 [%s] Generation started (%d active)", s.id, n)
	go b.work(wctx, s, prompt)

	return s
}

func (b *Bridge) work(ctx context.Context, s *Stream, prompt string) {
	defer close(s.finished)
	defer b.active.Add(-1)
	defer s.cancel()

	tokens := 0
	err := b.produce(ctx, prompt, func(tok string) {
		tokens++
		s.q.push(message{kind: kindToken, token: tok})
	})
	if err != nil {
		log.Printf("❌ [%s] Generation failed after %d tokens: %v", s.id, tokens, err)
		s.q.push(message{kind: kindError, err: err})
	} else {
		log.Printf("✅ [%s] Generation finished, %d tokens", s.id, tokens)
	}
	s.q.push(message{kind: kindDone})
}

// produce invokes the generator and turns both returned errors and panics
// into ErrGeneration.
func (b *Bridge) produce(ctx context.Context, prompt string, yield func(string)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrGeneration, r)
		}
	}()

	if err := b.gen.Generate(ctx, b.model, prompt, yield); err != nil {
		if errors.Is(err, ErrGeneration) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return nil
}

type State int

const (
	StateStreaming State = iota
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stream is a single-consumer sequence of tokens from one generation.
type Stream struct {
	id          string
	q           *queue
	cancel      context.CancelFunc
	finished    chan struct{}
	joinTimeout time.Duration

	mu    sync.Mutex
	state State
	err   error
}

func (s *Stream) ID() string { return s.id }

func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure reason once the stream has failed, or the
// consumer's context error if it stopped waiting.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Next blocks until the next token is available. It returns false once the
// stream has reached a terminal state; check Err for the reason.
func (s *Stream) Next(ctx context.Context) (string, bool) {
	for {
		if s.State() != StateStreaming {
			return "", false
		}

		m, ok := s.q.pop(ctx)
		if !ok {
			if err := ctx.Err(); err != nil {
				s.mu.Lock()
				if s.state == StateStreaming {
					s.err = err
				}
				s.mu.Unlock()
				s.Close()
			}
			return "", false
		}

		switch m.kind {
		case kindToken:
			return m.token, true
		case kindError:
			s.mu.Lock()
			s.err = m.err
			s.mu.Unlock()
		case kindDone:
			s.join()
			s.mu.Lock()
			if s.state == StateStreaming {
				if s.err != nil {
					s.state = StateFailed
				} else {
					s.state = StateCompleted
				}
			}
			s.mu.Unlock()
			return "", false
		}
	}
}

// join waits a bounded time for the worker goroutine to exit.
func (s *Stream) join() {
	t := time.NewTimer(s.joinTimeout)
	defer t.Stop()
	select {
	case <-s.finished:
	case <-t.C:
		log.Printf("⚠️  [%s] Generation worker still running after %s, moving on", s.id, s.joinTimeout)
	}
}

// Close abandons the stream. Pending tokens are dropped and the producer is
// cancelled; the worker finishes in the background. Safe to call repeatedly.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.state == StateStreaming {
		s.state = StateCancelled
	}
	s.mu.Unlock()

	s.q.close()
	s.cancel()
}

// Collect drains the stream into a single string.
func (s *Stream) Collect(ctx context.Context) (string, error) {
	var sb strings.Builder
	for {
		tok, ok := s.Next(ctx)
		if !ok {
			break
		}
		sb.WriteString(tok)
	}
	return sb.String(), s.Err()
}
