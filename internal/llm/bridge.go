package llm

import (
	"context"
	"errors"
	"sync"
)

// predictBridge turns a blocking, callback-driven predict call into the
// pull-based Step contract. predict runs on its own goroutine; its token
// callback hands each token over and waits for the next Step before
// returning, so at most one token is computed ahead of the consumer.
type predictBridge struct {
	tokens  chan string
	ack     chan bool
	stop    chan struct{}
	done    chan struct{}
	err     error
	started bool
	pending bool
	once    sync.Once
}

func newPredictBridge() *predictBridge {
	return &predictBridge{
		tokens: make(chan string),
		ack:    make(chan bool),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// start runs predict with the bridge callback. It may be called once.
func (b *predictBridge) start(predict func(cb func(string) bool) error) error {
	if b.started {
		return errors.New("session already primed")
	}
	b.started = true
	go func() {
		defer close(b.done)
		b.err = predict(b.callback)
	}()
	return nil
}

// callback runs on the predict goroutine. Returning false asks predict to stop.
func (b *predictBridge) callback(tok string) bool {
	select {
	case b.tokens <- tok:
	case <-b.stop:
		return false
	}
	select {
	case cont := <-b.ack:
		return cont
	case <-b.stop:
		return false
	}
}

// Step releases the previous token's callback and waits for the next token
// or the end of predict. A step in progress is not interrupted by ctx.
func (b *predictBridge) Step(ctx context.Context) (Token, Feedback, error) {
	if !b.started {
		return Token{}, Stop, errors.New("session not primed")
	}
	if err := ctx.Err(); err != nil {
		return Token{}, Stop, err
	}
	if b.pending {
		b.pending = false
		select {
		case b.ack <- true:
		case <-b.done:
		}
	}
	select {
	case tok := <-b.tokens:
		b.pending = true
		return Token{Kind: InferredToken, Text: tok}, Continue, nil
	case <-b.done:
		if b.err != nil {
			return Token{}, Stop, b.err
		}
		return Token{}, Stop, nil
	}
}

// Close stops predict and waits for it to return.
func (b *predictBridge) Close() error {
	b.once.Do(func() {
		close(b.stop)
		if b.started {
			<-b.done
		}
	})
	return nil
}
