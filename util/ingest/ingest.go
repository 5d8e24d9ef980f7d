/*
 * S370 - Tape capture ingest pipeline.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package ingest captures a raw byte stream onto a SIMH tape image: a
// reader goroutine owns the input source, a bounded channel carries
// its output, and the caller's goroutine owns the encoder and the
// tape-mark bookkeeping. The shape mirrors a bounded producer/consumer
// pipeline rather than a request/response API, since the source is
// read until it signals its own end (a zero-byte read), not until a
// caller-known length is reached.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rcornwell/tapekit/util/simh"
)

const (
	// readBufferSize is the reader goroutine's fixed read buffer.
	readBufferSize = 120 * 1024

	// queueCapacity is the bounded channel's capacity between the
	// reader goroutine and the main loop.
	queueCapacity = 2

	// retryDelay is the fixed sleep between an empty-file retry and
	// the next open attempt.
	retryDelay = 500 * time.Millisecond

	// defaultRetryBudget is how many times a zero-record file is
	// retried before it is treated as a real empty file.
	defaultRetryBudget = 100

	// consecutiveEmptyLimit is how many consecutive empty files (after
	// the retry budget for each is exhausted) end the capture.
	consecutiveEmptyLimit = 2
)

type msgKind int

const (
	msgData msgKind = iota
	msgTapeMark
	msgError
)

type message struct {
	kind msgKind
	data []byte
	err  error
}

// OpenFunc (re)opens the next logical tape file's input source.
type OpenFunc func() (io.Reader, error)

// Config controls retry behaviour. A zero Config uses the default
// retry budget.
type Config struct {
	RetryBudget int
}

// Pipeline drives capture of a sequence of logical tape files from an
// OpenFunc onto a simh.Encoder.
type Pipeline struct {
	cfg Config
}

// NewPipeline returns a Pipeline with the given configuration.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = defaultRetryBudget
	}
	return &Pipeline{cfg: cfg}
}

// Run drives the capture loop described in the ingest pipeline
// design: it repeatedly opens a source via open, reads it to
// completion through a reader goroutine, and emits records and tape
// marks to enc. nonSeekable sources (standard input) are consumed at
// most once.
func (p *Pipeline) Run(enc *simh.Encoder, open OpenFunc, nonSeekable bool) error {
	retryCount := 0
	emptyFiles := 0
	iteration := 0

	for {
		if nonSeekable && iteration > 0 {
			return nil
		}
		iteration++

		src, err := open()
		if err != nil {
			return fmt.Errorf("ingest: opening input: %w", err)
		}

		done := make(chan struct{})
		ch := make(chan message, queueCapacity)
		go readerLoop(src, ch, done)

		recordCount := 0
		var terminal message
	drain:
		for {
			msg := <-ch
			switch msg.kind {
			case msgData:
				if err := enc.WriteData(msg.data); err != nil {
					close(done)
					return fmt.Errorf("ingest: writing record: %w", err)
				}
				recordCount++
			case msgTapeMark, msgError:
				terminal = msg
				break drain
			}
		}
		close(done)

		if terminal.kind == msgError {
			if recordCount > 0 && isEndOfTapeEquivalent(terminal.err) {
				return nil
			}
			return fmt.Errorf("ingest: reading input: %w", terminal.err)
		}

		// terminal.kind == msgTapeMark
		if recordCount >= 1 {
			if err := enc.WriteTapeMark(); err != nil {
				return fmt.Errorf("ingest: writing tape mark: %w", err)
			}
			retryCount = 0
			emptyFiles = 0
			continue
		}

		if retryCount < p.cfg.RetryBudget {
			retryCount++
			time.Sleep(retryDelay)
			continue
		}

		emptyFiles++
		if emptyFiles >= consecutiveEmptyLimit {
			return nil
		}
		if err := enc.WriteTapeMark(); err != nil {
			return fmt.Errorf("ingest: writing tape mark: %w", err)
		}
		retryCount = 0
	}
}

// readerLoop owns src for the lifetime of one logical tape file. It
// sends exactly one terminal message (TapeMark or Error) before
// returning; done lets Run abandon the reader without the send
// blocking forever once it has stopped consuming from ch.
func readerLoop(src io.Reader, ch chan<- message, done <-chan struct{}) {
	buf := make([]byte, readBufferSize)

	for {
		n, err := src.Read(buf)

		if n > 0 {
			payload := make([]byte, n)
			copy(payload, buf[:n])
			select {
			case ch <- message{kind: msgData, data: payload}:
			case <-done:
				return
			}
		}

		switch {
		case err == nil && n == 0:
			sendTerminal(ch, done, message{kind: msgTapeMark})
			return
		case errors.Is(err, io.EOF):
			sendTerminal(ch, done, message{kind: msgTapeMark})
			return
		case err != nil:
			sendTerminal(ch, done, message{kind: msgError, err: err})
			return
		}
	}
}

func sendTerminal(ch chan<- message, done <-chan struct{}, msg message) {
	select {
	case ch <- msg:
	case <-done:
	}
}

// isEndOfTapeEquivalent reports whether err represents the tape
// device's own end-of-medium signalling (Linux EIO) rather than a
// genuine I/O failure. Matched by error text only, since the
// condition can arrive wrapped from an external device driver whose
// error value this package never sees directly.
func isEndOfTapeEquivalent(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "os error 5") || strings.Contains(msg, "input/output error")
}
