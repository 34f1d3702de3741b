// Package transport owns the WebSocket connection to an Archipelago server.
// A dedicated goroutine performs the blocking dial/read/write work; callers
// only ever talk to channels, so nothing here blocks the caller's main loop.
package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrBinaryMessage is reported when the server sends a binary frame, which
// the Archipelago protocol never uses.
var ErrBinaryMessage = errors.New("transport: unexpected binary message")

// ErrClosed is returned by Send/RecvAsync once the transport has been shut
// down, either by the caller or because the underlying connection dropped.
var ErrClosed = errors.New("transport: closed")

// Transport is a non-blocking WebSocket connection. Dial establishes it;
// TryRecv/RecvAsync/Send are the only ways callers observe or drive it
// afterwards.
type Transport struct {
	id     string
	url    string
	logger *log.Logger

	sendCh  chan []byte
	recvCh  chan result
	closeCh chan struct{}
	closeOnce sync.Once

	wg sync.WaitGroup
}

type result struct {
	frame []byte
	err   error
}

// Dial resolves addr into one or more candidate URLs (see Candidates) and
// connects to the first that succeeds, trying wss before falling back to ws
// when addr has no explicit scheme. It returns once the WebSocket handshake
// completes; the connection then runs on its own goroutine until Close.
func Dial(ctx context.Context, addr string, tlsConfig *tls.Config, logger *log.Logger) (*Transport, error) {
	if logger == nil {
		logger = log.Default()
	}
	candidates, err := Candidates(addr)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		TLSClientConfig:  tlsConfig,
		HandshakeTimeout: 10 * time.Second,
	}

	var conn *websocket.Conn
	var dialErr error
	var dialedURL string
	for _, candidate := range candidates {
		var resp *http.Response
		conn, resp, dialErr = dialer.DialContext(ctx, candidate, nil)
		if resp != nil {
			_ = resp.Body.Close()
		}
		if dialErr == nil {
			dialedURL = candidate
			break
		}
		logger.Printf("transport: dial %s failed: %v", candidate, dialErr)
	}
	if dialErr != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, dialErr)
	}

	t := &Transport{
		id:      uuid.NewString(),
		url:     dialedURL,
		logger:  logger,
		sendCh:  make(chan []byte, 64),
		recvCh:  make(chan result, 64),
		closeCh: make(chan struct{}),
	}
	t.logger.Printf("transport[%s]: connected to %s", t.id, dialedURL)

	t.wg.Add(1)
	go t.run(conn)
	return t, nil
}

// URL returns the candidate URL that Dial actually connected to.
func (t *Transport) URL() string { return t.url }

func (t *Transport) run(conn *websocket.Conn) {
	defer t.wg.Done()
	defer conn.Close()
	defer t.closeOnce.Do(func() { close(t.closeCh) })

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				t.emit(result{err: fmt.Errorf("transport[%s]: read: %w", t.id, err)})
				return
			}
			if kind == websocket.BinaryMessage {
				if !t.emit(result{err: fmt.Errorf("%w: %d bytes", ErrBinaryMessage, len(data))}) {
					return
				}
				continue
			}
			if !t.emit(result{frame: data}) {
				return
			}
		}
	}()

	for {
		select {
		case frame := <-t.sendCh:
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				t.logger.Printf("transport[%s]: write error: %v", t.id, err)
				return
			}
		case <-readDone:
			return
		case <-t.closeCh:
			return
		}
	}
}

// emit delivers r to recvCh, returning false if the transport closed in the
// meantime (so the reader goroutine knows to stop).
func (t *Transport) emit(r result) bool {
	select {
	case t.recvCh <- r:
		return true
	case <-t.closeCh:
		return false
	}
}

// TryRecv returns the next received frame without blocking. ok is false if
// nothing is available yet; err is non-nil if the connection itself failed
// or sent something it shouldn't have (e.g. a binary frame).
func (t *Transport) TryRecv() (frame []byte, err error, ok bool) {
	select {
	case r := <-t.recvCh:
		return r.frame, r.err, true
	default:
		return nil, nil, false
	}
}

// RecvAsync blocks until a frame (or error) is available, ctx is canceled,
// or the transport is closed.
func (t *Transport) RecvAsync(ctx context.Context) ([]byte, error) {
	select {
	case r := <-t.recvCh:
		return r.frame, r.err
	case <-t.closeCh:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send enqueues frame for writing. It only blocks if the outbound buffer is
// full, and returns ErrClosed once the transport has shut down.
func (t *Transport) Send(ctx context.Context, frame []byte) error {
	select {
	case <-t.closeCh:
		return ErrClosed
	default:
	}
	select {
	case t.sendCh <- frame:
		return nil
	case <-t.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts down the connection and waits for its goroutines to exit.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() { close(t.closeCh) })
	t.wg.Wait()
	return nil
}
