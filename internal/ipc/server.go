package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

const (
	// A command is a single short JSON line; anything longer is refused.
	maxRequestBytes = 1024

	readTimeout  = 2 * time.Second
	writeTimeout = time.Second

	// handleTimeout bounds how long one command may wait on the controller.
	handleTimeout = 5 * time.Second
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Serve answers lara commands on listener until ctx is done or the listener
// closes. Malformed or unknown commands are answered without reaching handler.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	var wg sync.WaitGroup

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			reply(c, serveConn(ctx, c, handler))
		}(conn)
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler) Response {
	req, err := readRequest(conn)
	if err != nil {
		return failure("%v", err)
	}

	req, err = req.Normalize()
	if err != nil {
		return failure("%v", err)
	}

	handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()
	return handler.Handle(handleCtx, req)
}

func readRequest(conn net.Conn) (Request, error) {
	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return Request{}, fmt.Errorf("set read deadline: %w", err)
	}

	line, err := bufio.NewReader(io.LimitReader(conn, maxRequestBytes+1)).ReadBytes('\n')
	if len(line) > maxRequestBytes {
		return Request{}, fmt.Errorf("read request: longer than %d bytes", maxRequestBytes)
	}
	if err != nil {
		return Request{}, fmt.Errorf("read request: %w", err)
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

func reply(conn net.Conn, resp Response) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = json.NewEncoder(conn).Encode(resp)
}
