package scene

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// processGrace bounds how long Close waits for the renderer to exit after
// its stdin is closed.
const processGrace = 5 * time.Second

// ProcessOptions configures [StartProcess].
type ProcessOptions struct {
	Command      string // Renderer host command line; Scene is appended.
	Scene        string
	ReadyTimeout time.Duration // 0 waits indefinitely.
	Verbose      bool
}

// Process is a [Source] backed by a renderer host subprocess speaking JSON
// lines on stdin/stdout. Requests:
//
//	{"op":"ready"}
//	{"op":"advance","t":12.5,"frame":375}
//	{"op":"capture","wall":"left","quality":0.98}
//
// Every request gets exactly one reply {"ok":true,"data":"<base64>"} or
// {"ok":false,"error":"..."}; data is present only for captures.
type Process struct {
	cmd        *exec.Cmd
	stdin      io.Closer
	client     *client
	stderrDone chan struct{}
	grace      time.Duration

	closeOnce sync.Once
	closeErr  error
}

// StartProcess spawns the renderer host and waits until it reports the
// scene ready (assets loaded).
func StartProcess(ctx context.Context, opts ProcessOptions, log Logger) (*Process, error) {
	fields := strings.Fields(opts.Command)
	if len(fields) == 0 {
		return nil, errors.New("empty renderer command")
	}
	p, err := startHost(exec.Command(fields[0], append(fields[1:], opts.Scene)...), log, opts.Verbose)
	if err != nil {
		return nil, err
	}

	readyCtx := ctx
	if opts.ReadyTimeout > 0 {
		var cancel context.CancelFunc
		readyCtx, cancel = context.WithTimeout(ctx, opts.ReadyTimeout)
		defer cancel()
	}
	start := time.Now()
	_, err = Go(readyCtx, func(context.Context) (reply, error) {
		return p.client.call(request{Op: "ready"})
	}).Wait(readyCtx)
	if err != nil {
		_ = p.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("scene not ready after %s", opts.ReadyTimeout)
		}
		return nil, fmt.Errorf("scene not ready: %w", err)
	}
	log.Info("Scene ready in %.1fs", time.Since(start).Seconds())
	return p, nil
}

// startHost starts cmd with its stdio wired to a protocol client. Renderer
// stderr lines are logged at DEBUG.
func startHost(cmd *exec.Cmd, log Logger, verbose bool) (*Process, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start renderer: %w", err)
	}

	p := &Process{
		cmd:        cmd,
		stdin:      stdin,
		client:     newClient(stdout, stdin),
		stderrDone: make(chan struct{}),
		grace:      processGrace,
	}
	go func() {
		defer close(p.stderrDone)
		sc := bufio.NewScanner(stderr)
		sc.Buffer(make([]byte, 64<<10), 1<<20)
		for sc.Scan() {
			log.Debug(verbose, "renderer: %s", sc.Text())
		}
	}()
	return p, nil
}

// Advance asks the renderer to show simulation instant t.
func (p *Process) Advance(ctx context.Context, sc *Context, t float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame := sc.Frame
	_, err := p.client.call(request{Op: "advance", T: &t, Frame: &frame})
	return err
}

// Capture returns the JPEG image of wall at the current instant.
func (p *Process) Capture(ctx context.Context, sc *Context, wall string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := sc.Wall(wall); !ok {
		return nil, fmt.Errorf("unknown wall %q", wall)
	}
	rep, err := p.client.call(request{Op: "capture", Wall: wall, Quality: sc.Quality})
	if err != nil {
		return nil, err
	}
	if !isJPEG(rep.Data) {
		return nil, fmt.Errorf("wall %q: renderer returned %d bytes that are not a JPEG image", wall, len(rep.Data))
	}
	return rep.Data, nil
}

// Close closes the renderer's stdin and waits for it to exit, killing it
// after a short grace period. Safe to call more than once.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		if p.cmd == nil {
			return
		}
		_ = p.stdin.Close()
		// A child of the host may keep stderr open after the host exits,
		// so draining stderr is bounded by the grace period too.
		exited := make(chan error, 1)
		go func() {
			select {
			case <-p.stderrDone:
			case <-time.After(p.grace):
			}
			exited <- p.cmd.Wait()
		}()
		select {
		case p.closeErr = <-exited:
		case <-time.After(p.grace):
			_ = p.cmd.Process.Kill()
			p.closeErr = <-exited
		}
	})
	return p.closeErr
}

type request struct {
	Op      string   `json:"op"`
	T       *float64 `json:"t,omitempty"`
	Frame   *int     `json:"frame,omitempty"`
	Wall    string   `json:"wall,omitempty"`
	Quality float64  `json:"quality,omitempty"`
}

type reply struct {
	OK    bool   `json:"ok"`
	Data  []byte `json:"data,omitempty"` // base64 on the wire
	Error string `json:"error,omitempty"`
}

// client serializes request/reply exchanges over one stream pair.
type client struct {
	mu  sync.Mutex
	enc *json.Encoder
	dec *json.Decoder
}

func newClient(r io.Reader, w io.Writer) *client {
	return &client{enc: json.NewEncoder(w), dec: json.NewDecoder(r)}
}

func (c *client) call(req request) (reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(req); err != nil {
		return reply{}, fmt.Errorf("send %s: %w", req.Op, err)
	}
	var rep reply
	if err := c.dec.Decode(&rep); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("renderer closed its output")
		}
		return reply{}, fmt.Errorf("read %s reply: %w", req.Op, err)
	}
	if !rep.OK {
		msg := rep.Error
		if msg == "" {
			msg = "unspecified error"
		}
		return reply{}, fmt.Errorf("renderer %s: %s", req.Op, msg)
	}
	return rep, nil
}

var jpegSOI = []byte{0xFF, 0xD8, 0xFF}

func isJPEG(b []byte) bool {
	return bytes.HasPrefix(b, jpegSOI)
}
