// Package console is a line oriented shell for the board. Lines are
// split with shell quoting rules and turned into bus requests, so the
// console drives the same controls as any other service.
package console

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/google/shlex"

	"tinyfx-go/bus"
	"tinyfx-go/errcode"
)

const (
	prompt         = "tinyfx> "
	maxLine        = 256
	requestTimeout = 2 * time.Second
)

// Port is a byte stream the console can serve on.
type Port interface {
	io.Writer
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

type Console struct {
	conn *bus.Connection
	fsys fs.FS
}

// New creates a console. fsys may be nil when no storage is mounted.
func New(conn *bus.Connection, fsys fs.FS) *Console {
	return &Console{conn: conn, fsys: fsys}
}

// Exec runs one command line and writes its output to w.
func (c *Console) Exec(ctx context.Context, line string, w io.Writer) error {
	args, err := shlex.Split(line)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "console", Msg: err.Error()}
	}
	if len(args) == 0 {
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return &errcode.E{C: errcode.Unsupported, Op: "console", Msg: args[0] + " (try help)"}
	}
	if len(args)-1 < cmd.minArgs {
		return &errcode.E{C: errcode.InvalidParams, Op: args[0], Msg: "usage: " + args[0] + " " + cmd.usage}
	}
	return cmd.run(ctx, c, w, args[1:])
}

// Serve reads lines from p until ctx ends or the port fails. Input is
// echoed; backspace edits the pending line.
func (c *Console) Serve(ctx context.Context, p Port) error {
	io.WriteString(p, "\r\n"+prompt)
	buf := make([]byte, 64)
	line := make([]byte, 0, maxLine)
	for {
		n, err := p.RecvSomeContext(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, ch := range buf[:n] {
			switch ch {
			case '\r', '\n':
				if ch == '\n' && len(line) == 0 {
					continue
				}
				io.WriteString(p, "\r\n")
				if err := c.Exec(ctx, string(line), p); err != nil {
					fmt.Fprintf(p, "error: %s\r\n", err.Error())
				}
				line = line[:0]
				io.WriteString(p, prompt)
			case 0x08, 0x7f:
				if len(line) > 0 {
					line = line[:len(line)-1]
					io.WriteString(p, "\b \b")
				}
			default:
				if ch < 0x20 || len(line) == maxLine {
					continue
				}
				line = append(line, ch)
				p.Write([]byte{ch})
			}
		}
	}
}

// request sends payload to topic and returns the reply payload. An
// ErrorReply becomes an error carrying its code.
func (c *Console) request(ctx context.Context, topic bus.Topic, payload any) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	reply, err := c.conn.RequestWait(ctx, c.conn.NewMessage(topic, payload, false))
	if err != nil {
		return nil, err
	}
	if e, ok := replyError(reply.Payload); ok {
		return nil, &errcode.E{C: errcode.Code(e), Op: topic.String()}
	}
	return reply.Payload, nil
}

// printReply writes a reply in key=value form.
func printReply(w io.Writer, v any) {
	switch x := v.(type) {
	case nil:
	case map[string]any:
		keys := sortedKeys(x)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, x[k]))
		}
		fmt.Fprintf(w, "%s\r\n", strings.Join(parts, " "))
	default:
		fmt.Fprintf(w, "%+v\r\n", x)
	}
}
