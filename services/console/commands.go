package console

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/andreyvit/tinyjson"

	"tinyfx-go/bus"
	"tinyfx-go/errcode"
	"tinyfx-go/services/hal"
	"tinyfx-go/types"
)

type command struct {
	usage   string
	help    string
	minArgs int
	run     func(ctx context.Context, c *Console, w io.Writer, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":   {help: "list commands", run: cmdHelp},
		"info":   {help: "board layout", run: cmdInfo},
		"clear":  {help: "turn every output off", run: cmdClear},
		"out":    {usage: "<1-6> on|off|toggle|set <b>|fade <to> <ms>", help: "drive a mono output", minArgs: 2, run: cmdOut},
		"rgb":    {usage: "<r> <g> <b> | hsv <h> <s> <v> | off", help: "set the RGB output", minArgs: 1, run: cmdRGB},
		"read":   {usage: "vsense|sensor|button|temp|humidity [samples]", help: "read an input", minArgs: 1, run: cmdRead},
		"fx":     {usage: "mono|colour|strip <effect> [key=value...] | stop | next | prev", help: "play effects", minArgs: 1, run: cmdFX},
		"tone":   {usage: "<hz> [amplitude] [shape...]", help: "play a tone", minArgs: 1, run: cmdTone},
		"wav":    {usage: "<file> [loop]", help: "play a WAV file from storage", minArgs: 1, run: cmdWAV},
		"audio":  {usage: "stop|pause|resume", help: "control playback", minArgs: 1, run: cmdAudio},
		"reload": {help: "reload configuration", run: cmdReload},
		"ls":     {usage: "[dir]", help: "list storage", run: cmdLs},
		"cat":    {usage: "<file>", help: "print a storage file", minArgs: 1, run: cmdCat},
	}
}

func cmdHelp(_ context.Context, _ *Console, w io.Writer, _ []string) error {
	for _, name := range sortedKeys(commands) {
		cmd := commands[name]
		fmt.Fprintf(w, "  %-7s %s  %s\r\n", name, cmd.usage, cmd.help)
	}
	return nil
}

func cmdInfo(ctx context.Context, c *Console, w io.Writer, _ []string) error {
	r, err := c.request(ctx, hal.CtrlTopic("system", "board", "tinyfx", "info"), nil)
	if err != nil {
		return err
	}
	printReply(w, r)
	return nil
}

func cmdClear(ctx context.Context, c *Console, _ io.Writer, _ []string) error {
	_, err := c.request(ctx, hal.CtrlTopic("system", "board", "tinyfx", "clear"), nil)
	return err
}

func cmdOut(ctx context.Context, c *Console, _ io.Writer, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(hal.OutputNames) {
		return &errcode.E{C: errcode.OutOfRange, Op: "out", Msg: "output is 1..6"}
	}
	var p any
	verb := args[1]
	switch verb {
	case "on", "off", "toggle":
	case "set":
		b, err := floatArgs(args[2:], 1)
		if err != nil {
			return err
		}
		p = types.OutputSet{Brightness: float32(b[0])}
	case "fade":
		v, err := floatArgs(args[2:], 2)
		if err != nil {
			return err
		}
		p = types.OutputFade{To: float32(v[0]), DurationMs: uint32(v[1]), Steps: 50}
	default:
		return &errcode.E{C: errcode.Unsupported, Op: "out", Msg: verb}
	}
	_, err = c.request(ctx, hal.CtrlTopic("io", "pwm", hal.OutputNames[n-1], verb), p)
	return err
}

func cmdRGB(ctx context.Context, c *Console, _ io.Writer, args []string) error {
	var verb string
	var p any
	switch args[0] {
	case "off":
		verb = "off"
	case "hsv":
		v, err := floatArgs(args[1:], 3)
		if err != nil {
			return err
		}
		verb, p = "set_hsv", types.HSVSet{H: float32(v[0]), S: float32(v[1]), V: float32(v[2])}
	default:
		v, err := floatArgs(args, 3)
		if err != nil {
			return err
		}
		verb, p = "set_rgb", types.RGBSet{R: int(v[0]), G: int(v[1]), B: int(v[2])}
	}
	_, err := c.request(ctx, hal.CtrlTopic("io", "rgb", "rgb", verb), p)
	return err
}

var readTargets = map[string][3]string{
	"vsense":   {"power", "voltage", "vsense"},
	"sensor":   {"io", "voltage", "sensor"},
	"button":   {"io", "button", "boot"},
	"temp":     {"env", "temperature", "qwst"},
	"humidity": {"env", "humidity", "qwst"},
}

func cmdRead(ctx context.Context, c *Console, w io.Writer, args []string) error {
	t, ok := readTargets[args[0]]
	if !ok {
		return &errcode.E{C: errcode.UnknownCapability, Op: "read", Msg: args[0]}
	}
	var p any
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return &errcode.E{C: errcode.InvalidParams, Op: "read", Msg: args[1]}
		}
		p = types.ReadSamples{Samples: n}
	}
	r, err := c.request(ctx, hal.CtrlTopic(t[0], t[1], t[2], "read"), p)
	if err != nil {
		return err
	}
	printReply(w, r)
	return nil
}

func cmdFX(ctx context.Context, c *Console, _ io.Writer, args []string) error {
	switch args[0] {
	case "stop":
		_, err := c.request(ctx, bus.T("fx", "control", "stop"), types.FXStop{Reset: true})
		return err
	case "next", "prev":
		_, err := c.request(ctx, bus.T("fx", "control", args[0]), nil)
		return err
	}
	if len(args) < 2 {
		return &errcode.E{C: errcode.InvalidParams, Op: "fx", Msg: "usage: fx " + commands["fx"].usage}
	}
	params, err := keyValues(args[2:])
	if err != nil {
		return err
	}
	spec := types.EffectSpec{Name: args[1], Params: params}
	var cfg types.FXConfig
	switch args[0] {
	case "mono":
		// One shared instance across the outputs so waves line up.
		for i := range hal.OutputNames {
			s := spec
			s.Group, s.Pos = "console", i
			cfg.Mono = append(cfg.Mono, s)
		}
	case "colour", "color":
		cfg.Colour = &spec
	case "strip":
		cfg.Strip = &spec
	default:
		return &errcode.E{C: errcode.Unsupported, Op: "fx", Msg: args[0]}
	}
	_, err = c.request(ctx, bus.T("fx", "control", "play"), cfg)
	return err
}

func cmdTone(ctx context.Context, c *Console, _ io.Writer, args []string) error {
	req := types.ToneRequest{Amplitude: 0.5}
	v, err := floatArgs(args[:1], 1)
	if err != nil {
		return err
	}
	req.FreqHz = v[0]
	if len(args) > 1 {
		a, err := floatArgs(args[1:2], 1)
		if err != nil {
			return err
		}
		req.Amplitude = a[0]
		req.Shapes = args[2:]
	}
	_, err = c.request(ctx, bus.T("audio", "control", "tone"), req)
	return err
}

func cmdWAV(ctx context.Context, c *Console, _ io.Writer, args []string) error {
	req := types.WavRequest{File: strings.TrimPrefix(args[0], "/")}
	req.Loop = len(args) > 1 && args[1] == "loop"
	_, err := c.request(ctx, bus.T("audio", "control", "wav"), req)
	return err
}

func cmdAudio(ctx context.Context, c *Console, _ io.Writer, args []string) error {
	switch args[0] {
	case "stop", "pause", "resume":
	default:
		return &errcode.E{C: errcode.Unsupported, Op: "audio", Msg: args[0]}
	}
	_, err := c.request(ctx, bus.T("audio", "control", args[0]), nil)
	return err
}

func cmdReload(ctx context.Context, c *Console, w io.Writer, _ []string) error {
	r, err := c.request(ctx, bus.T("config", "control", "reload"), nil)
	if err != nil {
		return err
	}
	printReply(w, r)
	return nil
}

func cmdLs(_ context.Context, c *Console, w io.Writer, args []string) error {
	if c.fsys == nil {
		return &errcode.E{C: errcode.NotFound, Op: "ls", Msg: "no storage"}
	}
	dir := "."
	if len(args) > 0 {
		dir = cleanPath(args[0])
	}
	entries, err := fs.ReadDir(c.fsys, dir)
	if err != nil {
		return &errcode.E{C: errcode.NotFound, Op: "ls", Msg: dir, Err: err}
	}
	for _, e := range entries {
		if e.IsDir() {
			fmt.Fprintf(w, "%s/\r\n", e.Name())
			continue
		}
		var size int64
		if info, err := e.Info(); err == nil {
			size = info.Size()
		}
		fmt.Fprintf(w, "%8d %s\r\n", size, e.Name())
	}
	return nil
}

func cmdCat(_ context.Context, c *Console, w io.Writer, args []string) error {
	if c.fsys == nil {
		return &errcode.E{C: errcode.NotFound, Op: "cat", Msg: "no storage"}
	}
	data, err := fs.ReadFile(c.fsys, cleanPath(args[0]))
	if err != nil {
		return &errcode.E{C: errcode.NotFound, Op: "cat", Msg: args[0], Err: err}
	}
	w.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		io.WriteString(w, "\r\n")
	}
	return nil
}

// -----------------------------------------------------------------------------
// argument helpers
// -----------------------------------------------------------------------------

func cleanPath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "."
	}
	return p
}

func floatArgs(args []string, n int) ([]float64, error) {
	if len(args) < n {
		return nil, &errcode.E{C: errcode.InvalidParams, Op: "console", Msg: "expected " + strconv.Itoa(n) + " numbers"}
	}
	out := make([]float64, n)
	for i := range out {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "console", Msg: args[i]}
		}
		out[i] = v
	}
	return out, nil
}

// keyValues parses key=value pairs. Values are JSON literals (numbers,
// booleans, arrays); anything else is kept as a string.
func keyValues(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, &errcode.E{C: errcode.InvalidParams, Op: "console", Msg: "expected key=value: " + a}
		}
		out[k] = literal(v)
	}
	return out, nil
}

func literal(s string) (v any) {
	defer func() {
		if recover() != nil {
			v = s
		}
	}()
	r := tinyjson.Raw([]byte(s))
	v = r.Value()
	r.EnsureEOF()
	return v
}

// replyError recognises ErrorReply payloads, including ones decoded
// from JSON.
func replyError(v any) (string, bool) {
	switch e := v.(type) {
	case types.ErrorReply:
		return e.Error, true
	case map[string]any:
		if s, ok := e["error"].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
