package net

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/andreyvit/tinyjson"

	"tinyfx-go/errcode"
)

func badBody(op, msg string) error {
	return &errcode.E{C: errcode.InvalidPayload, Op: op, Msg: msg}
}

// ParseHexColour decodes "#RRGGBB".
func ParseHexColour(s string) ([3]uint8, error) {
	var c [3]uint8
	if len(s) != 7 || s[0] != '#' {
		return c, badBody("net.colour", "want #RRGGBB, got "+strconv.Quote(s))
	}
	for i := range c {
		v, err := strconv.ParseUint(s[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return c, badBody("net.colour", s)
		}
		c[i] = uint8(v)
	}
	return c, nil
}

func parseObject(op string, body []byte) (m map[string]any, err error) {
	defer func() {
		if recover() != nil {
			err = badBody(op, "malformed JSON")
		}
	}()
	r := tinyjson.Raw(body)
	v := r.Value()
	r.EnsureEOF()
	m, ok := v.(map[string]any)
	if !ok {
		return nil, badBody(op, "not a JSON object")
	}
	return m, nil
}

// ParseCheerLights reads the colour from the last entry of the
// CheerLights ThingSpeak channel, e.g. {"field2":"#FF00FF",...}.
func ParseCheerLights(body []byte) ([3]uint8, error) {
	m, err := parseObject("net.cheerlights", body)
	if err != nil {
		return [3]uint8{}, err
	}
	s, ok := m["field2"].(string)
	if !ok {
		return [3]uint8{}, badBody("net.cheerlights", "missing field2")
	}
	return ParseHexColour(s)
}

// RandomColours is one answer from the random colour API: six output
// brightnesses taken from the hex digits of the first colour, and the
// RGB output from the second.
type RandomColours struct {
	Mono [6]float32
	RGB  [3]uint8
}

// ParseRandomColours decodes {"colors":["#RRGGBB","#RRGGBB"]}.
func ParseRandomColours(body []byte) (RandomColours, error) {
	var out RandomColours
	m, err := parseObject("net.random", body)
	if err != nil {
		return out, err
	}
	list, _ := m["colors"].([]any)
	if len(list) < 2 {
		return out, badBody("net.random", "want two colors")
	}
	first, _ := list[0].(string)
	second, _ := list[1].(string)
	if _, err := ParseHexColour(first); err != nil {
		return out, err
	}
	for i := range out.Mono {
		v, _ := strconv.ParseUint(first[1+i:2+i], 16, 8)
		out.Mono[i] = float32(v) / 15
	}
	if out.RGB, err = ParseHexColour(second); err != nil {
		return out, err
	}
	return out, nil
}

// SplitURL breaks an http:// URL into host, port and request path.
func SplitURL(u string) (host string, port uint16, path string, err error) {
	rest, ok := strings.CutPrefix(u, "http://")
	if !ok {
		return "", 0, "", &errcode.E{C: errcode.Unsupported, Op: "net.url", Msg: "only http:// is supported: " + u}
	}
	host, path = rest, "/"
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		host, path = rest[:i], rest[i:]
	}
	port = 80
	if h, p, ok := strings.Cut(host, ":"); ok {
		n, perr := strconv.ParseUint(p, 10, 16)
		if perr != nil || n == 0 {
			return "", 0, "", &errcode.E{C: errcode.InvalidParams, Op: "net.url", Msg: u}
		}
		host, port = h, uint16(n)
	}
	if host == "" {
		return "", 0, "", &errcode.E{C: errcode.InvalidParams, Op: "net.url", Msg: u}
	}
	return host, port, path, nil
}

// ParseResponse splits a raw HTTP/1.x response into status and body.
// Chunked bodies are decoded.
func ParseResponse(raw []byte) (status int, body []byte, err error) {
	head, body, ok := bytes.Cut(raw, []byte("\r\n\r\n"))
	if !ok {
		return 0, nil, badBody("net.http", "incomplete header")
	}
	lines := strings.Split(string(head), "\r\n")
	fields := strings.Fields(lines[0])
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/1.") {
		return 0, nil, badBody("net.http", "bad status line")
	}
	if status, err = strconv.Atoi(fields[1]); err != nil {
		return 0, nil, badBody("net.http", "bad status code")
	}
	for _, l := range lines[1:] {
		k, v, _ := strings.Cut(l, ":")
		if strings.EqualFold(strings.TrimSpace(k), "Transfer-Encoding") && strings.Contains(strings.ToLower(v), "chunked") {
			body, err = dechunk(body)
			return status, body, err
		}
	}
	return status, body, nil
}

func dechunk(b []byte) ([]byte, error) {
	var out []byte
	for {
		line, rest, ok := bytes.Cut(b, []byte("\r\n"))
		if !ok {
			return nil, badBody("net.http", "truncated chunk")
		}
		sz, _, _ := bytes.Cut(line, []byte(";"))
		n, err := strconv.ParseUint(strings.TrimSpace(string(sz)), 16, 32)
		if err != nil {
			return nil, badBody("net.http", "bad chunk size")
		}
		if n == 0 {
			return out, nil
		}
		if uint64(len(rest)) < n+2 {
			return nil, badBody("net.http", "truncated chunk")
		}
		out = append(out, rest[:n]...)
		b = rest[n+2:]
	}
}
