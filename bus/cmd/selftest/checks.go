package main

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"tinyfx-go/bus"
	"tinyfx-go/errcode"
)

const wait = 100 * time.Millisecond

var (
	errTimeout    = errors.New("timeout")
	errUnexpected = errors.New("unexpected message")
)

// --- helpers ------------------------------------------------------------------

func expectOne(sub *bus.Subscription, want string) error {
	select {
	case got := <-sub.Channel():
		if s, ok := got.Payload.(string); !ok || s != want {
			return errors.New("payload mismatch, want " + want)
		}
		return nil
	case <-time.After(wait):
		return errTimeout
	}
}

func expectNone(sub *bus.Subscription) error {
	select {
	case <-sub.Channel():
		return errUnexpected
	case <-time.After(wait / 4):
		return nil
	}
}

// expectSet drains len(want) payloads and compares them unordered.
func expectSet(sub *bus.Subscription, want ...string) error {
	var got []string
	deadline := time.After(3 * wait)
	for len(got) < len(want) {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			if !ok {
				return errors.New("non-string payload")
			}
			got = append(got, s)
		case <-deadline:
			return errTimeout
		}
	}
	sort.Strings(got)
	want = append([]string(nil), want...)
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return errors.New("got " + strings.Join(got, ",") + " want " + strings.Join(want, ","))
	}
	return nil
}

// --- checks -------------------------------------------------------------------

func checkPubSub() error {
	c := bus.NewBus(4).NewConnection("t")
	sub := c.Subscribe(bus.T("config", "fx"))
	c.Publish(c.NewMessage(bus.T("config", "fx"), "rainbow", false))
	return expectOne(sub, "rainbow")
}

func checkRetained() error {
	c := bus.NewBus(4).NewConnection("t")
	c.Publish(c.NewMessage(bus.T("hal", "state"), "ready", true))
	return expectOne(c.Subscribe(bus.T("hal", "state")), "ready")
}

func checkRetainedClear() error {
	c := bus.NewBus(8).NewConnection("t")
	one := bus.T("hal", "cap", "io", "pwm", "one", "value")
	c.Publish(c.NewMessage(one, "keep", true))
	c.Publish(c.NewMessage(one, nil, true))
	return expectNone(c.Subscribe(one))
}

func checkWildcards() error {
	c := bus.NewBus(16).NewConnection("t")
	plus := c.Subscribe(bus.T("hal", "cap", "+", "+", "+", "control", "+"))
	hash := c.Subscribe(bus.T("hal", "#"))
	other := c.Subscribe(bus.T("fx", "+"))

	c.Publish(c.NewMessage(bus.T("hal", "cap", "io", "rgb", "rgb", "control", "set_rgb"), "m1", false))
	if err := expectOne(plus, "m1"); err != nil {
		return err
	}
	if err := expectOne(hash, "m1"); err != nil {
		return err
	}
	if err := expectNone(other); err != nil {
		return err
	}
	// "#" matches its parent level; "+" needs exactly one.
	c.Publish(c.NewMessage(bus.T("hal"), "m2", false))
	if err := expectOne(hash, "m2"); err != nil {
		return err
	}
	return expectNone(plus)
}

func checkRetainedWildcard() error {
	c := bus.NewBus(16).NewConnection("t")
	c.Publish(c.NewMessage(bus.T("config", "hal"), "r1", true))
	c.Publish(c.NewMessage(bus.T("config", "fx"), "r2", true))
	c.Publish(c.NewMessage(bus.T("config", "audio", "boot"), "r3", true))
	if err := expectSet(c.Subscribe(bus.T("config", "+")), "r1", "r2"); err != nil {
		return err
	}
	return expectSet(c.Subscribe(bus.T("config", "#")), "r1", "r2", "r3")
}

func checkDropOldest() error {
	c := bus.NewBus(2).NewConnection("t")
	sub := c.Subscribe(bus.T("fx", "tick"))
	for _, p := range []string{"a", "b", "c"} {
		c.Publish(c.NewMessage(bus.T("fx", "tick"), p, false))
	}
	return expectSet(sub, "b", "c")
}

func checkRequestReply() error {
	b := bus.NewBus(8)
	req, resp := b.NewConnection("console"), b.NewConnection("hal")
	topic := bus.T("hal", "cap", "power", "voltage", "vsense", "control", "read")
	sub := resp.Subscribe(topic)
	defer resp.Unsubscribe(sub)
	go func() {
		if m, ok := <-sub.Channel(); ok {
			resp.Reply(m, "OK", false)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*wait)
	defer cancel()
	reply, err := req.RequestWait(ctx, req.NewMessage(topic, nil, false))
	if err != nil {
		return err
	}
	if s, _ := reply.Payload.(string); s != "OK" {
		return errors.New("bad reply payload")
	}
	return nil
}

func checkRequestTimeout() error {
	c := bus.NewBus(4).NewConnection("t")
	ctx, cancel := context.WithTimeout(context.Background(), wait/2)
	defer cancel()
	_, err := c.RequestWait(ctx, c.NewMessage(bus.T("nobody"), nil, false))
	if errcode.Of(err) != errcode.Timeout {
		return errors.New("want timeout, got " + errcode.Of(err).Error())
	}
	return nil
}

func checkUnsubscribe() error {
	c := bus.NewBus(4).NewConnection("t")
	sub := c.Subscribe(bus.T("a", "b"))
	sub.Unsubscribe()
	sub.Unsubscribe()
	if _, ok := <-sub.Channel(); ok {
		return errors.New("channel open after unsubscribe")
	}
	c.Publish(c.NewMessage(bus.T("a", "b"), "x", false))
	return nil
}

func checkInvalidTokenPanics() (err error) {
	defer func() {
		if recover() == nil {
			err = errors.New("no panic for non-comparable token")
		}
	}()
	_ = bus.T([]byte{1})
	return nil
}

type check struct {
	name string
	fn   func() error
}

var checks = []check{
	{"pubsub", checkPubSub},
	{"retained", checkRetained},
	{"retained_clear", checkRetainedClear},
	{"wildcards", checkWildcards},
	{"retained_wildcard", checkRetainedWildcard},
	{"drop_oldest", checkDropOldest},
	{"request_reply", checkRequestReply},
	{"request_timeout", checkRequestTimeout},
	{"unsubscribe", checkUnsubscribe},
	{"invalid_token", checkInvalidTokenPanics},
}

// runChecks runs every check, logging each result, and returns the
// number that failed.
func runChecks(logln func(string)) int {
	failed := 0
	logln("== bus self-test starting ==")
	for _, c := range checks {
		if err := c.fn(); err != nil {
			logln("[FAIL] " + c.name + ": " + err.Error())
			failed++
		} else {
			logln("[PASS] " + c.name)
		}
		// tiny pause between checks to keep timings sane on MCU
		time.Sleep(10 * time.Millisecond)
	}
	return failed
}
