// Package config publishes the device configuration as retained
// config/<key> messages. The embedded JSON for the device is the base; a
// /config.json file on the storage partition overrides it key by key.
package config

import (
	"context"
	"io/fs"

	"github.com/andreyvit/tinyjson"

	"tinyfx-go/bus"
	"tinyfx-go/errcode"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	OverrideFile = "config.json"
)

type ctxKey struct{}

// WithDevice returns ctx carrying the device ID used to select the
// embedded configuration.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, ctxKey{}, device)
}

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	FS   fs.FS // storage; nil skips the override file
}

func NewConfigService(fsys fs.FS) *ConfigService {
	return &ConfigService{Name: serviceName, FS: fsys}
}

// parseObject decodes a JSON object with tinyjson, which panics on
// malformed input.
func parseObject(raw []byte) (m map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errcode.E{C: errcode.InvalidPayload, Op: "config.parse", Msg: "malformed JSON"}
		}
	}()
	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()
	m, ok := val.(map[string]any)
	if !ok {
		return nil, &errcode.E{C: errcode.InvalidPayload, Op: "config.parse", Msg: "not a JSON object"}
	}
	return m, nil
}

// Load merges the embedded config for device with the override file.
func (s *ConfigService) Load(device string) (map[string]any, error) {
	if device == "" {
		return nil, &errcode.E{C: errcode.NoConfig, Op: "config.Load", Msg: "missing device ID"}
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, &errcode.E{C: errcode.NoConfig, Op: "config.Load", Msg: "no embedded config for device: " + device}
	}
	m, err := parseObject(raw)
	if err != nil {
		return nil, err
	}
	if s.FS == nil {
		return m, nil
	}
	over, err := fs.ReadFile(s.FS, OverrideFile)
	if err != nil {
		return m, nil
	}
	o, err := parseObject(over)
	if err != nil {
		println("[config] ignoring", OverrideFile+":", err.Error())
		return m, nil
	}
	for k, v := range o {
		m[k] = v
	}
	println("[config] applied", OverrideFile, "keys:", len(o))
	return m, nil
}

// publishConfig publishes each top-level key as a retained message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(ctxKey{}).(string)
	m, err := s.Load(device)
	if err != nil {
		return err
	}
	for k, v := range m {
		conn.Publish(&bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  v,
			Retained: true,
		})
	}
	return nil
}

// Start publishes the configuration and republishes it on
// config/control/reload until ctx ends.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	reload := conn.Subscribe(bus.T(configPrefix, "control", "reload"))
	go func() {
		defer conn.Unsubscribe(reload)
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-reload.Channel():
				err := s.publishConfig(ctx, conn)
				if err != nil {
					println("[config] reload failed:", err.Error())
				}
				conn.Reply(m, map[string]any{"ok": err == nil}, false)
			}
		}
	}()
}
