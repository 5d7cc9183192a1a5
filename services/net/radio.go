//go:build cyw43 && rp2040

package net

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"net/netip"
	"time"

	"github.com/soypat/cyw43439"
	mqtt "github.com/soypat/natiu-mqtt"
	"github.com/soypat/seqs"
	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/eth/dns"
	"github.com/soypat/seqs/httpx"
	"github.com/soypat/seqs/stacks"

	"tinyfx-go/errcode"
	"tinyfx-go/types"
	"tinyfx-go/x/strx"
)

const (
	mtu         = cyw43439.MTU
	tcpBufSize  = 2030 // MTU - ethhdr - iphdr - tcphdr
	rxLimit     = 4096
	connTimeout = 5 * time.Second
	backoffMax  = 51 * time.Millisecond
	mqttPort    = 1883

	defaultHostname = "tinyfx"
)

// Radio is the Link of a Pico W: the CYW43439 radio with a seqs stack
// for DHCP, DNS, TCP and MQTT.
type Radio struct {
	log *slog.Logger
	rng *rand.Rand

	dev      *cyw43439.Device
	stack    *stacks.PortStack
	dhcpc    *stacks.DHCPClient
	dnsc     *stacks.DNSClient
	dnsAddr  netip.Addr
	routerHW [6]byte

	http *stacks.TCPConn
	rx   []byte

	mqttConn   *stacks.TCPConn
	mqtt       *mqtt.Client
	mqttBroker string
	pubVar     mqtt.VariablesPublish
}

func NewRadio(logger *slog.Logger) *Radio {
	return &Radio{
		log: logger,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		rx:  make([]byte, rxLimit),
	}
}

// Up initialises the radio once, joins cfg.SSID and completes DHCP.
func (r *Radio) Up(ctx context.Context, cfg types.NetConfig) (netip.Addr, error) {
	if r.dev == nil {
		r.dev = cyw43439.NewPicoWDevice(r.log)
		start := time.Now()
		if err := r.dev.Init(cyw43439.DefaultWifiConfig()); err != nil {
			r.dev = nil
			return netip.Addr{}, errcode.Wrap(errcode.Error, "net.init", err)
		}
		r.log.Info("cyw43439:init", slog.Duration("duration", time.Since(start)))
	}
	r.log.Info("wifi:join", slog.String("ssid", cfg.SSID), slog.Int("passlen", len(cfg.Password)))
	if err := r.dev.JoinWPA2(cfg.SSID, cfg.Password); err != nil {
		return netip.Addr{}, errcode.Wrap(errcode.NotConnected, "net.join", err)
	}
	mac, _ := r.dev.HardwareAddr6()

	if r.stack == nil {
		r.stack = stacks.NewPortStack(stacks.PortStackConfig{
			MAC:             mac,
			MaxOpenPortsUDP: 2, // DHCP and DNS
			MaxOpenPortsTCP: 2, // HTTP and MQTT
			MTU:             mtu,
			Logger:          r.log,
		})
		r.dev.RecvEthHandle(r.stack.RecvEth)
		go r.nicLoop()
		r.dhcpc = stacks.NewDHCPClient(r.stack, dhcp.DefaultClientPort)
		r.dnsc = stacks.NewDNSClient(r.stack, dns.ClientPort)
	}

	err := r.dhcpc.BeginRequest(stacks.DHCPRequestConfig{
		Xid:      r.rng.Uint32(),
		Hostname: strx.Coalesce(cfg.Hostname, defaultHostname),
	})
	if err != nil {
		return netip.Addr{}, errcode.Wrap(errcode.Error, "net.dhcp", err)
	}
	if err := waitFor(ctx, 8*time.Second, 500*time.Millisecond, r.dhcpc.IsDone); err != nil {
		return netip.Addr{}, errcode.Wrap(errcode.Timeout, "net.dhcp", err)
	}
	ip := r.dhcpc.Offer()
	r.stack.SetAddr(ip)
	if servers := r.dhcpc.DNSServers(); len(servers) > 0 && servers[0].IsValid() {
		r.dnsAddr = servers[0]
	}
	r.log.Info("dhcp:complete",
		slog.String("ip", ip.String()),
		slog.String("dns", r.dnsAddr.String()),
		slog.String("router", r.dhcpc.Router().String()),
		slog.Duration("lease", r.dhcpc.IPLeaseTime()),
	)
	if r.routerHW, err = r.resolveHW(r.dhcpc.Router()); err != nil {
		return netip.Addr{}, errcode.Wrap(errcode.Error, "net.arp", err)
	}
	return ip, nil
}

// Get performs one HTTP/1.1 GET and reads until the server closes.
func (r *Radio) Get(ctx context.Context, url string) (int, []byte, error) {
	host, port, path, err := SplitURL(url)
	if err != nil {
		return 0, nil, err
	}
	addr, err := r.lookup(ctx, host)
	if err != nil {
		return 0, nil, err
	}
	if r.http == nil {
		if r.http, err = stacks.NewTCPConn(r.stack, stacks.TCPConnConfig{TxBufSize: tcpBufSize, RxBufSize: tcpBufSize}); err != nil {
			return 0, nil, errcode.Wrap(errcode.Error, "net.http", err)
		}
	}
	c := r.http
	if err := r.dial(ctx, c, netip.AddrPortFrom(addr, port)); err != nil {
		return 0, nil, err
	}
	defer r.closeConn(c)

	var req httpx.RequestHeader
	req.SetMethod("GET")
	req.SetRequestURI(path)
	req.SetHost(host)
	if _, err := c.Write(req.Header()); err != nil {
		return 0, nil, errcode.Wrap(errcode.Error, "net.http", err)
	}

	c.SetDeadline(time.Now().Add(connTimeout))
	n := 0
	for n < len(r.rx) {
		k, err := c.Read(r.rx[n:])
		n += k
		if err != nil || (k == 0 && c.State().IsClosed()) {
			break
		}
		if k == 0 {
			time.Sleep(20 * time.Millisecond)
		}
	}
	if n == 0 {
		return 0, nil, &errcode.E{C: errcode.Timeout, Op: "net.http", Msg: "no response"}
	}
	status, body, err := ParseResponse(r.rx[:n])
	return status, append([]byte(nil), body...), err
}

// Publish sends payload at QoS 0, connecting to broker (host or
// host:port) first when needed.
func (r *Radio) Publish(ctx context.Context, broker, topic string, payload []byte) error {
	if r.mqtt == nil || !r.mqtt.IsConnected() || r.mqttBroker != broker {
		if err := r.connectMQTT(ctx, broker); err != nil {
			return err
		}
	}
	flags, _ := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	r.pubVar.TopicName = []byte(topic)
	r.pubVar.PacketIdentifier++
	r.mqttConn.SetDeadline(time.Now().Add(connTimeout))
	if err := r.mqtt.PublishPayload(flags, r.pubVar, payload); err != nil {
		return errcode.Wrap(errcode.Error, "net.mqtt", err)
	}
	return nil
}

func (r *Radio) connectMQTT(ctx context.Context, broker string) error {
	host, port, _, err := SplitURL("http://" + broker)
	if err != nil {
		return err
	}
	if port == 80 {
		port = mqttPort
	}
	addr, err := r.lookup(ctx, host)
	if err != nil {
		return err
	}
	if r.mqttConn == nil {
		if r.mqttConn, err = stacks.NewTCPConn(r.stack, stacks.TCPConnConfig{TxBufSize: tcpBufSize, RxBufSize: tcpBufSize}); err != nil {
			return errcode.Wrap(errcode.Error, "net.mqtt", err)
		}
	} else {
		r.closeConn(r.mqttConn)
	}
	if err := r.dial(ctx, r.mqttConn, netip.AddrPortFrom(addr, port)); err != nil {
		return err
	}
	r.mqtt = mqtt.NewClient(mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 512)},
		OnPub: func(_ mqtt.Header, _ mqtt.VariablesPublish, _ io.Reader) error {
			return nil
		},
	})
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte("tinyfx-" + r.stack.Addr().String()))
	r.mqttConn.SetDeadline(time.Now().Add(connTimeout))
	if err := r.mqtt.StartConnect(r.mqttConn, &varconn); err != nil {
		r.closeConn(r.mqttConn)
		return errcode.Wrap(errcode.NotConnected, "net.mqtt", err)
	}
	if err := waitFor(ctx, connTimeout, 100*time.Millisecond, r.mqtt.IsConnected); err != nil {
		r.closeConn(r.mqttConn)
		return errcode.Wrap(errcode.NotConnected, "net.mqtt", r.mqtt.Err())
	}
	r.mqttBroker = broker
	r.log.Info("mqtt:connected", slog.String("broker", broker))
	return nil
}

func (r *Radio) dial(ctx context.Context, c *stacks.TCPConn, addr netip.AddrPort) error {
	local := uint16(r.rng.Intn(65535-1024) + 1024)
	c.SetDeadline(time.Now().Add(connTimeout))
	err := c.OpenDialTCP(local, r.routerHW, addr, seqs.Value(r.rng.Intn(65535-1024)+1024))
	if err != nil {
		r.closeConn(c)
		return errcode.Wrap(errcode.NotConnected, "net.dial", err)
	}
	established := func() bool { return c.State() == seqs.StateEstablished }
	if err := waitFor(ctx, connTimeout, 100*time.Millisecond, established); err != nil {
		r.closeConn(c)
		return errcode.Wrap(errcode.Timeout, "net.dial", err)
	}
	c.SetDeadline(time.Time{})
	return nil
}

func (r *Radio) closeConn(c *stacks.TCPConn) {
	c.FlushOutputBuffer()
	c.Close()
	for i := 0; i < 50 && !c.State().IsClosed(); i++ {
		time.Sleep(100 * time.Millisecond)
	}
}

func (r *Radio) resolveHW(ip netip.Addr) ([6]byte, error) {
	if !ip.IsValid() {
		return [6]byte{}, errors.New("invalid ip")
	}
	arpc := r.stack.ARP()
	arpc.Abort()
	if err := arpc.BeginResolve(ip); err != nil {
		return [6]byte{}, err
	}
	if err := waitFor(context.Background(), 400*time.Millisecond, 20*time.Millisecond, arpc.IsDone); err != nil {
		return [6]byte{}, errors.New("arp timed out")
	}
	_, hw, err := arpc.ResultAs6()
	return hw, err
}

func (r *Radio) lookup(ctx context.Context, host string) (netip.Addr, error) {
	if a, err := netip.ParseAddr(host); err == nil {
		return a, nil
	}
	name, err := dns.NewName(host)
	if err != nil {
		return netip.Addr{}, errcode.Wrap(errcode.InvalidParams, "net.dns", err)
	}
	dnsHW, err := r.resolveHW(r.dnsAddr)
	if err != nil {
		// DNS server off-link: go through the router.
		dnsHW = r.routerHW
	}
	err = r.dnsc.StartResolve(stacks.DNSResolveConfig{
		Questions:       []dns.Question{{Name: name, Type: dns.TypeA, Class: dns.ClassINET}},
		DNSAddr:         r.dnsAddr,
		DNSHWAddr:       dnsHW,
		EnableRecursion: true,
	})
	if err != nil {
		return netip.Addr{}, errcode.Wrap(errcode.Error, "net.dns", err)
	}
	done := func() bool { ok, _ := r.dnsc.IsDone(); return ok }
	if err := waitFor(ctx, 2*time.Second, 20*time.Millisecond, done); err != nil {
		return netip.Addr{}, errcode.Wrap(errcode.Timeout, "net.dns", err)
	}
	if _, rcode := r.dnsc.IsDone(); rcode != dns.RCodeSuccess {
		return netip.Addr{}, &errcode.E{C: errcode.NotFound, Op: "net.dns", Msg: host + ": " + rcode.String()}
	}
	for _, a := range r.dnsc.Answers() {
		if data := a.RawData(); len(data) == 4 {
			return netip.AddrFrom4([4]byte(data)), nil
		}
	}
	return netip.Addr{}, &errcode.E{C: errcode.NotFound, Op: "net.dns", Msg: "no ipv4 answer for " + host}
}

// nicLoop moves frames between the radio and the stack.
func (r *Radio) nicLoop() {
	const queueSize, maxRetries = 3, 3
	var queue [queueSize][mtu]byte
	var lens, retries [queueSize]int
	for {
		stallRx := true
		if got, err := r.dev.PollOne(); err != nil {
			r.log.Error("nic:poll", slog.String("err", err.Error()))
		} else if got {
			stallRx = false
		}
		for i := range queue {
			if retries[i] != 0 {
				continue
			}
			n, err := r.stack.HandleEth(queue[i][:])
			if err != nil {
				r.log.Error("nic:stack", slog.String("err", err.Error()))
				n = 0
			}
			lens[i] = n
			if n == 0 {
				break
			}
		}
		if lens == [queueSize]int{} {
			if stallRx {
				time.Sleep(backoffMax)
			}
			continue
		}
		for i := range queue {
			if lens[i] <= 0 {
				continue
			}
			if err := r.dev.SendEth(queue[i][:lens[i]]); err != nil {
				if retries[i]++; retries[i] <= maxRetries {
					continue
				}
				r.log.Error("nic:dropped", slog.String("err", err.Error()))
			}
			lens[i], retries[i] = 0, 0
		}
	}
}

// waitFor polls cond every step until it holds, d elapses or ctx ends.
func waitFor(ctx context.Context, d, step time.Duration, cond func() bool) error {
	deadline := time.Now().Add(d)
	for !cond() {
		if time.Now().After(deadline) {
			return errors.New("timed out")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(step):
		}
	}
	return nil
}
