// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mqutekitty/client/hooks/storage"
	"github.com/mqutekitty/client/packets"
	"github.com/mqutekitty/client/system"
	"github.com/mqutekitty/client/transport"
)

// closedChan is returned by Done before the first connection.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Client is an MQTT client connection to a single broker. It should be created with
// mqtt.New() in order to ensure all the internal fields are correctly populated.
type Client struct {
	ID           string           // the client id sent to the broker
	Options      *Options         // configurable client options
	Log          *slog.Logger     // minimal no-alloc logger
	info         *system.Info     // counters about the connection
	hooks        *Hooks           // hooks contains hooks for extra functionality such as journaling and debugging
	router       *Router          // routes received messages to subscription handlers
	dialer       transport.Dialer // opens connections to the broker
	session      *session         // the most recent connection
	packetID     uint32           // the last packet id issued
	hooksLoaded  bool             // hooks from the options have been added
	connectMu    sync.Mutex       // serialises Connect
	pingMu       sync.Mutex       // serialises ping requests so each waits for its own response
	closeOnce    sync.Once        // guards Close
	sync.RWMutex                  // guards session
}

// New returns a new instance of the client.
func New(opts *Options) *Client {
	if opts == nil {
		opts = new(Options)
	}

	opts.ensureDefaults()

	return &Client{
		ID:      opts.ClientID,
		Options: opts,
		Log:     opts.Logger,
		info: &system.Info{
			Version: Version,
		},
		hooks: &Hooks{
			Log: opts.Logger,
		},
		router: NewRouter(),
		dialer: opts.Dialer,
	}
}

// AddHook attaches a new Hook to the client. Ideally, this should be called
// before the client is connected.
func (c *Client) AddHook(hook Hook, config any) error {
	nl := c.Log.With("hook", hook.ID())
	hook.SetOpts(nl, &HookOptions{
		ClientID: c.ID,
	})

	c.Log.Info("added hook", "hook", hook.ID())
	return c.hooks.Add(hook, config)
}

// AddHooksFromConfig adds hooks to the client which were specified in the hooks config (usually from a config file).
func (c *Client) AddHooksFromConfig(hooks []HookLoadConfig) error {
	for _, h := range hooks {
		if err := c.AddHook(h.Hook, h.Config); err != nil {
			return err
		}
	}
	return nil
}

// active returns the current session if it is connected.
func (c *Client) active() (*session, error) {
	c.RLock()
	s := c.session
	c.RUnlock()

	if s == nil || !s.connected.Load() || s.closed() {
		return nil, ErrNotConnected
	}

	return s, nil
}

// Connect dials the broker, sends CONNECT and waits for the broker to accept the
// connection. A refusal is returned as the packets.Code of the CONNACK return code.
func (c *Client) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if _, err := c.active(); err == nil {
		return ErrAlreadyConnected
	}

	if !c.hooksLoaded {
		if err := c.AddHooksFromConfig(c.Options.Hooks); err != nil {
			return err
		}
		c.hooksLoaded = true
	}

	if c.dialer == nil {
		d, err := transport.New(c.Options.Transport)
		if err != nil {
			return err
		}
		c.dialer = d
	}

	if err := c.dialer.Init(c.Log); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	pk, err := c.Options.connectPacket()
	if err != nil {
		return err
	}

	nc, err := c.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	s := newSession(nc, c.Options)
	c.Lock()
	c.session = s
	c.Unlock()

	go c.readLoop(s)
	go c.writeLoop(s)

	if err := c.send(ctx, s, pk); err != nil {
		c.closeSession(s, err)
		return err
	}

	timer := time.NewTimer(seconds(c.Options.ConnectTimeout))
	defer timer.Stop()

	var first packets.Packet
	select {
	case first = <-s.firstc:
	case <-s.done:
		return s.cause()
	case <-timer.C:
		c.closeSession(s, ErrConnackTimeout)
		return ErrConnackTimeout
	case <-ctx.Done():
		c.closeSession(s, ctx.Err())
		return ctx.Err()
	}

	ack, ok := first.(*packets.ConnackPacket)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnexpectedPacket, first.Header().Type)
		c.closeSession(s, err)
		return err
	}

	if !ack.Accepted() {
		err := ack.Err()
		c.closeSession(s, err)
		return err
	}

	s.connected.Store(true)
	atomic.StoreInt64(&c.info.Started, time.Now().Unix())
	atomic.AddInt64(&c.info.Connects, 1)

	c.Log.Info("client connected",
		"client", c.ID,
		"transport", c.dialer.ID(),
		"address", c.dialer.Address(),
		"session_present", ack.SessionPresent())

	c.hooks.OnConnected(c, ack)

	if c.Options.Keepalive > 0 {
		go c.keepalive(s)
	}

	return nil
}

// Ping sends a PINGREQ and waits for the PINGRESP.
func (c *Client) Ping(ctx context.Context) error {
	s, err := c.active()
	if err != nil {
		return err
	}

	return c.ping(ctx, s)
}

// ping sends a PINGREQ on a session and waits for the PINGRESP.
func (c *Client) ping(ctx context.Context, s *session) error {
	c.pingMu.Lock()
	defer c.pingMu.Unlock()

	select {
	case <-s.pingrespc: // a late response to an abandoned ping
	default:
	}

	if err := c.send(ctx, s, packets.NewPingreq()); err != nil {
		return err
	}

	atomic.AddInt64(&c.info.PingsSent, 1)

	select {
	case <-s.pingrespc:
		return nil
	case <-s.done:
		return s.cause()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// keepalive pings the broker every keepalive interval until the session ends. A ping
// which fails or is not answered within the interval ends the connection.
func (c *Client) keepalive(s *session) {
	interval := seconds(c.Options.Keepalive)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			err := c.ping(ctx, s)
			cancel()
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = ErrPingTimeout
				}
				c.closeSession(s, fmt.Errorf("%w: %w", ErrConnectionLost, err))
				return
			}
		}
	}
}

// Publish sends a message to the broker. QoS 1 and 2 messages are given a packet id,
// and are not retried.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error {
	s, err := c.active()
	if err != nil {
		return err
	}

	b := packets.NewPublishBuilder(topic).
		Payload(payload).
		Qos(qos).
		Retain(retain)
	if qos > packets.AtMostOnce {
		b = b.PacketID(c.nextPacketID())
	}

	pk, err := b.Build()
	if err != nil {
		return err
	}

	pk, err = c.hooks.OnPublish(c, pk)
	if errors.Is(err, ErrRejectPacket) {
		return nil
	} else if err != nil {
		return err
	}

	if err := c.send(ctx, s, pk); err != nil {
		return err
	}

	atomic.AddInt64(&c.info.MessagesSent, 1)
	c.hooks.OnPublished(c, pk)

	return nil
}

// Subscribe subscribes to one or more topic filters and waits for the SUBACK. Messages
// matching the filters are passed to handler, or to Options.OnMessage if handler is nil.
// If the broker refuses any filter, the suback is returned with packets.ErrSubscribeFailed.
func (c *Client) Subscribe(ctx context.Context, handler Handler, filters ...packets.TopicFilter) (*packets.SubackPacket, error) {
	s, err := c.active()
	if err != nil {
		return nil, err
	}

	b := packets.NewSubscribeBuilder().PacketID(c.nextPacketID())
	for _, f := range filters {
		b = b.Filter(f.Filter, f.Qos)
	}

	pk, err := b.Build()
	if err != nil {
		return nil, err
	}

	// routes are added first so retained messages which follow the suback are delivered.
	prev := make([]previousRoute, len(pk.Filters))
	for i, f := range pk.Filters {
		h, ok := c.router.Add(f.Filter, handler)
		prev[i] = previousRoute{filter: f.Filter, handler: h, existed: ok}
	}

	res, err := c.await(ctx, s, pk, pk.PacketID)
	if err != nil {
		c.restoreRoutes(prev)
		return nil, err
	}

	ack, ok := res.(*packets.SubackPacket)
	if !ok || len(ack.ReturnCodes) != len(pk.Filters) {
		c.restoreRoutes(prev)
		return nil, ErrSubackMismatch
	}

	var refused []previousRoute
	for i := range pk.Filters {
		if ack.ReturnCodes[i] == packets.ErrSubscribeFailed.Code {
			refused = append(refused, prev[i])
		}
	}
	c.restoreRoutes(refused)

	atomic.StoreInt64(&c.info.Subscriptions, int64(c.router.Len()))
	c.hooks.OnSubscribed(c, pk, ack.ReturnCodes)

	if len(refused) > 0 {
		return ack, packets.ErrSubscribeFailed
	}

	return ack, nil
}

// previousRoute is the routing of a filter before a subscribe replaced it.
type previousRoute struct {
	filter  string
	handler Handler
	existed bool
}

// restoreRoutes puts back the routes replaced by a subscribe which did not take effect.
// Routes are restored last to first so a filter repeated in one request ends as it began.
func (c *Client) restoreRoutes(routes []previousRoute) {
	for i := len(routes) - 1; i >= 0; i-- {
		r := routes[i]
		if r.existed {
			c.router.Add(r.filter, r.handler)
			continue
		}
		c.router.Remove(r.filter)
	}
}

// Unsubscribe unsubscribes from one or more topic filters and waits for the UNSUBACK.
func (c *Client) Unsubscribe(ctx context.Context, filters ...string) error {
	s, err := c.active()
	if err != nil {
		return err
	}

	b := packets.NewUnsubscribeBuilder().PacketID(c.nextPacketID())
	for _, f := range filters {
		b = b.Filter(f)
	}

	pk, err := b.Build()
	if err != nil {
		return err
	}

	res, err := c.await(ctx, s, pk, pk.PacketID)
	if err != nil {
		return err
	}

	if _, ok := res.(*packets.UnsubackPacket); !ok {
		return fmt.Errorf("%w: %s", ErrUnexpectedPacket, res.Header().Type)
	}

	for _, f := range pk.Filters {
		c.router.Remove(f)
	}

	atomic.StoreInt64(&c.info.Subscriptions, int64(c.router.Len()))
	c.hooks.OnUnsubscribed(c, pk)

	return nil
}

// await sends a packet and waits for the acknowledgement carrying the same packet id.
func (c *Client) await(ctx context.Context, s *session, pk packets.Packet, id uint16) (packets.Packet, error) {
	ch := s.wait(id)
	defer s.forget(id)

	if err := c.send(ctx, s, pk); err != nil {
		return nil, err
	}

	select {
	case res := <-ch:
		return res, nil
	case <-s.done:
		return nil, s.cause()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Disconnect sends DISCONNECT and closes the connection. The will message is discarded
// by the broker [MQTT-3.14.4-3].
func (c *Client) Disconnect(ctx context.Context) error {
	s, err := c.active()
	if err != nil {
		return err
	}

	s.leaving.Store(true)
	err = c.send(ctx, s, packets.NewDisconnect())
	c.closeSession(s, nil)
	return err
}

// Close disconnects the client if it is connected and stops all hooks.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if _, aerr := c.active(); aerr == nil {
			ctx, cancel := context.WithTimeout(context.Background(), seconds(c.Options.ConnectTimeout))
			err = c.Disconnect(ctx)
			cancel()
		}

		c.hooks.Stop()
	})

	return err
}

// Done returns a channel which is closed when the current connection ends.
func (c *Client) Done() <-chan struct{} {
	c.RLock()
	defer c.RUnlock()
	if c.session == nil {
		return closedChan
	}

	return c.session.done
}

// Err returns the reason the last connection ended, or nil if it is still open or
// was closed with Disconnect.
func (c *Client) Err() error {
	c.RLock()
	s := c.session
	c.RUnlock()

	if s == nil || !s.closed() {
		return nil
	}

	return s.err
}

// Info returns a snapshot of the client statistics.
func (c *Client) Info() *system.Info {
	return c.info.Clone()
}

// RegisterMetrics exposes the client statistics on a prometheus registry.
func (c *Client) RegisterMetrics(registry prometheus.Registerer) error {
	return c.info.RegisterPrometheusMetrics(registry)
}

// StoredMessages returns the messages journaled by any storage hooks.
func (c *Client) StoredMessages() ([]storage.Message, error) {
	return c.hooks.StoredMessages()
}

// nextPacketID returns the next packet id, skipping zero [MQTT-2.3.1-1].
func (c *Client) nextPacketID() uint16 {
	for {
		if id := uint16(atomic.AddUint32(&c.packetID, 1)); id != 0 {
			return id
		}
	}
}

// seconds converts a number of seconds to a duration.
func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
