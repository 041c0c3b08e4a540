/*
Copyright 2026 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package query drives the single external operation the library exposes
// over the wire: dial a netlink socket bound to the netfilter bus, send a
// DUMP request, and decode the kernel's reply stream back into domain
// objects (design component I). Nothing in this package mutates nftables
// state; ADD/DEL requests are plain byte buffers produced by package
// batch, and Conn has no method that sends them: the caller sends them
// over a netlink socket of its own.
package query

import (
	"fmt"
	"time"

	"github.com/mdlayher/netlink"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	"github.com/google/nftlink/metrics"
	"github.com/google/nftlink/nlerr"
)

// maxMsgSize bounds a single netlink message the kernel is expected to
// send. The receive loop does not reference it: replies are read with
// mdlayher/netlink's Conn.Receive, and this package keeps no receive
// buffer of its own and does no buffer compaction.
const maxMsgSize = 1 << 16

type config struct {
	netNSPath string
	timeout   time.Duration
	metrics   *metrics.Metrics
}

// Option configures Dial.
type Option func(*config)

// WithNetNS dials the socket inside the network namespace at path instead
// of the caller's current namespace, for querying nf_tables state inside a
// container or a pod's network namespace by path.
func WithNetNS(path string) Option {
	return func(c *config) { c.netNSPath = path }
}

// WithTimeout bounds how long a single query call may block on socket I/O.
// Zero (the default) means no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithMetrics attaches m's counters/histogram to every operation run over
// the resulting Conn. A nil Metrics (the default) disables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// Conn is a netlink socket dialed against AF_NETLINK/NETLINK_NETFILTER,
// good for one query: every query method closes the socket before it
// returns.
type Conn struct {
	nlconn  *netlink.Conn
	timeout time.Duration
	metrics *metrics.Metrics
}

// Dial opens a netlink socket bound to the netfilter bus.
func Dial(opts ...Option) (*Conn, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	var nlcfg netlink.Config
	if cfg.netNSPath != "" {
		ns, err := netns.GetFromPath(cfg.netNSPath)
		if err != nil {
			return nil, fmt.Errorf("%w: resolving netns %q: %v", nlerr.ErrSocketOpen, cfg.netNSPath, err)
		}
		defer ns.Close()
		nlcfg.NetNS = int(ns)
	}

	conn, err := netlink.Dial(unix.NETLINK_NETFILTER, &nlcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nlerr.ErrSocketOpen, err)
	}
	klog.V(2).Infof("query: dialed netlink netfilter socket, netns=%q", cfg.netNSPath)

	return &Conn{nlconn: conn, timeout: cfg.timeout, metrics: cfg.metrics}, nil
}

// Close releases the socket. The query methods call it themselves before
// returning; a Conn on which no query is run is closed by its caller.
func (c *Conn) Close() error {
	if err := c.nlconn.Close(); err != nil {
		return fmt.Errorf("%w: %v", nlerr.ErrSocketClose, err)
	}
	return nil
}

func (c *Conn) deadline() time.Time {
	if c.timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(c.timeout)
}
