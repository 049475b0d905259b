// rdns.toys - DNS server that answers queries with synthesized toy answers
package main

import (
	"net"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"

	"github.com/devharshthakur/rdns.toys/toys"
)

// newDNSHandler glues the wire protocol to the registry: one dispatch per
// question, NXDOMAIN when nothing answers. Per-query failures never
// escape; a malformed name is just a name nobody handles.
func newDNSHandler(registry *toys.Registry) dns.HandlerFunc {
	return func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		m.Authoritative = true

		client := clientIP(w.RemoteAddr())

		answered := false
		for _, q := range r.Question {
			rrs, ok := registry.Dispatch(q.Name, q.Qtype, client)
			if !ok {
				continue
			}
			answered = true
			m.Answer = append(m.Answer, rrs...)
		}

		if !answered {
			m.Rcode = dns.RcodeNameError
		}

		if err := w.WriteMsg(m); err != nil {
			logrus.WithError(err).Warn("Failed to write DNS response")
		}
	}
}

func clientIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.UDPAddr:
		return a.IP
	case *net.TCPAddr:
		return a.IP
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

// startDNSServers serves the handler over UDP and TCP on the same
// address. Both servers run until shut down; a bind failure is fatal.
func startDNSServers(addr string, handler dns.Handler) []*dns.Server {
	servers := []*dns.Server{
		{Addr: addr, Net: "udp", Handler: handler},
		{Addr: addr, Net: "tcp", Handler: handler},
	}

	for _, srv := range servers {
		go func(srv *dns.Server) {
			logrus.WithFields(logrus.Fields{
				"addr": srv.Addr,
				"net":  srv.Net,
			}).Info("DNS server listening")
			if err := srv.ListenAndServe(); err != nil {
				logrus.WithError(err).Fatalf("DNS server (%s) failed", srv.Net)
			}
		}(srv)
	}

	return servers
}
