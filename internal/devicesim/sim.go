// Package devicesim runs a scripted Glow device on a loopback UDP socket.
// Tests point the exchange engine or the discovery collector at the
// simulator's address and script its replies, including silence, garbage,
// duplicates, and staggered delivery.
package devicesim

import (
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// Request is one datagram the simulator received. Method and Params are
// best-effort parsed; Raw always holds the exact payload.
type Request struct {
	Method string
	Params map[string]any
	Raw    []byte
	Source net.Addr
}

// Response is one datagram to send back. Delay defers delivery, which lets
// a script stagger replies across a discovery window or answer after the
// caller's attempt window has expired.
type Response struct {
	Data  []byte
	Delay time.Duration
}

// Responder scripts a device: it receives each request and returns the
// datagrams to send back. Returning nothing keeps the device silent.
type Responder func(req Request) []Response

// Sim is a fake device bound to an ephemeral loopback port.
type Sim struct {
	conn    net.PacketConn
	respond Responder
	served  atomic.Int64

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts a simulator. respond may be nil for a device that never
// answers.
func New(respond Responder) (*Sim, error) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Sim{conn: conn, respond: respond}
	s.wg.Add(1)
	go s.loop()
	return s, nil
}

// Addr returns the simulator's UDP address.
func (s *Sim) Addr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Host returns the simulator's IP as a string.
func (s *Sim) Host() string {
	return s.Addr().IP.String()
}

// Port returns the simulator's bound port.
func (s *Sim) Port() int {
	return s.Addr().Port
}

// Requests returns how many datagrams the simulator has received.
func (s *Sim) Requests() int {
	return int(s.served.Load())
}

// Close shuts the simulator down. Pending delayed responses are abandoned.
func (s *Sim) Close() {
	s.closeOnce.Do(func() {
		s.conn.SetReadDeadline(time.Now())
		s.conn.Close()
	})
	s.wg.Wait()
}

func (s *Sim) loop() {
	defer s.wg.Done()

	buf := make([]byte, 2048)
	for {
		n, src, err := s.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		s.served.Add(1)

		raw := make([]byte, n)
		copy(raw, buf[:n])

		req := Request{Raw: raw, Source: src}
		var parsed struct {
			Method string         `json:"method"`
			Params map[string]any `json:"params"`
		}
		if err := json.Unmarshal(raw, &parsed); err == nil {
			req.Method = parsed.Method
			req.Params = parsed.Params
		}

		if s.respond == nil {
			continue
		}
		for _, resp := range s.respond(req) {
			data := resp.Data
			if resp.Delay > 0 {
				time.AfterFunc(resp.Delay, func() {
					s.conn.WriteTo(data, src)
				})
				continue
			}
			s.conn.WriteTo(data, src)
		}
	}
}

// ReplyJSON scripts a single immediate response.
func ReplyJSON(payload string) []Response {
	return []Response{{Data: []byte(payload)}}
}

// Silence is a Responder that never answers.
func Silence(Request) []Response {
	return nil
}

// EchoResult answers every request by echoing its params back as the
// result object.
func EchoResult() Responder {
	return func(req Request) []Response {
		result, err := json.Marshal(req.Params)
		if err != nil || req.Params == nil {
			result = []byte("{}")
		}
		return ReplyJSON(fmt.Sprintf(`{"method":%q,"result":%s}`, req.Method, result))
	}
}

// Registration answers registration broadcasts with the given identity and
// ignores everything else.
func Registration(mac, moduleName string) Responder {
	return func(req Request) []Response {
		if req.Method != "registration" {
			return nil
		}
		return ReplyJSON(fmt.Sprintf(`{"method":"registration","result":{"mac":%q,"moduleName":%q}}`, mac, moduleName))
	}
}
