package futu

import (
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"
)

type handler func(c2s json.RawMessage) response

type captured struct {
	protoID uint32
	c2s     json.RawMessage
}

// fakeOpenD answers OpenD frames from an in-process listener.
type fakeOpenD struct {
	t        *testing.T
	ln       net.Listener
	wg       sync.WaitGroup
	mu       sync.Mutex
	handlers map[uint32]handler
	silent   map[uint32]bool
	requests []captured
	pushes   bool
}

func newFakeOpenD(t *testing.T) *fakeOpenD {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	f := &fakeOpenD{
		t:        t,
		ln:       ln,
		handlers: make(map[uint32]handler),
		silent:   make(map[uint32]bool),
	}
	f.handle(protoInitConnect, func(json.RawMessage) response {
		return ok(`{"serverVer":900,"loginUserID":"12345","connID":"7001","keepAliveInterval":10}`)
	})

	f.wg.Add(1)
	go f.accept()
	t.Cleanup(func() {
		ln.Close()
		f.wg.Wait()
	})
	return f
}

func ok(s2c string) response {
	return response{RetType: 0, S2C: json.RawMessage(s2c)}
}

func fail(msg string) response {
	return response{RetType: -1, RetMsg: msg, ErrCode: 10}
}

func (f *fakeOpenD) handle(protoID uint32, h handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[protoID] = h
}

// mute stops replies to protoID so callers hit their deadline.
func (f *fakeOpenD) mute(protoID uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silent[protoID] = true
}

// interleavePushes sends an unsolicited push before every reply.
func (f *fakeOpenD) interleavePushes() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = true
}

func (f *fakeOpenD) config() Config {
	return Config{
		Host:    "127.0.0.1",
		Port:    f.ln.Addr().(*net.TCPAddr).Port,
		Timeout: 2 * time.Second,
	}
}

func (f *fakeOpenD) requestsFor(protoID uint32) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []json.RawMessage
	for _, r := range f.requests {
		if r.protoID == protoID {
			out = append(out, r.c2s)
		}
	}
	return out
}

func (f *fakeOpenD) accept() {
	defer f.wg.Done()
	for {
		c, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.wg.Add(1)
		go f.serve(c)
	}
}

func (f *fakeOpenD) serve(c net.Conn) {
	defer f.wg.Done()
	defer c.Close()

	for {
		in, err := readFrame(c)
		if err != nil {
			return
		}

		var req struct {
			C2S json.RawMessage `json:"c2s"`
		}
		json.Unmarshal(in.body, &req)

		f.mu.Lock()
		f.requests = append(f.requests, captured{protoID: in.protoID, c2s: req.C2S})
		h := f.handlers[in.protoID]
		silent := f.silent[in.protoID]
		pushes := f.pushes
		f.mu.Unlock()

		if silent {
			continue
		}
		if pushes {
			writeFrame(c, frame{protoID: 3005, serialNo: 0, body: []byte(`{"retType":0,"s2c":{}}`)})
		}

		resp := fail("unknown protocol")
		if h != nil {
			resp = h(req.C2S)
		}
		body, _ := json.Marshal(resp)
		if err := writeFrame(c, frame{protoID: in.protoID, serialNo: in.serialNo, body: body}); err != nil {
			return
		}
	}
}
