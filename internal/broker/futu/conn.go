package futu

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/newthinker/klineprompt/internal/broker"
	"go.uber.org/zap"
)

const clientVer = 100

// conn is one OpenD TCP connection. Calls are serialized; push packets that
// arrive between replies are discarded.
type conn struct {
	mu      sync.Mutex
	nc      net.Conn
	serial  uint32
	timeout time.Duration

	connID    int64
	serverVer int32
}

func dial(ctx context.Context, cfg Config) (*conn, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", cfg.Addr())
	if err != nil {
		return nil, err
	}

	c := &conn{nc: nc, timeout: cfg.Timeout}
	var s2c initConnectS2C
	reply, err := c.call(ctx, protoInitConnect, initConnectC2S{
		ClientVer:           clientVer,
		ClientID:            cfg.ClientID,
		RecvNotify:          false,
		PacketEncAlgo:       -1,
		PushProtoFmt:        int32(fmtJSON),
		ProgrammingLanguage: "Go",
	}, &s2c)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("init connect: %w", err)
	}
	if reply.Ret != broker.RetOK {
		nc.Close()
		return nil, fmt.Errorf("init connect rejected: %s", reply.Msg)
	}

	c.connID = int64(s2c.ConnID)
	c.serverVer = s2c.ServerVer
	if cfg.Logger != nil {
		cfg.Logger.Debug("opend connected",
			zap.String("addr", cfg.Addr()),
			zap.Int64("conn_id", c.connID),
			zap.Int32("server_ver", c.serverVer),
			zap.Int32("keep_alive_s", s2c.KeepAliveInterval))
	}
	return c, nil
}

// call sends c2s under protoID and decodes the reply's s2c into out. The
// returned error is reserved for transport failures; a non-zero retType is
// reported through the reply.
func (c *conn) call(ctx context.Context, protoID uint32, c2s any, out any) (broker.Reply[struct{}], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := json.Marshal(request{C2S: c2s})
	if err != nil {
		return broker.Reply[struct{}]{}, fmt.Errorf("encoding request %d: %w", protoID, err)
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.nc.SetDeadline(deadline); err != nil {
		return broker.Reply[struct{}]{}, err
	}
	stop := context.AfterFunc(ctx, func() {
		c.nc.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	c.serial++
	serial := c.serial
	if err := writeFrame(c.nc, frame{protoID: protoID, serialNo: serial, body: body}); err != nil {
		return broker.Reply[struct{}]{}, c.wrap(ctx, err)
	}

	for {
		f, err := readFrame(c.nc)
		if err != nil {
			return broker.Reply[struct{}]{}, c.wrap(ctx, err)
		}
		if f.protoID != protoID || f.serialNo != serial {
			continue
		}

		var resp response
		if err := json.Unmarshal(f.body, &resp); err != nil {
			return broker.Reply[struct{}]{}, fmt.Errorf("decoding reply %d: %w", protoID, err)
		}
		if resp.RetType != 0 {
			msg := resp.RetMsg
			if msg == "" {
				msg = fmt.Sprintf("retType=%d errCode=%d", resp.RetType, resp.ErrCode)
			}
			return broker.Fail[struct{}](msg), nil
		}
		if out != nil && len(resp.S2C) > 0 {
			if err := json.Unmarshal(resp.S2C, out); err != nil {
				return broker.Reply[struct{}]{}, fmt.Errorf("decoding reply %d payload: %w", protoID, err)
			}
		}
		return broker.OK(struct{}{}), nil
	}
}

func (c *conn) wrap(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (c *conn) close() error {
	return c.nc.Close()
}
