package futu

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	headerLen = 44

	// fmtJSON selects JSON bodies instead of protobuf.
	fmtJSON uint8 = 1

	// Bodies larger than this are rejected as corrupt.
	maxBodyLen = 64 << 20
)

var headerFlag = [2]byte{'F', 'T'}

// header is the fixed OpenD packet header. All integers are little-endian.
type header struct {
	Flag     [2]byte
	ProtoID  uint32
	ProtoFmt uint8
	ProtoVer uint8
	SerialNo uint32
	BodyLen  uint32
	BodySHA1 [20]byte
	Reserved [8]byte
}

type frame struct {
	protoID  uint32
	serialNo uint32
	body     []byte
}

func writeFrame(w io.Writer, f frame) error {
	h := header{
		Flag:     headerFlag,
		ProtoID:  f.protoID,
		ProtoFmt: fmtJSON,
		SerialNo: f.serialNo,
		BodyLen:  uint32(len(f.body)),
		BodySHA1: sha1.Sum(f.body),
	}

	var buf bytes.Buffer
	buf.Grow(headerLen + len(f.body))
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	buf.Write(f.body)

	_, err := w.Write(buf.Bytes())
	return err
}

func readFrame(r io.Reader) (frame, error) {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return frame{}, err
	}
	if h.Flag != headerFlag {
		return frame{}, errors.New("bad packet header flag")
	}
	if h.BodyLen > maxBodyLen {
		return frame{}, fmt.Errorf("packet body too large: %d bytes", h.BodyLen)
	}

	body := make([]byte, h.BodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return frame{}, err
	}
	if sha1.Sum(body) != h.BodySHA1 {
		return frame{}, fmt.Errorf("packet %d body checksum mismatch", h.SerialNo)
	}
	return frame{protoID: h.ProtoID, serialNo: h.SerialNo, body: body}, nil
}
