// Package codec implements the bit-exact request/response wire format
// from spec.md §4.6: a 4-byte length-prefixed frame, request payload
// is argc plus length-prefixed argument strings, response payload is
// a tagged sequence of values.
//
// The tag set and error codes are carried over unchanged from
// _examples/original_source/server_data.h (T_STR/T_ZSET and
// ERR_UNKNOWN/ERR_2BIG/ERR_TYPE/ERR_ARG) and server_out.h's out_nil/
// out_str/out_int/out_dbl/out_err/out_arr signatures; this package
// just gives each of those out_* calls a concrete little-endian
// encoding, since the reference out_out.cpp body wasn't part of the
// retrieval. encoding/binary is used in place of a generic marshaler
// because the format is a literal byte-for-byte spec that no
// serialization library (protobuf, msgpack, gob) can reproduce
// without fighting the library for control over every byte.
package codec

import (
	"encoding/binary"
	"errors"
	"math"
)

// Value tags, per spec.md §4.6.
const (
	TagNil = 0
	TagErr = 1
	TagStr = 2
	TagInt = 3
	TagDbl = 4
	TagArr = 5
)

// Error codes, carried over from server_data.h's ERR_* enum.
const (
	ErrUnknown = 1
	Err2Big    = 2
	ErrType    = 3
	ErrArg     = 4
)

// DefaultMaxFrameBytes is spec.md §4.6's k_max_msg; callers needing a
// different limit pass it explicitly to CheckFrameLen/Writer.Frame rather
// than relying on a package constant (see SPEC_FULL.md's Open
// Question decision: the limit is a runtime EngineConfig value).
const DefaultMaxFrameBytes = 4096

// LenPrefixSize is the size of the frame's leading length field.
const LenPrefixSize = 4

var (
	// ErrFrameTooLarge means the declared frame length exceeds the
	// caller's maxFrameBytes; the connection must be closed.
	ErrFrameTooLarge = errors.New("codec: frame exceeds max size")
	// ErrMalformedFrame covers anything else wrong with a request
	// frame: a bad argc, an argument length running past the frame
	// end, or trailing bytes left over once argc arguments are read.
	ErrMalformedFrame = errors.New("codec: malformed request frame")
)

const maxArgc = 1024

// CheckFrameLen validates a frame's declared payload length against
// maxFrameBytes before the reactor bothers buffering that many bytes
// off the wire. Per spec.md §4.6, too-long frames terminate the
// connection rather than producing an Err response.
func CheckFrameLen(l uint32, maxFrameBytes int) error {
	if l > uint32(maxFrameBytes) {
		return ErrFrameTooLarge
	}
	return nil
}

// DecodeRequest parses one request frame's payload (the bytes after
// the leading 4-byte length prefix has already been stripped by the
// caller) into its argument vector.
func DecodeRequest(payload []byte) ([][]byte, error) {
	if len(payload) < 4 {
		return nil, ErrMalformedFrame
	}
	argc := binary.LittleEndian.Uint32(payload[0:4])
	if argc > maxArgc {
		return nil, ErrMalformedFrame
	}
	pos := 4
	argv := make([][]byte, 0, argc)
	for i := uint32(0); i < argc; i++ {
		if pos+4 > len(payload) {
			return nil, ErrMalformedFrame
		}
		n := binary.LittleEndian.Uint32(payload[pos : pos+4])
		pos += 4
		if uint64(pos)+uint64(n) > uint64(len(payload)) {
			return nil, ErrMalformedFrame
		}
		argv = append(argv, payload[pos:pos+int(n)])
		pos += int(n)
	}
	if pos != len(payload) {
		return nil, ErrMalformedFrame
	}
	return argv, nil
}

// EncodeRequest is the request-side counterpart of DecodeRequest,
// mainly useful to tests and to a future client. It returns a
// complete frame including the leading length prefix.
func EncodeRequest(argv [][]byte) []byte {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(len(argv)))
	for _, a := range argv {
		lenBuf := make([]byte, 4)
		binary.LittleEndian.PutUint32(lenBuf, uint32(len(a)))
		payload = append(payload, lenBuf...)
		payload = append(payload, a...)
	}
	return frame(payload)
}

func frame(payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)
	return out
}

// Writer builds one tagged response payload. The zero value is ready
// to use.
type Writer struct {
	buf []byte
}

// Bytes returns the payload built so far (without the frame's length
// prefix — callers call Frame when the response is final).
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Nil appends a Nil value.
func (w *Writer) Nil() {
	w.buf = append(w.buf, TagNil)
}

// Str appends a Str value.
func (w *Writer) Str(s string) {
	w.buf = append(w.buf, TagStr)
	w.putUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Int appends an Int value.
func (w *Writer) Int(v int64) {
	w.buf = append(w.buf, TagInt)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

// Dbl appends a Dbl value.
func (w *Writer) Dbl(v float64) {
	w.buf = append(w.buf, TagDbl)
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.buf = append(w.buf, b[:]...)
}

// Err appends an Err value.
func (w *Writer) Err(code int32, msg string) {
	w.buf = append(w.buf, TagErr)
	var c [4]byte
	binary.LittleEndian.PutUint32(c[:], uint32(code))
	w.buf = append(w.buf, c[:]...)
	w.putUint32(uint32(len(msg)))
	w.buf = append(w.buf, msg...)
}

// BeginArr appends an Arr tag with a placeholder count and returns a
// token identifying where to patch the real count once all of the
// array's children have been written via EndArr.
func (w *Writer) BeginArr() int {
	w.buf = append(w.buf, TagArr)
	pos := len(w.buf)
	w.putUint32(0)
	return pos
}

// EndArr patches the count placeholder returned by BeginArr with n,
// the number of elements actually written since.
func (w *Writer) EndArr(token int, n uint32) {
	binary.LittleEndian.PutUint32(w.buf[token:token+4], n)
}

func (w *Writer) putUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// Frame wraps the writer's built payload (or, if it overflows
// maxFrameBytes−4, a single Err(Err2Big) response) in the 4-byte
// length-prefixed response frame.
func (w *Writer) Frame(maxFrameBytes int) []byte {
	if len(w.buf) > maxFrameBytes-LenPrefixSize {
		var overflow Writer
		overflow.Err(Err2Big, "response is too big")
		return frame(overflow.buf)
	}
	return frame(w.buf)
}

// Value is one decoded tagged response element. Only the field
// matching Tag is meaningful; Arr holds the decoded children of an
// Arr value.
type Value struct {
	Tag     byte
	Str     string
	Int     int64
	Dbl     float64
	ErrCode int32
	ErrMsg  string
	Arr     []Value
}

// DecodeValues parses a full response payload (the bytes after the
// frame's length prefix) into its top-level tagged values.
func DecodeValues(payload []byte) ([]Value, error) {
	pos := 0
	var out []Value
	for pos < len(payload) {
		v, next, err := decodeValue(payload, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		pos = next
	}
	return out, nil
}

func decodeValue(b []byte, pos int) (Value, int, error) {
	if pos >= len(b) {
		return Value{}, 0, ErrMalformedFrame
	}
	tag := b[pos]
	pos++
	switch tag {
	case TagNil:
		return Value{Tag: tag}, pos, nil
	case TagStr:
		s, next, err := decodeLenPrefixed(b, pos)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Tag: tag, Str: s}, next, nil
	case TagInt:
		if pos+8 > len(b) {
			return Value{}, 0, ErrMalformedFrame
		}
		v := int64(binary.LittleEndian.Uint64(b[pos : pos+8]))
		return Value{Tag: tag, Int: v}, pos + 8, nil
	case TagDbl:
		if pos+8 > len(b) {
			return Value{}, 0, ErrMalformedFrame
		}
		v := math.Float64frombits(binary.LittleEndian.Uint64(b[pos : pos+8]))
		return Value{Tag: tag, Dbl: v}, pos + 8, nil
	case TagErr:
		if pos+4 > len(b) {
			return Value{}, 0, ErrMalformedFrame
		}
		code := int32(binary.LittleEndian.Uint32(b[pos : pos+4]))
		msg, next, err := decodeLenPrefixed(b, pos+4)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Tag: tag, ErrCode: code, ErrMsg: msg}, next, nil
	case TagArr:
		if pos+4 > len(b) {
			return Value{}, 0, ErrMalformedFrame
		}
		n := binary.LittleEndian.Uint32(b[pos : pos+4])
		pos += 4
		children := make([]Value, 0, n)
		for i := uint32(0); i < n; i++ {
			var child Value
			var err error
			child, pos, err = decodeValue(b, pos)
			if err != nil {
				return Value{}, 0, err
			}
			children = append(children, child)
		}
		return Value{Tag: tag, Arr: children}, pos, nil
	default:
		return Value{}, 0, ErrMalformedFrame
	}
}

func decodeLenPrefixed(b []byte, pos int) (string, int, error) {
	if pos+4 > len(b) {
		return "", 0, ErrMalformedFrame
	}
	n := binary.LittleEndian.Uint32(b[pos : pos+4])
	pos += 4
	if uint64(pos)+uint64(n) > uint64(len(b)) {
		return "", 0, ErrMalformedFrame
	}
	return string(b[pos : pos+int(n)]), pos + int(n), nil
}
