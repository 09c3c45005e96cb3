package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/battlelog/types"
)

// encodeFrame encodes a payload with length prefix.
func encodeFrame(payload []byte) []byte {
	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	return buf
}

// encodeMapFrame frames an arbitrary msgpack map, for payloads EncodeBatch
// would never produce.
func encodeMapFrame(t *testing.T, m map[string]any) []byte {
	t.Helper()
	payload, err := msgpack.Marshal(m)
	if err != nil {
		t.Fatalf("msgpack.Marshal failed: %v", err)
	}
	return encodeFrame(payload)
}

func TestEncodeBatch_RoundTrip(t *testing.T) {
	batches := []types.Batch{
		{Kind: types.BatchResume, Lines: []string{"newest", "older", "oldest"}},
		{Kind: types.BatchLines, Lines: []string{"You gain 10 EXP!"}},
		{Kind: types.BatchReload},
		{Kind: types.BatchTeardown},
		{Kind: types.BatchPause},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, b := range batches {
		if err := w.Write(b); err != nil {
			t.Fatalf("Write(%s) failed: %v", b.Kind, err)
		}
	}

	decoder := NewFrameDecoder(&buf)
	for i, want := range batches {
		payload, err := decoder.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame %d failed: %v", i, err)
		}
		got, err := DecodeBatch(payload)
		if err != nil {
			t.Fatalf("DecodeBatch %d failed: %v", i, err)
		}
		if got.Kind != want.Kind {
			t.Errorf("batch %d Kind = %q, want %q", i, got.Kind, want.Kind)
		}
		if !slices.Equal(got.Lines, want.Lines) {
			t.Errorf("batch %d Lines = %v, want %v", i, got.Lines, want.Lines)
		}
	}

	if _, err := decoder.ReadFrame(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got: %v", err)
	}
}

func TestDecodeBatch_WireShape(t *testing.T) {
	frame := encodeMapFrame(t, map[string]any{
		"type":  "lines",
		"lines": []string{"a", "b"},
	})

	payload, err := NewFrameDecoder(bytes.NewReader(frame)).ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	batch, err := DecodeBatch(payload)
	if err != nil {
		t.Fatalf("DecodeBatch failed: %v", err)
	}
	if batch.Kind != types.BatchLines || !slices.Equal(batch.Lines, []string{"a", "b"}) {
		t.Errorf("DecodeBatch = %+v", batch)
	}
}

func TestDecodeBatch_UnknownKind(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]any
	}{
		{"unknown type", map[string]any{"type": "explode"}},
		{"missing type", map[string]any{"lines": []string{"x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := encodeMapFrame(t, tt.m)
			_, err := DecodeBatch(frame[LengthPrefixSize:])

			var frameErr *FrameError
			if !errors.As(err, &frameErr) {
				t.Fatalf("expected *FrameError, got %T (%v)", err, err)
			}
			if frameErr.Kind != FrameErrorDecode {
				t.Errorf("Kind = %v, want FrameErrorDecode", frameErr.Kind)
			}
			if IsFatalFrameError(err) {
				t.Error("unknown kind should not be fatal")
			}
		})
	}
}

func TestFrameDecoder_PartialFrame(t *testing.T) {
	frame, err := EncodeBatch(types.Batch{Kind: types.BatchLines, Lines: []string{"Ogre has been defeated."}})
	if err != nil {
		t.Fatalf("EncodeBatch failed: %v", err)
	}

	// Keep only length prefix + half payload
	truncated := frame[:LengthPrefixSize+len(frame[LengthPrefixSize:])/2]

	_, err = NewFrameDecoder(bytes.NewReader(truncated)).ReadFrame()
	if err == nil {
		t.Fatal("expected error for truncated frame")
	}
	if !IsFatalFrameError(err) {
		t.Errorf("expected fatal frame error, got: %v", err)
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}
	if frameErr.Kind != FrameErrorPartial {
		t.Errorf("Kind = %v, want FrameErrorPartial", frameErr.Kind)
	}
}

func TestFrameDecoder_OversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(MaxPayloadSize+1))

	_, err := NewFrameDecoder(&buf).ReadFrame()
	if err == nil {
		t.Fatal("expected error for oversized frame")
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}
	if frameErr.Kind != FrameErrorTooLarge {
		t.Errorf("Kind = %v, want FrameErrorTooLarge", frameErr.Kind)
	}
	if !frameErr.IsFatal() {
		t.Error("FrameErrorTooLarge.IsFatal() should return true")
	}
}

func TestEncodeBatch_Oversized(t *testing.T) {
	huge := strings.Repeat("x", MaxPayloadSize)
	_, err := EncodeBatch(types.Batch{Kind: types.BatchLines, Lines: []string{huge}})

	var frameErr *FrameError
	if !errors.As(err, &frameErr) || frameErr.Kind != FrameErrorTooLarge {
		t.Errorf("EncodeBatch(oversized) error = %v, want FrameErrorTooLarge", err)
	}
}

func TestFrameDecoder_EmptyStream(t *testing.T) {
	_, err := NewFrameDecoder(bytes.NewReader(nil)).ReadFrame()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got: %v", err)
	}
}

func TestFrameDecoder_TruncatedLengthPrefix(t *testing.T) {
	_, err := NewFrameDecoder(bytes.NewReader([]byte{0x00, 0x00})).ReadFrame()
	if !IsFatalFrameError(err) {
		t.Fatalf("expected fatal frame error, got: %v", err)
	}

	var frameErr *FrameError
	errors.As(err, &frameErr)
	if frameErr.Kind != FrameErrorPartial {
		t.Errorf("Kind = %v, want FrameErrorPartial", frameErr.Kind)
	}
}

func TestDecodeBatch_MalformedMsgpack(t *testing.T) {
	_, err := DecodeBatch([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	if err == nil {
		t.Fatal("expected decode error for malformed msgpack")
	}

	var frameErr *FrameError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected *FrameError, got %T", err)
	}
	if frameErr.Kind != FrameErrorDecode {
		t.Errorf("Kind = %v, want FrameErrorDecode", frameErr.Kind)
	}
	if IsFatalFrameError(err) {
		t.Error("decode errors should not be fatal")
	}
}

func TestFrameError_ErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *FrameError
		contains string
	}{
		{
			name:     "partial without underlying error",
			err:      &FrameError{Kind: FrameErrorPartial, Msg: "truncated"},
			contains: "truncated",
		},
		{
			name:     "partial with underlying error",
			err:      &FrameError{Kind: FrameErrorPartial, Msg: "read failed", Err: io.ErrUnexpectedEOF},
			contains: "unexpected EOF",
		},
		{
			name:     "oversized",
			err:      &FrameError{Kind: FrameErrorTooLarge, Msg: "payload too big"},
			contains: "too big",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := tt.err.Error(); !strings.Contains(msg, tt.contains) {
				t.Errorf("error message %q does not contain %q", msg, tt.contains)
			}
		})
	}
}

func TestFrameError_Unwrap(t *testing.T) {
	err := &FrameError{Kind: FrameErrorPartial, Msg: "test", Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("Unwrap should allow errors.Is to find underlying error")
	}
}

func TestIsFatalFrameError_NonFrameError(t *testing.T) {
	for _, err := range []error{errors.New("regular error"), nil, io.EOF} {
		if IsFatalFrameError(err) {
			t.Errorf("IsFatalFrameError(%v) = true", err)
		}
	}
}
