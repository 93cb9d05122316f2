package resp

import (
	"bytes"
	"testing"
)

func frame(args ...string) []byte {
	w := NewWriter()
	items := make([][]byte, len(args))
	for i, a := range args {
		items[i] = []byte(a)
	}
	w.WriteBulkArray(items)
	return append([]byte(nil), w.Bytes()...)
}

func TestParserRoundTrip(t *testing.T) {
	cases := [][]string{
		{"SET", "a", "b"},
		{"GET", "a"},
		{"LPUSH", "l", "x"},
		{"PING"},
	}
	for _, c := range cases {
		p := NewParser()
		reqs, err := p.Feed(frame(c...))
		if err != nil {
			t.Fatalf("feed: %v", err)
		}
		if len(reqs) != 1 {
			t.Fatalf("expected 1 request, got %d", len(reqs))
		}
		if reqs[0].Name() != c[0] {
			t.Fatalf("name mismatch: got %q want %q", reqs[0].Name(), c[0])
		}
		for i, arg := range c[1:] {
			if !bytes.Equal(reqs[0].Args()[i], []byte(arg)) {
				t.Fatalf("arg %d mismatch: got %q want %q", i, reqs[0].Args()[i], arg)
			}
		}
	}
}

func TestParserByteAtATime(t *testing.T) {
	full := frame("SET", "key", "value")
	p := NewParser()
	var got []Request
	for i := 0; i < len(full); i++ {
		reqs, err := p.Feed(full[i : i+1])
		if err != nil {
			t.Fatalf("feed byte %d: %v", i, err)
		}
		got = append(got, reqs...)
	}
	if len(got) != 1 || got[0].Name() != "SET" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestParserProtocolError(t *testing.T) {
	p := NewParser()
	_, err := p.Feed([]byte("*1\r\n:5\r\n"))
	if err != ErrProtocol {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

func TestParserBufferOverflow(t *testing.T) {
	p := NewParser()
	huge := bytes.Repeat([]byte("a"), MaxInlineBuffer+10)
	_, err := p.Feed(append([]byte("*1\r\n$100000\r\n"), huge...))
	if err != ErrBufferFull {
		t.Fatalf("expected buffer-full error, got %v", err)
	}
}

func TestWriterFrames(t *testing.T) {
	w := NewWriter()
	w.WriteStatus("OK")
	if w.Bytes()[0] != '+' {
		t.Fatalf("status frame wrong prefix")
	}
	w.Reset()
	w.WriteInt(42)
	if string(w.Bytes()) != ":42\r\n" {
		t.Fatalf("int frame mismatch: %q", w.Bytes())
	}
	w.Reset()
	w.WriteBulk(nil)
	if string(w.Bytes()) != "$-1\r\n" {
		t.Fatalf("null bulk mismatch: %q", w.Bytes())
	}
}
