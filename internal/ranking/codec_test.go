package ranking

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

func TestCodecRoundTrip(t *testing.T) {
	scorers := []Scorer{
		PL2{C: 0.3, Lambda: 0.000001},
		PL2{C: 0.9, Lambda: 10},
		PL2{C: 1.0 / 3.0, Lambda: math.Nextafter(0.1, 1)},
		BM25{K1: 1.2, B: 0.75, K3: 500},
		PivotedLength{S: 0.2},
		JelinekMercer{Lambda: 0.7},
		DirichletPrior{Mu: 2000},
		AbsoluteDiscount{Delta: 0.7},
	}
	for _, s := range scorers {
		t.Run(string(s.Method()), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Save(&buf, s); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(&buf)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Method() != s.Method() {
				t.Fatalf("method = %s, want %s", got.Method(), s.Method())
			}
			want, have := s.Params(), got.Params()
			if len(have) != len(want) {
				t.Fatalf("params = %v, want %v", have, want)
			}
			for i := range want {
				if math.Float64bits(have[i]) != math.Float64bits(want[i]) {
					t.Errorf("param %d = %v, want %v (bit-exact)", i, have[i], want[i])
				}
			}
			if buf.Len() != 0 {
				t.Errorf("expected all bytes consumed, %d left", buf.Len())
			}
		})
	}
}

func TestCodecWritesTagThenParams(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(&buf, PL2{C: 0.6, Lambda: 0.01}); err != nil {
		t.Fatal(err)
	}
	dec := cbor.NewDecoder(&buf)
	var tag string
	var c, lambda float64
	for _, v := range []any{&tag, &c, &lambda} {
		if err := dec.Decode(v); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	if tag != "pl2" || c != 0.6 || lambda != 0.01 {
		t.Errorf("got tag=%q c=%v lambda=%v", tag, c, lambda)
	}
}

func TestLoadUnknownTag(t *testing.T) {
	var buf bytes.Buffer
	if err := cbor.NewEncoder(&buf).Encode("okapi"); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(&buf); !errors.Is(err, apperrors.ErrUnknownMethod) {
		t.Fatalf("expected unknown method, got %v", err)
	}
}

func TestLoadTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(&buf, PL2{C: 0.3, Lambda: 1}); err != nil {
		t.Fatal(err)
	}
	// Drop the trailing float64 (one header byte plus eight payload bytes).
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-9])
	if _, err := Load(truncated); !errors.Is(err, apperrors.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	if _, err := Load(bytes.NewReader(nil)); err == nil {
		t.Fatal("expected error loading empty input")
	}
}
