package ranking

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/ranking-lab/pkg/errors"
)

// Save writes s as a CBOR sequence: the method tag followed by each parameter
// in Params order. Float64 parameters are written at full precision.
func Save(w io.Writer, s Scorer) error {
	enc := cbor.NewEncoder(w)
	if err := enc.Encode(string(s.Method())); err != nil {
		return fmt.Errorf("encoding ranker tag: %w", err)
	}
	for i, p := range s.Params() {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encoding %s parameter %d: %w", s.Method(), i, err)
		}
	}
	return nil
}

// Load reads a scorer written by Save. The tag decides how many parameters
// follow.
func Load(r io.Reader) (Scorer, error) {
	dec := cbor.NewDecoder(r)
	var tag string
	if err := dec.Decode(&tag); err != nil {
		return nil, fmt.Errorf("decoding ranker tag: %w", err)
	}
	names, err := ParamNames(Method(tag))
	if err != nil {
		return nil, err
	}
	params := make([]float64, len(names))
	for i, name := range names {
		if err := dec.Decode(&params[i]); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, apperrors.Wrap(apperrors.ErrConfiguration, err, "decoding %s parameter %s", tag, name)
		}
	}
	return New(Method(tag), params)
}
