package storage

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

var (
	cycleEncMode cbor.EncMode
	cycleDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		ShortestFloat: cbor.ShortestFloat16,
	}
	cycleEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("cycle log encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	cycleDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cycle log decoder mode: %v", err))
	}
}

func newCycleEncoder(w io.Writer) *cbor.Encoder {
	return cycleEncMode.NewEncoder(w)
}

func newCycleDecoder(r io.Reader) *cbor.Decoder {
	return cycleDecMode.NewDecoder(r)
}
