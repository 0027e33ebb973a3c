package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalCBOR serializes a Script, including its nested functions, to
// canonical CBOR. Equal scripts always encode to identical bytes.
func MarshalCBOR(script *Script) ([]byte, error) {
	return cborEncMode.Marshal(stateFromScript(script))
}

// UnmarshalCBOR deserializes a Script from CBOR bytes.
func UnmarshalCBOR(data []byte) (*Script, error) {
	var state scriptState
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal script: %w", err)
	}
	return scriptFromState(&state)
}
