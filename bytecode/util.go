package bytecode

// copyStrings returns a copy of the given string slice.
func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

// copyBytes returns a copy of the given byte slice.
func copyBytes(src []byte) []byte {
	if src == nil {
		return nil
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst
}

// copyValues returns a copy of the given constant slice.
func copyValues(src []Value) []Value {
	if src == nil {
		return nil
	}
	dst := make([]Value, len(src))
	copy(dst, src)
	return dst
}

// copyMacros returns a copy of the given macro region slice.
func copyMacros(src []MacroRegion) []MacroRegion {
	if src == nil {
		return nil
	}
	dst := make([]MacroRegion, len(src))
	copy(dst, src)
	return dst
}
