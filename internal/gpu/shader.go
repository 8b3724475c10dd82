//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/photokit"
)

//go:embed shaders/photo_quad.wgsl
var photoQuadShaderSource string

// compileSPIRV compiles WGSL to SPIR-V words. Any failure wraps
// photokit.ErrShaderCompile.
func compileSPIRV(wgsl string) ([]uint32, error) {
	if wgsl == "" {
		return nil, fmt.Errorf("%w: empty source", photokit.ErrShaderCompile)
	}
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", photokit.ErrShaderCompile, err)
	}
	if len(spirvBytes) < 4 || len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: %w", photokit.ErrShaderCompile, errBadSPIRV)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	if words[0] != spirvMagic {
		return nil, fmt.Errorf("%w: %w", photokit.ErrShaderCompile, errBadSPIRV)
	}
	return words, nil
}

const spirvMagic = 0x07230203

var errBadSPIRV = errors.New("malformed SPIR-V output")
