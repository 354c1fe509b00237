package params

import (
	"fmt"
	"sort"

	"github.com/roach88/fhegraph/internal/ir"
)

// Preset names.
const (
	SmartFHE3        = "smart-fhe-3"
	LattigoN14T65537 = "lattigo-n14-t65537"
)

var presets = map[string]ir.Params{
	SmartFHE3: {
		LatticeDimension: 4096,
		CoeffModulus:     []uint64{0xffffee001, 0xffffc4001, 0x1ffffe0001},
		PlainModulus:     4096,
		SchemeType:       ir.SchemeBFV,
		SecurityLevel:    ir.SecurityTC128,
	},
	LattigoN14T65537: {
		LatticeDimension: 16384,
		CoeffModulus: []uint64{
			0x80000000080001,
			0x2000000a0001,
			0x2000000e0001,
			0x2000001d0001,
			0x1fffffcf0001,
			0x1fffffc20001,
			0x200000440001,
		},
		PlainModulus:  65537,
		SchemeType:    ir.SchemeBFV,
		SecurityLevel: ir.SecurityTC128,
	},
}

// Default returns the parameter set used when none is given.
func Default() ir.Params {
	return presets[LattigoN14T65537].Clone()
}

// Preset returns a copy of the named preset.
func Preset(name string) (ir.Params, bool) {
	p, ok := presets[name]
	if !ok {
		return ir.Params{}, false
	}
	return p.Clone(), true
}

// Names returns all preset names, sorted.
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders a one-line summary such as
// "smart-fhe-3: n=4096, t=4096, log(q)=106".
func Describe(name string, p ir.Params) string {
	return fmt.Sprintf("%s: n=%d, t=%d, log(q)=%d", name, p.LatticeDimension, p.PlainModulus, p.LogQ())
}
