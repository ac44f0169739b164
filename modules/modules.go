// Package modules collects every compiled-in service module. Frontends
// build their registry from All rather than naming modules one by one.
package modules

import (
	"github.com/openvita/hle-runtime/bridge"
	"github.com/openvita/hle-runtime/modules/audioin"
)

// All returns the export tables of every compiled-in service module.
// The slice is freshly built per call; callers may reorder or filter it.
func All() []bridge.Module {
	return []bridge.Module{
		audioin.Module(),
	}
}
