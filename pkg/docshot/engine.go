// Package docshot provides a high-level API for capturing documentation
// screenshots.
package docshot

import (
	"fmt"
	"strings"

	"github.com/user/docshot/pkg/adapters/chromebrowser"
	"github.com/user/docshot/pkg/adapters/playwrightbrowser"
	"github.com/user/docshot/pkg/adapters/rodbrowser"
	"github.com/user/docshot/pkg/config"
	"github.com/user/docshot/pkg/ports"
)

// NewBrowser returns an unlaunched browser for the named engine.
func NewBrowser(engine string) (ports.Browser, error) {
	switch strings.ToLower(engine) {
	case config.EngineChromedp, "":
		return chromebrowser.New(), nil
	case config.EnginePlaywright:
		return playwrightbrowser.New(), nil
	case config.EngineRod:
		return rodbrowser.New(), nil
	}
	return nil, fmt.Errorf("unknown engine %q (want one of %s)", engine, strings.Join(config.Engines, ", "))
}
