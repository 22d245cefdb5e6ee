package logging

import "github.com/joeydtaylor/steeze-hub/pkg/config"

// KeyDiagnosticsEnabled lets a deployment turn diagnostics off (or back on) without a rebuild.
const KeyDiagnosticsEnabled = "diagnostics:enabled"

// Select picks the logger factory. available is the build or host default, and
// diagnostics:enabled overrides it when set.
func Select(cfg config.Provider, available bool) (Factory, error) {
	enabled, err := config.Bool(cfg, KeyDiagnosticsEnabled, available)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return NopFactory{}, nil
	}
	f, err := NewZapFactory(cfg)
	if err != nil {
		return nil, err
	}
	return f, nil
}
