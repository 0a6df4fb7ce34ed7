package cfg

import "cmp"

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

var globalCfg *Cfg

// Set installs the parsed configuration as the process-wide instance.
// Called once from the CLI layer after flag parsing.
func Set(c *Cfg) {
	c.Version = GetVersion()
	globalCfg = c
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Set() first")
	}
	return globalCfg
}
