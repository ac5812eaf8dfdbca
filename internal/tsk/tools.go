package tsk

import (
	"os/exec"
	"sort"
)

// External tool names used by the browser. The SleuthKit utilities are
// required for scanning and browsing; xmount and hdiutil only matter for the
// mount commands.
const (
	Sigfind = "sigfind"
	Fls     = "fls"
	Fsstat  = "fsstat"
	Istat   = "istat"
	Icat    = "icat"
	Pstat   = "pstat"
	Xmount  = "xmount"
	Hdiutil = "hdiutil"
)

// SleuthKitTools lists the tools that must be present for core operation.
var SleuthKitTools = []string{Sigfind, Fls, Fsstat, Istat, Icat, Pstat}

// Toolset resolves external binaries on PATH once and remembers the result.
type Toolset struct {
	paths map[string]string
}

// Discover looks up every known tool on PATH. Tools that are not found keep
// their bare name so a later invocation still produces a sensible error.
func Discover() *Toolset {
	names := append([]string{Xmount, Hdiutil}, SleuthKitTools...)
	ts := &Toolset{paths: make(map[string]string, len(names))}
	for _, name := range names {
		if p, err := exec.LookPath(name); err == nil {
			ts.paths[name] = p
		}
	}
	return ts
}

// Path returns the resolved path for a tool, or the bare name when the tool
// was not found on PATH.
func (t *Toolset) Path(name string) string {
	if p, ok := t.paths[name]; ok {
		return p
	}
	return name
}

// Available reports whether a tool was found on PATH.
func (t *Toolset) Available(name string) bool {
	_, ok := t.paths[name]
	return ok
}

// MissingSleuthKit returns the SleuthKit tools that could not be resolved,
// sorted for stable output.
func (t *Toolset) MissingSleuthKit() []string {
	var missing []string
	for _, name := range SleuthKitTools {
		if !t.Available(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
