package version

import (
	"runtime/debug"
	"testing"
)

func TestFillFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/smazurov/depthnode", Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "4f9c2e1"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	info := Info{Version: "dev", GitCommit: "unknown", BuildDate: "unknown"}
	fillFromBuildInfo(&info, bi)
	if info.Version != "v0.3.1" || info.GitCommit != "4f9c2e1" || info.BuildDate != "2026-10-01T12:00:00Z" || !info.Modified {
		t.Errorf("info = %+v", info)
	}

	// ldflags win over build info
	info = Info{Version: "v1.0.0", GitCommit: "abc", BuildDate: "yesterday"}
	fillFromBuildInfo(&info, bi)
	if info.Version != "v1.0.0" || info.GitCommit != "abc" || info.BuildDate != "yesterday" {
		t.Errorf("ldflags overridden: %+v", info)
	}

	info = Info{Version: "dev"}
	fillFromBuildInfo(&info, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if info.Version != "dev" {
		t.Errorf("devel build version = %q", info.Version)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" || info.GoVersion == "" || info.Platform == "" {
		t.Errorf("incomplete info: %+v", info)
	}
	if String() != info.Version {
		t.Errorf("String() = %q, want %q", String(), info.Version)
	}
}
