/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo reports the version of the go-crptapi module that is linked into the running binary.
package libinfo

import (
	"debug/buildinfo"
	"regexp"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LibShortName is the short name of the library used in User-Agent tokens.
const LibShortName = "go-crptapi"

const moduleName = "github.com/acronis/" + LibShortName

const unknownVersion = "v0.0.0"

// PrometheusLibVersionLabel is the const label added to every metric exported by the library.
const PrometheusLibVersionLabel = "go_crptapi_version"

// AddPrometheusLibVersionLabel returns a copy of labels with the library version label added.
func AddPrometheusLibVersionLabel(labels prometheus.Labels) prometheus.Labels {
	labelsCopy := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		labelsCopy[k] = v
	}
	labelsCopy[PrometheusLibVersionLabel] = GetLibVersion()
	return labelsCopy
}

// UserAgentToken returns the "go-crptapi/<version>" product token.
func UserAgentToken() string {
	return LibShortName + "/" + GetLibVersion()
}

var libVersion string
var libVersionOnce sync.Once

// GetLibVersion returns the module version or v0.0.0 if it cannot be determined (e.g. in tests).
func GetLibVersion() string {
	libVersionOnce.Do(func() {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			libVersion = extractLibVersion(buildInfo, moduleName)
		}
		if libVersion == "" || libVersion == "(devel)" {
			libVersion = unknownVersion
		}
	})
	return libVersion
}

// extractLibVersion looks the module up (as "modName" or "modName/vN") among the main module and the dependencies.
func extractLibVersion(buildInfo *buildinfo.BuildInfo, modName string) string {
	if buildInfo == nil {
		return ""
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(modName) + `(/v[0-9]+)?$`)
	if re.MatchString(buildInfo.Main.Path) {
		return buildInfo.Main.Version
	}
	for _, dep := range buildInfo.Deps {
		if dep.Replace != nil && re.MatchString(dep.Path) {
			return dep.Replace.Version
		}
		if re.MatchString(dep.Path) {
			return dep.Version
		}
	}
	return ""
}
