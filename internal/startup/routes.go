package startup

import (
	"strings"

	"github.com/gorilla/mux"

	"dicom-viewer/internal/logging"
)

// Route groups of the viewer API, in log order.
const (
	GroupLibrary     = "library"
	GroupTestData    = "test-data"
	GroupNotes       = "notes"
	GroupOperational = "operational"
	GroupStatic      = "static"
)

var routeGroups = []string{GroupLibrary, GroupTestData, GroupNotes, GroupOperational, GroupStatic}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every method and path template registered on router.
// Routes without a method restriction are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			// Subrouters registered with PathPrefix only
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, method := range methods {
			routes = append(routes, RouteInfo{Method: method, Path: path, Name: route.GetName()})
		}
		return nil
	})

	return routes, err
}

// routeGroup places a path template in one of the API groups.
func routeGroup(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/test-data"):
		return GroupTestData
	case strings.HasPrefix(path, "/api/notes"):
		return GroupNotes
	case strings.HasPrefix(path, "/api/"):
		return GroupLibrary
	case path == "/" || path == "":
		return GroupStatic
	default:
		return GroupOperational
	}
}

// GroupRoutes buckets routes by API group.
func GroupRoutes(routes []RouteInfo) map[string][]RouteInfo {
	groups := make(map[string][]RouteInfo)
	for _, r := range routes {
		g := routeGroup(r.Path)
		groups[g] = append(groups[g], r)
	}
	return groups
}

// LogHTTPRoutes logs the number of routes per API group, the full table at
// debug level, and which requests the access log skips.
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logSection("HTTP ROUTES")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("  Could not walk routes: %v", err)
	}
	groups := GroupRoutes(routes)

	for _, g := range routeGroups {
		list := groups[g]
		if len(list) == 0 {
			continue
		}
		logging.Info("  %-12s %d routes", g+":", len(list))
		for _, r := range list {
			logging.Debug("    %-6s %s", r.Method, r.Path)
		}
	}

	logging.Info("  Access log: static files %s, health checks %s", onOff(logStaticFiles), onOff(logHealthChecks))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
