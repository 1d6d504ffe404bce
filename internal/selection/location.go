package selection

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrUnknownLocation is returned for paths outside the route table.
var ErrUnknownLocation = errors.New("unknown location")

// Route names a screen.
type Route int

const (
	RouteHome Route = iota
	RouteSandbox
	RouteProjects
	RouteProject
	RouteAuth
	RouteRegister
)

func (r Route) String() string {
	switch r {
	case RouteSandbox:
		return "sandbox"
	case RouteProjects:
		return "projects"
	case RouteProject:
		return "project"
	case RouteAuth:
		return "authorization"
	case RouteRegister:
		return "registration"
	default:
		return "home"
	}
}

// Location is a parsed navigational location. FilePath is the path
// parameter of /projects/{id}/{file...}; it may contain slashes.
type Location struct {
	Route     Route
	ProjectID int
	FilePath  string
}

// Home is the default location.
var Home = Location{Route: RouteHome}

// ProjectLocation builds /projects/{id}/{file}.
func ProjectLocation(projectID int, filePath string) Location {
	return Location{Route: RouteProject, ProjectID: projectID, FilePath: filePath}
}

// ParseLocation parses "/sandbox", "/projects/5", "/projects/5/src/a.py" and
// friends. Segments are URL-unescaped. "/" maps to home.
func ParseLocation(raw string) (Location, error) {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return Home, nil
	}

	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "home":
		if len(parts) == 1 {
			return Home, nil
		}
	case "sandbox":
		if len(parts) == 1 {
			return Location{Route: RouteSandbox}, nil
		}
	case "authorization", "login":
		if len(parts) == 1 {
			return Location{Route: RouteAuth}, nil
		}
	case "registration", "register":
		if len(parts) == 1 {
			return Location{Route: RouteRegister}, nil
		}
	case "projects":
		if len(parts) == 1 {
			return Location{Route: RouteProjects}, nil
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil || id <= 0 {
			return Location{}, fmt.Errorf("%w: invalid project id %q", ErrUnknownLocation, parts[1])
		}
		loc := Location{Route: RouteProject, ProjectID: id}
		if len(parts) > 2 {
			segments := make([]string, 0, len(parts)-2)
			for _, seg := range parts[2:] {
				unescaped, err := url.PathUnescape(seg)
				if err != nil {
					return Location{}, fmt.Errorf("%w: %v", ErrUnknownLocation, err)
				}
				segments = append(segments, unescaped)
			}
			loc.FilePath = strings.Join(segments, "/")
		}
		return loc, nil
	}
	return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, raw)
}

// String renders the location back to a path.
func (l Location) String() string {
	switch l.Route {
	case RouteSandbox:
		return "/sandbox"
	case RouteProjects:
		return "/projects"
	case RouteAuth:
		return "/authorization"
	case RouteRegister:
		return "/registration"
	case RouteProject:
		base := "/projects/" + strconv.Itoa(l.ProjectID)
		if l.FilePath == "" {
			return base
		}
		segments := strings.Split(l.FilePath, "/")
		for i, seg := range segments {
			segments[i] = url.PathEscape(seg)
		}
		return base + "/" + strings.Join(segments, "/")
	default:
		return "/home"
	}
}
