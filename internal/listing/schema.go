// Package listing implements the list screen controller shared by every entity:
// filter and page state, fetch-on-change with stale response discarding, the
// record modal state machine and mutate-then-refetch.
package listing

import (
	"fmt"
	"strings"
)

// NoFilter is the sentinel used by enum filters to mean "do not constrain".
const NoFilter = "All"

// FilterSpec declares one user adjustable filter of a screen.
type FilterSpec struct {
	Name     string
	Param    string
	Sentinel string
	Options  []string
}

func (f FilterSpec) param() string {
	if f.Param != "" {
		return f.Param
	}
	return f.Name
}

func (f FilterSpec) accepts(value string) bool {
	if value == f.Sentinel || len(f.Options) == 0 {
		return true
	}
	for _, opt := range f.Options {
		if strings.EqualFold(opt, value) {
			return true
		}
	}
	return false
}

// Schema parameterises a controller for one entity.
type Schema struct {
	Entity            string
	Resource          string
	Collection        string
	PageSize          int
	Filters           []FilterSpec
	RequiredOnCreate  []string
	RequiredOnUpdate  []string
	EmailFields       []string
	StatusSubresource string
	Permission        string
}

// Validate checks the schema is usable.
func (s Schema) Validate() error {
	switch {
	case s.Entity == "":
		return fmt.Errorf("schema entity is required")
	case s.Resource == "":
		return fmt.Errorf("schema %s: resource is required", s.Entity)
	case s.Collection == "":
		return fmt.Errorf("schema %s: collection is required", s.Entity)
	case s.PageSize <= 0:
		return fmt.Errorf("schema %s: page size must be positive", s.Entity)
	}
	seen := make(map[string]struct{}, len(s.Filters))
	for _, f := range s.Filters {
		if f.Name == "" {
			return fmt.Errorf("schema %s: filter without name", s.Entity)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate filter %s", s.Entity, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func (s Schema) filter(name string) (FilterSpec, bool) {
	for _, f := range s.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return FilterSpec{}, false
}

func (s Schema) defaultFilters() map[string]string {
	out := make(map[string]string, len(s.Filters))
	for _, f := range s.Filters {
		out[f.Name] = f.Sentinel
	}
	return out
}

func (s Schema) basePath() string {
	return "/api/admin/" + strings.Trim(s.Resource, "/")
}
