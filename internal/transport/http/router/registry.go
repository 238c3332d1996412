package router

import (
	"sort"

	"marketplace-api/internal/transport/http/handler"
)

// Module mounts its routes under /api.
type Module interface{ Mount(handler.Routes) }

// Modules implementing prioritizer mount in ascending order; others use 100.
type prioritizer interface{ Priority() int }

type Registry struct {
	mods []Module
}

func (r *Registry) Register(mods ...Module) {
	r.mods = append(r.mods, mods...)
}

func (r *Registry) MountAll(routes handler.Routes) {
	mods := append([]Module(nil), r.mods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.Mount(routes)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
