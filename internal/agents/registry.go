package agents

import (
	"github.com/samber/lo"
)

// Registry is an ordered list of agents plus the designated default agent.
// A Registry is immutable; settings reloads build a new one.
type Registry struct {
	agents    []Agent
	byID      map[string]int
	defaultID string
}

// NewRegistry builds a registry. Later agents with a duplicate id replace the
// earlier entry in place so ordering stays stable.
func NewRegistry(list []Agent, defaultID string) *Registry {
	r := &Registry{
		byID:      make(map[string]int, len(list)),
		defaultID: defaultID,
	}
	for _, agent := range list {
		if agent.ID == "" {
			continue
		}
		if idx, exists := r.byID[agent.ID]; exists {
			r.agents[idx] = agent
			continue
		}
		r.byID[agent.ID] = len(r.agents)
		r.agents = append(r.agents, agent)
	}
	return r
}

// Enabled returns the enabled agents in registry order.
func (r *Registry) Enabled() []Agent {
	return lo.Filter(r.agents, func(a Agent, _ int) bool {
		return a.Enabled
	})
}

// Get looks an agent up by id.
func (r *Registry) Get(id string) (Agent, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Agent{}, false
	}
	return r.agents[idx], true
}

// Resolve turns a trigger's agent id list into the agents a session cycles
// through. Unknown and disabled ids are dropped; an empty list selects the
// default agent.
func (r *Registry) Resolve(ids []string) []Agent {
	if len(ids) == 0 {
		agent, ok := r.Get(r.defaultID)
		if !ok || !agent.Enabled {
			return nil
		}
		return []Agent{agent}
	}

	return lo.FilterMap(ids, func(id string, _ int) (Agent, bool) {
		agent, ok := r.Get(id)
		return agent, ok && agent.Enabled
	})
}
