// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: 2024 mqutekitty
// SPDX-FileContributor: mqutekitty

package mqtt

import (
	"sort"
	"strings"
	"sync"
)

// Router maps subscribed topic filters onto the handlers for their messages.
type Router struct {
	routes       map[string]Handler // handlers keyed on topic filter; nil defers to Options.OnMessage
	sync.RWMutex                    // mutex for locking the map
}

// NewRouter returns a new instance of Router.
func NewRouter() *Router {
	return &Router{
		routes: map[string]Handler{},
	}
}

// Add sets the handler for a topic filter. Any handler it replaces is returned, along
// with whether the filter was already routed.
func (r *Router) Add(filter string, h Handler) (Handler, bool) {
	r.Lock()
	defer r.Unlock()
	prev, ok := r.routes[filter]
	r.routes[filter] = h
	return prev, ok
}

// Remove removes the handler for a topic filter.
func (r *Router) Remove(filter string) {
	r.Lock()
	defer r.Unlock()
	delete(r.routes, filter)
}

// Len returns the number of routed filters.
func (r *Router) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.routes)
}

// Handlers returns the handlers of all filters matching a topic, ordered by filter.
func (r *Router) Handlers(topic string) []Handler {
	r.RLock()
	defer r.RUnlock()

	var filters []string
	for filter, h := range r.routes {
		if h != nil && MatchTopic(filter, topic) {
			filters = append(filters, filter)
		}
	}

	sort.Strings(filters)
	handlers := make([]Handler, 0, len(filters))
	for _, filter := range filters {
		handlers = append(handlers, r.routes[filter])
	}

	return handlers
}

// MatchTopic returns true if a topic name matches a topic filter. A multi-level wildcard
// also matches the parent level [MQTT-4.7.1-2], and wildcards in the first level do not
// match topics beginning with $ [MQTT-4.7.2-1].
func MatchTopic(filter, topic string) bool {
	if strings.HasPrefix(topic, "$") && (strings.HasPrefix(filter, "+") || strings.HasPrefix(filter, "#")) {
		return false
	}

	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")
	for i, f := range fl {
		if f == "#" {
			return true
		}

		if i >= len(tl) {
			return false
		}

		if f != "+" && f != tl[i] {
			return false
		}
	}

	return len(fl) == len(tl)
}
