// Package live pushes graph change notifications to viewers over
// websockets.
package live

import "time"

// Event types sent to clients.
const (
	EventHello             = "hello"
	EventGraphUpdated      = "graph_updated"
	EventGraphRemoved      = "graph_removed"
	EventTranslationFailed = "translation_failed"
)

// TopicAll receives every event regardless of graph.
const TopicAll = "*"

// Event is one notification. Graph is the name the event concerns and
// doubles as its topic.
type Event struct {
	Type  string    `json:"type"`
	Graph string    `json:"graph,omitempty"`
	Error string    `json:"error,omitempty"`
	Time  time.Time `json:"time"`
}

// GraphUpdated builds the event broadcast after a graph is rewritten.
func GraphUpdated(name string) Event {
	return Event{Type: EventGraphUpdated, Graph: name, Time: time.Now().UTC()}
}

// GraphRemoved builds the event broadcast after a graph file disappears.
func GraphRemoved(name string) Event {
	return Event{Type: EventGraphRemoved, Graph: name, Time: time.Now().UTC()}
}

// FailureMessage is the error text clients see for a failed translation.
// The cause stays in the server log.
const FailureMessage = "translation failed"

// TranslationFailed reports a graph whose input the watcher could not
// translate.
func TranslationFailed(name string) Event {
	return Event{Type: EventTranslationFailed, Graph: name, Error: FailureMessage, Time: time.Now().UTC()}
}
