// Package controller owns the lifecycle of the monitoring session for one
// site.
//
// A Controller moves between two states: Idle and Monitoring. Start creates
// a fresh session and subscribes to the configured event sources; Stop
// releases the subscriptions and keeps the last snapshot available for
// queries. Starting on a different URL stops the previous session first, so
// there is never more than one live session per controller.
//
// Events are a closed set of types (CookieEvent, ScriptEvent, RequestEvent,
// PolicyLinkEvent) routed to the session by their Kind. After each mutating
// event a rescoring signal is scheduled; bursts within the debounce window
// collapse into one signal, and no signal is delivered after Stop.
//
// Design decision: All ingestion is serialized through one mutex. Sources
// deliver events through a callback bound to the session generation that was
// live when they subscribed, so a source that keeps delivering after being
// unsubscribed can never write into a newer session.
package controller
