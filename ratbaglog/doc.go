// Package ratbaglog provides the process-wide log sink: a single logger
// value set once, whose writes from inside the core are bounded and
// synchronous.
//
// Every layer of ratbag-go logs through the package-level functions here
// ([Debug], [Info], [Warn], [Error]), tagged with a [Component]. The
// destination is a swappable [zerolog.Logger] ([SetLogger]); this package
// never decides where bytes ultimately land (a file, journald, a daemon's
// own log multiplexer) — that destination is the external "logging sink"
// collaborator this module deliberately does not own. The default
// logger writes text to stderr.
package ratbaglog
