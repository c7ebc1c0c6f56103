// Package observer implements the Observer pattern for workflow execution
// monitoring: the driver emits AuditEvents at node start/finish/wait/resume,
// and any number of Observers (metrics sinks, tracers, test spies) receive
// them without coupling the driver to a concrete sink.
package observer
