// Package types defines the shared data model for the workflow engine:
// Node, Edge, Workflow, NodeResult, ExecutionRecord, Snapshot, Credential,
// and McpServer. Defining these once here (as the teacher package of the
// same name does) avoids import cycles between graph, handler, and driver.
package types
