// Package driver implements the execution driver (spec §4.6): a FIFO queue
// over pending (node, input) pairs, dispatched one at a time against the
// handler registry, with pause/resume via persisted snapshots. Grounded on
// the teacher's workflow.go/parallel_executor.go orchestration style
// (sequential dispatch loop, mutex-guarded result accumulation), restructured
// to the spec's single-queue-per-execution model.
package driver

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flowloom/engine/internal/capability"
	"github.com/flowloom/engine/internal/config"
	"github.com/flowloom/engine/internal/engineerr"
	"github.com/flowloom/engine/internal/graph"
	"github.com/flowloom/engine/internal/handler"
	"github.com/flowloom/engine/internal/logging"
	"github.com/flowloom/engine/internal/metrics"
	"github.com/flowloom/engine/internal/observer"
	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// ErrPaused is returned by Run/Resume when the execution suspended on a
// sendAndWait-style node rather than completing.
var ErrPaused = errors.New("Workflow paused")

// Driver runs one workflow's nodes to completion (or suspension) against a
// shared handler Registry and capability set.
type Driver struct {
	Registry     *handler.Registry
	Capabilities handler.Capabilities
	Config       *config.Config
	Store        capability.Store
	Observers    *observer.Manager
	Metrics      *metrics.Provider
	Logger       *logging.Logger
}

// New builds a Driver from its wired dependencies.
func New(reg *handler.Registry, caps handler.Capabilities, cfg *config.Config, store capability.Store, observers *observer.Manager, metricsProvider *metrics.Provider, logger *logging.Logger) *Driver {
	if cfg == nil {
		cfg = config.Default()
	}
	if observers == nil {
		observers = observer.NewManager()
	}
	return &Driver{
		Registry:     reg,
		Capabilities: caps,
		Config:       cfg,
		Store:        store,
		Observers:    observers,
		Metrics:      metricsProvider,
		Logger:       logger,
	}
}

// Run starts a fresh execution of workflow, seeded from its trigger entries
// (spec §4.5/§4.6), and drives it to completion or suspension.
func (d *Driver) Run(ctx context.Context, executionID string, workflow types.Workflow, triggerNodeID *string) (*types.ExecutionRecord, error) {
	g := graph.New(workflow)
	entries := g.Entries(triggerNodeID)

	queue := make([]types.QueueItem, 0, len(entries))
	for _, n := range entries {
		queue = append(queue, types.QueueItem{NodeID: n.ID, Input: value.NewObject()})
	}

	record := &types.ExecutionRecord{
		ID:           executionID,
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		StartTime:    time.Now().UTC(),
		Status:       types.StatusRunning,
	}
	if err := d.Store.SaveExecution(ctx, record); err != nil {
		return record, engineerr.Engine("failed to persist execution", err)
	}
	d.emit(ctx, observer.EventExecutionStart, executionID, workflow.ID, "", "", nil)

	return d.drive(ctx, record, workflow, g, queue, value.NewObject(), make(map[string]struct{}))
}

// Resume continues a waiting execution using resumeInput as the paused
// node's effective output (spec §4.6 Resume).
func (d *Driver) Resume(ctx context.Context, record *types.ExecutionRecord, workflow types.Workflow, resumeInput value.Value) (*types.ExecutionRecord, error) {
	// Resume is idempotent (spec §8 invariant 5): a resume signal replayed
	// against an already-settled record is a no-op, not an error.
	if record.Status != types.StatusWaiting || record.Snapshot == nil {
		return record, nil
	}
	snapshot := record.Snapshot
	d.emit(ctx, observer.EventExecutionResume, record.ID, workflow.ID, snapshot.CurrentNodeID, "", nil)

	g := graph.New(workflow)

	// The paused node's successors were never enqueued at suspension time
	// (spec §4.6 Resume: "the paused node's result is already recorded").
	// Resume computes them now, feeding resumeInput as their input, and
	// runs them ahead of whatever other branches were still pending.
	port := ""
	if p, ok := snapshot.WaitInfo.Get("__port"); ok && p.IsString() {
		port = p.Str()
	}
	queue := make([]types.QueueItem, 0, len(snapshot.RemainingQueue)+1)
	for _, edge := range g.Successors(snapshot.CurrentNodeID, port) {
		queue = append(queue, types.QueueItem{NodeID: edge.To, Input: resumeInput})
	}
	queue = append(queue, snapshot.RemainingQueue...)

	record.Status = types.StatusRunning
	record.Snapshot = nil

	return d.drive(ctx, record, workflow, g, queue, resumeInput, make(map[string]struct{}))
}

// drive is the shared dispatch loop used by both Run and Resume.
func (d *Driver) drive(ctx context.Context, record *types.ExecutionRecord, workflow types.Workflow, g *graph.Graph, queue []types.QueueItem, lastOutput value.Value, visited map[string]struct{}) (*types.ExecutionRecord, error) {
	success := true

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return d.finish(ctx, record, workflow, false, engineerr.Engine("execution cancelled", err))
		}

		item := queue[0]
		queue = queue[1:]

		node := g.GetNode(item.NodeID)
		if node == nil {
			continue
		}

		fingerprint := item.NodeID + "\x00" + fingerprintValue(item.Input)
		if _, seen := visited[fingerprint]; seen {
			continue
		}
		visited[fingerprint] = struct{}{}

		ectx := handler.NewEngineContext(ctx, d.Capabilities, workflow, d.Config)
		ectx.ExecutionID = record.ID
		ectx.Observers = d.Observers
		ectx.Metrics = d.Metrics
		if d.Logger != nil {
			ectx.Logger = d.Logger
		}

		startedAt := time.Now()
		d.emit(ctx, observer.EventNodeStart, record.ID, workflow.ID, node.ID, node.Kind, nil)

		output, err := d.Registry.Execute(ectx, *node, item.Input)
		elapsed := time.Since(startedAt)

		if d.Metrics != nil {
			d.Metrics.RecordNode(ctx, node.ID, node.Kind, elapsed, err == nil)
		}

		if err != nil {
			record.Results = append(record.Results, types.NodeResult{
				NodeID:    node.ID,
				NodeName:  node.Label,
				Success:   false,
				Error:     err.Error(),
				ElapsedMs: uint64(elapsed.Milliseconds()),
			})
			d.emit(ctx, observer.EventNodeFailure, record.ID, workflow.ID, node.ID, node.Kind, map[string]interface{}{"error": err.Error()})
			success = false
			return d.finish(ctx, record, workflow, success, err)
		}

		outputCopy := output
		record.Results = append(record.Results, types.NodeResult{
			NodeID:    node.ID,
			NodeName:  node.Label,
			Success:   true,
			Output:    &outputCopy,
			ElapsedMs: uint64(elapsed.Milliseconds()),
		})
		d.emit(ctx, observer.EventNodeSuccess, record.ID, workflow.ID, node.ID, node.Kind, map[string]interface{}{"elapsedMs": elapsed.Milliseconds()})
		lastOutput = output

		if filtered, ok := output.Get("__filtered"); ok && filtered.IsBool() && filtered.Bool() {
			continue
		}

		if waitFlag, ok := output.Get("__wait"); ok && waitFlag.IsBool() && waitFlag.Bool() {
			record.Status = types.StatusWaiting
			record.Snapshot = &types.Snapshot{
				LastOutput:     lastOutput,
				RemainingQueue: append([]types.QueueItem(nil), queue...),
				WaitInfo:       output,
				CurrentNodeID:  node.ID,
			}
			d.emit(ctx, observer.EventExecutionWait, record.ID, workflow.ID, node.ID, node.Kind, nil)
			if perr := d.Store.UpdateExecutionStatus(ctx, record.ID, record.Status, record.Results, nil, record.Snapshot); perr != nil {
				return record, engineerr.Engine("failed to persist waiting snapshot", perr)
			}
			return record, ErrPaused
		}

		port := ""
		if p, ok := output.Get("__port"); ok && p.IsString() {
			port = p.Str()
		}
		for _, edge := range g.Successors(node.ID, port) {
			queue = append(queue, types.QueueItem{NodeID: edge.To, Input: output})
		}
	}

	return d.finish(ctx, record, workflow, success, nil)
}

// finish persists the terminal status for record and returns the final
// (record, error) pair expected by callers.
func (d *Driver) finish(ctx context.Context, record *types.ExecutionRecord, workflow types.Workflow, success bool, runErr error) (*types.ExecutionRecord, error) {
	endTime := time.Now().UTC()
	if success {
		record.Status = types.StatusSuccess
	} else {
		record.Status = types.StatusFailed
	}
	record.EndTime = &endTime
	record.Snapshot = nil

	if perr := d.Store.UpdateExecutionStatus(ctx, record.ID, record.Status, record.Results, &endTime, nil); perr != nil {
		return record, engineerr.Engine("failed to persist final execution record", perr)
	}

	if d.Metrics != nil {
		d.Metrics.RecordExecution(ctx, workflow.ID, endTime.Sub(record.StartTime), success, len(record.Results))
	}
	d.emit(ctx, observer.EventExecutionEnd, record.ID, workflow.ID, "", "", map[string]interface{}{"success": success})

	return record, runErr
}

func (d *Driver) emit(ctx context.Context, typ observer.EventType, executionID, workflowID, nodeID, nodeKind string, metadata map[string]interface{}) {
	if d.Observers == nil {
		return
	}
	d.Observers.Emit(ctx, observer.AuditEvent{
		Type:        typ,
		Timestamp:   time.Now().UTC(),
		ExecutionID: executionID,
		WorkflowID:  workflowID,
		NodeID:      nodeID,
		NodeKind:    nodeKind,
		Metadata:    metadata,
	})
}

// fingerprintValue returns a stable hash of v's canonical JSON encoding,
// used to dedupe (nodeId, input) pairs in the visited set (spec §4.5/§9):
// a node visited twice with the same input is skipped, but distinct inputs
// may legitimately re-run it.
func fingerprintValue(v value.Value) string {
	raw, err := json.Marshal(v.Raw())
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%x", sum)
}
