// Package topology implements the orchestrator that validates a flow
// specification, materialises its queues, instantiates its stage workers,
// tracks per-queue producer counts to decide queue closure, relays
// cancellation, and joins every worker before returning.
package topology

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	runtimeerrors "github.com/flowmesh/runtime/errors"
	"github.com/flowmesh/runtime/flowspec"
	"github.com/flowmesh/runtime/logger"
	"github.com/flowmesh/runtime/queue"
	"github.com/flowmesh/runtime/registry"
	"github.com/flowmesh/runtime/signalrelay"
	"github.com/flowmesh/runtime/stage"
	"github.com/flowmesh/runtime/stagerunner"
	"github.com/flowmesh/runtime/token"
	"github.com/flowmesh/runtime/util"
)

// PollInterval is how often the main wait loop checks the cancellation
// token and relays the signal flag into it.
const PollInterval = 50 * time.Millisecond

// Options configures a Run invocation.
type Options struct {
	Metrics       stagerunner.MetricsRecorder
	EnableTracing bool
}

// pluginRef resolves a stage spec's plugin reference: the explicit path if
// given, otherwise the conventional derived name for its type.
func pluginRef(s flowspec.StageSpec) string {
	if s.Plugin != "" {
		return s.Plugin
	}
	return fmt.Sprintf("libstage_%s.so", s.Type)
}

type workerInstance struct {
	stageName   string
	threadIndex int
	role        stage.Role
	handle      registry.Handle
	instance    stage.Instance
	input       queue.Interface
	output      queue.Interface
}

// orchestrator holds the per-run state shared across instantiation,
// worker spawning, and the main wait loop.
type orchestrator struct {
	flow     *flowspec.Flow
	reg      *registry.Registry
	tok      *token.Token
	opts     Options
	queues   map[string]queue.Interface
	producer map[string]*atomic.Int64
	active   atomic.Int64
}

// Run validates flow, runs it to completion (JOB mode) or until ctx is
// canceled or a signal arrives (STREAMING mode). It returns the setup error
// (validation, queue construction, stage instantiation) when the flow cannot
// start, and nil once every worker has been joined otherwise: a worker's
// fault is logged (and stops the flow in STREAMING mode) but is not returned.
func Run(ctx context.Context, flow *flowspec.Flow, reg *registry.Registry, opts Options) error {
	signalrelay.Install()
	ctx = logger.ContextWithFlow(ctx, flow.Name)

	if err := flowspec.Validate(flow); err != nil {
		return runtimeerrors.ConfigError(err.Error())
	}
	if err := validateRuntimeConstraints(flow); err != nil {
		return runtimeerrors.ConfigError(err.Error())
	}

	o := &orchestrator{
		flow:     flow,
		reg:      reg,
		tok:      token.New(),
		opts:     opts,
		queues:   make(map[string]queue.Interface),
		producer: make(map[string]*atomic.Int64),
	}

	if err := o.buildQueues(); err != nil {
		o.closeAllQueues()
		return err
	}
	o.computeProducerCounts()

	workers, err := o.instantiateStages()
	if err != nil {
		o.closeAllQueues()
		_ = o.reg.Shutdown()
		return err
	}
	o.active.Store(int64(len(workers)))

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go o.runWorker(ctx, w, &wg)
	}

	o.waitLoop(ctx)

	wg.Wait()
	o.closeAllQueues()
	if err := o.reg.Shutdown(); err != nil {
		logger.WithContext(ctx).Warn("registry shutdown reported an error", logger.ErrorFields("registry.shutdown", err))
	}
	return nil
}

func (o *orchestrator) buildQueues() error {
	for _, q := range o.flow.Queues {
		schemaID := ""
		if q.Schema != nil {
			schemaID = q.Schema.SchemaID
		}

		if q.Type == flowspec.QueueTypeDurable {
			var threshold int64
			if q.DurableCompactionThreshold != "" {
				parsed, err := queue.ParseSize(q.DurableCompactionThreshold)
				if err != nil {
					return runtimeerrors.ConfigError(fmt.Sprintf("queue %q: %s", q.Name, err.Error()))
				}
				threshold = parsed
			}
			dq, err := queue.OpenDurable(q.Name, q.Capacity, schemaID, q.DurablePath, threshold)
			if err != nil {
				return runtimeerrors.ConfigError(fmt.Sprintf("queue %q: open durable file %q: %s", q.Name, q.DurablePath, err.Error()))
			}
			o.queues[q.Name] = dq
			continue
		}

		o.queues[q.Name] = queue.New(q.Name, q.Capacity, schemaID)
	}
	return nil
}

func (o *orchestrator) computeProducerCounts() {
	for name := range o.queues {
		o.producer[name] = &atomic.Int64{}
	}
	for _, s := range o.flow.Stages {
		if s.HasOutput() {
			o.producer[s.OutputQueue].Add(int64(util.Coalesce(s.Threads, 1)))
		}
	}
}

// instantiateStages creates one probe instance per stage spec to classify
// its role and verify wiring, then the remaining thread_count-1 instances.
// Any failure rolls back everything instantiated so far.
func (o *orchestrator) instantiateStages() ([]workerInstance, error) {
	var workers []workerInstance

	rollback := func() {
		for _, w := range workers {
			_ = o.reg.DestroyStage(w.handle)
		}
	}

	for _, s := range o.flow.Stages {
		threads := util.Coalesce(s.Threads, 1)

		ref := pluginRef(s)

		handle, inst, err := o.reg.CreateStage(ref, s.Config)
		if err != nil {
			rollback()
			return nil, err
		}

		role, err := stage.ClassifyRole(inst)
		if err != nil {
			_ = o.reg.DestroyStage(handle)
			rollback()
			return nil, runtimeerrors.StageInstantiateError(s.Name, err)
		}
		if !stage.WiringMatches(role, s.HasInput(), s.HasOutput()) {
			_ = o.reg.DestroyStage(handle)
			rollback()
			return nil, runtimeerrors.StageInstantiateError(s.Name, fmt.Errorf("stage %q classified as %s does not match its declared wiring", s.Name, role))
		}

		workers = append(workers, o.toWorker(s, 0, role, handle, inst))

		for i := 1; i < threads; i++ {
			handle, inst, err := o.reg.CreateStage(ref, s.Config)
			if err != nil {
				rollback()
				return nil, err
			}
			workers = append(workers, o.toWorker(s, i, role, handle, inst))
		}
	}

	return workers, nil
}

func (o *orchestrator) toWorker(s flowspec.StageSpec, threadIndex int, role stage.Role, handle registry.Handle, inst stage.Instance) workerInstance {
	w := workerInstance{
		stageName:   s.Name,
		threadIndex: threadIndex,
		role:        role,
		handle:      handle,
		instance:    inst,
	}
	if s.HasInput() {
		w.input = o.queues[s.InputQueue]
	}
	if s.HasOutput() {
		w.output = o.queues[s.OutputQueue]
	}
	return w
}

// runWorker runs the appropriate stage-runner loop for w, then performs the
// post-loop bookkeeping: decrement the output queue's producer count
// (source/transform only), close it if it reaches zero, destroy the stage
// instance, and decrement the global active-worker count — requesting stop
// if it reaches zero and the flow is in JOB mode.
func (o *orchestrator) runWorker(ctx context.Context, w workerInstance, wg *sync.WaitGroup) {
	defer wg.Done()
	ctx = logger.ContextWithStage(ctx, w.stageName, w.threadIndex)

	cfg := stagerunner.Config{
		StageName:     w.stageName,
		ThreadIndex:   w.threadIndex,
		Tok:           o.tok,
		Metrics:       o.opts.Metrics,
		EnableTracing: o.opts.EnableTracing,
	}

	if o.opts.Metrics != nil {
		o.opts.Metrics.RecordWorkerStart(ctx, w.stageName)
		defer o.opts.Metrics.RecordWorkerStop(context.Background(), w.stageName)
	}

	var err error
	switch w.role {
	case stage.RoleSource:
		err = stagerunner.RunSource(ctx, stagerunner.SourceConfig{
			Config: cfg, Instance: w.instance.(stage.Source), Output: w.output,
		})
	case stage.RoleTransform:
		err = stagerunner.RunTransform(ctx, stagerunner.TransformConfig{
			Config: cfg, Instance: w.instance.(stage.Transform), Input: w.input, Output: w.output,
		})
	case stage.RoleSink:
		err = stagerunner.RunSink(ctx, stagerunner.SinkConfig{
			Config: cfg, Instance: w.instance.(stage.Sink), Input: w.input,
		})
	}

	if err != nil {
		logger.WithContext(ctx).Error("stage worker exited with a fault", logger.ErrorFields("stage.run", err))
		if o.flow.Execution.Mode == flowspec.ModeStreaming {
			o.tok.RequestStop()
		}
	}

	if w.role == stage.RoleSource || w.role == stage.RoleTransform {
		if counter := o.producer[outputQueueName(o.flow, w.stageName)]; counter != nil {
			if counter.Add(-1) == 0 {
				o.queues[outputQueueName(o.flow, w.stageName)].Close()
			}
		}
	}

	_ = o.reg.DestroyStage(w.handle)

	if o.active.Add(-1) == 0 && o.flow.Execution.Mode == flowspec.ModeJob {
		o.tok.RequestStop()
	}
}

func outputQueueName(f *flowspec.Flow, stageName string) string {
	for _, s := range f.Stages {
		if s.Name == stageName {
			return s.OutputQueue
		}
	}
	return ""
}

// waitLoop polls the cancellation token (relaying the OS signal flag into
// it) and ctx until one of them fires, then closes every queue so any
// worker still blocked on a full push wakes deterministically.
func (o *orchestrator) waitLoop(ctx context.Context) {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	defer o.closeAllQueues()

	for {
		select {
		case <-ctx.Done():
			o.tok.RequestStop()
			return
		case <-ticker.C:
			signalrelay.Relay(o.tok)
			o.reportQueueDepths(ctx)
			if o.tok.StopRequested() {
				return
			}
		}
	}
}

// reportQueueDepths polls every queue's buffered item count and records it,
// skipped entirely when no metrics recorder was configured for this run.
func (o *orchestrator) reportQueueDepths(ctx context.Context) {
	if o.opts.Metrics == nil {
		return
	}
	for name, q := range o.queues {
		o.opts.Metrics.RecordQueueDepth(ctx, name, int64(q.Len()))
	}
}

func (o *orchestrator) closeAllQueues() {
	for _, q := range o.queues {
		q.Close()
	}
}
