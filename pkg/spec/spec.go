// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package spec holds the validated workflow specification tree: runtime
// config, agent definitions, a tagged-variant pattern config, input
// defaults, and output artifact templates. Values arrive as untyped YAML/
// JSON maps and are converted once, at load time, into these typed
// structs — downstream code never inspects raw maps.
package spec

import "time"

// PatternType names one of the seven coordination disciplines.
type PatternType string

const (
	PatternChain               PatternType = "chain"
	PatternRouting             PatternType = "routing"
	PatternParallel            PatternType = "parallel"
	PatternWorkflow            PatternType = "workflow"
	PatternGraph               PatternType = "graph"
	PatternEvaluatorOptimizer  PatternType = "evaluator_optimizer"
	PatternOrchestratorWorkers PatternType = "orchestrator_workers"
)

// BackoffMode is one of the three retry backoff strategies.
type BackoffMode string

const (
	BackoffConstant           BackoffMode = "constant"
	BackoffExponential        BackoffMode = "exponential"
	BackoffExponentialJittered BackoffMode = "exponential-jittered"
)

// Spec is the top-level, validated specification document.
type Spec struct {
	Version  int
	Name     string
	Runtime  Runtime
	Agents   map[string]AgentSpec
	Pattern  Pattern
	Inputs   map[string]any
	Outputs  []ArtifactSpec
	Context  ContextPolicy
	Schedule string // optional cron expression, see pkg/schedule
}

// Runtime describes provider selection, budgets, retry policy, and the
// concurrency cap. MaxParallel applies where a pattern config leaves its
// own max_parallel unset; ModelID is overridden per-agent by
// AgentSpec.ModelID.
type Runtime struct {
	Provider      string
	ModelID       string
	Budgets       Budgets
	FailurePolicy FailurePolicy
	MaxParallel   int
}

// Budgets bounds token, step, and wall-clock consumption for a run.
type Budgets struct {
	MaxTokens     int     // 0 = unbounded
	MaxSteps      int     // 0 = unbounded
	MaxDurationS  int     // 0 = unbounded
	WarnThreshold float64 // fraction of MaxTokens, default 0.8
}

// FailurePolicy configures retry behavior for transient failures.
type FailurePolicy struct {
	Retries int
	Backoff BackoffMode
	WaitMin time.Duration
	WaitMax time.Duration
}

// AgentSpec describes one named LLM persona.
type AgentSpec struct {
	ID         string
	Prompt     string
	Tools      []string
	ModelID    string // overrides Runtime.ModelID when non-empty
	Inference  map[string]any
	SecretFrom string // credential source tag; capability gate requires "env"
}

// ContextPolicy configures the compaction hook.
type ContextPolicy struct {
	Compaction CompactionConfig
}

// CompactionConfig mirrors the Compaction Hook's tunables (§4.4).
type CompactionConfig struct {
	Enabled                 bool
	WhenTokensOver          int
	SummaryRatio            float64
	PreserveRecentMessages  int
	SummarizationModel      string
}

// ArtifactSpec is one declared output file: a path template and a content
// template, both rendered against the final Execution Context.
type ArtifactSpec struct {
	Path  string
	From  string
	Force bool
}

// Pattern is a tagged-variant payload: exactly one of the embedded configs
// is populated, selected by Type. This is the "seven variants dispatched to
// seven executor functions" shape spec §9 calls for, not a class hierarchy.
type Pattern struct {
	Type               PatternType
	Chain              *ChainConfig
	Routing            *RoutingConfig
	Parallel           *ParallelConfig
	Workflow           *WorkflowConfig
	Graph              *GraphConfig
	EvaluatorOptimizer *EvaluatorOptimizerConfig
	OrchestratorWorkers *OrchestratorWorkersConfig
}

// ChainConfig is an ordered list of steps.
type ChainConfig struct {
	Steps []StepConfig `yaml:"steps"`
}

// StepConfig is one chain step: which agent, and its input template.
type StepConfig struct {
	Agent string `yaml:"agent"`
	Input string `yaml:"input"`
}

// RoutingConfig selects a route based on a router agent's classification.
type RoutingConfig struct {
	RouterAgent string       `yaml:"router_agent"`
	Input       string       `yaml:"input"`
	Routes      []RouteConfig `yaml:"routes"`
	Default     *ChainConfig `yaml:"default"`
}

// RouteConfig is one candidate route: a boolean condition and the inner
// chain to run when it is the first to match.
type RouteConfig struct {
	Name      string      `yaml:"name"`
	Condition string      `yaml:"condition"`
	Chain     ChainConfig `yaml:"chain"`
}

// ParallelConfig is a set of independent branches plus an optional reduce
// step.
type ParallelConfig struct {
	MaxParallel int            `yaml:"max_parallel"`
	Branches    []BranchConfig `yaml:"branches"`
	Reduce      *StepConfig    `yaml:"reduce"`
}

// BranchConfig is one parallel branch: an id and its inner chain.
type BranchConfig struct {
	ID    string      `yaml:"id"`
	Chain ChainConfig `yaml:"chain"`
}

// WorkflowConfig is a DAG of tasks with dependency edges.
type WorkflowConfig struct {
	MaxParallel int          `yaml:"max_parallel"`
	Tasks       []TaskConfig `yaml:"tasks"`
}

// TaskConfig is one DAG task.
type TaskConfig struct {
	ID        string   `yaml:"id"`
	Agent     string   `yaml:"agent"`
	Input     string   `yaml:"input"`
	DependsOn []string `yaml:"depends_on"`
}

// GraphConfig is a cyclic graph of agent nodes connected by edges.
type GraphConfig struct {
	StartNode     string       `yaml:"start_node"`
	EndNodes      []string     `yaml:"end_nodes"`
	MaxIterations int          `yaml:"max_iterations"`
	Nodes         []NodeConfig `yaml:"nodes"`
}

// NodeConfig is one graph node.
type NodeConfig struct {
	ID    string       `yaml:"id"`
	Agent string       `yaml:"agent"`
	Input string       `yaml:"input"`
	Edges []EdgeConfig `yaml:"edges"`
}

// EdgeConfig is one outgoing edge from a node. Condition empty means
// unconditional. Targets may carry more than one static id in the schema;
// only Targets[0] is ever taken (spec §9 open question resolution) — the
// rest are reported as an informational capability-gate warning.
type EdgeConfig struct {
	Condition string   `yaml:"condition"`
	Targets   []string `yaml:"targets"`
}

// EvaluatorOptimizerConfig names the three collaborating agents and the
// loop's termination rules.
type EvaluatorOptimizerConfig struct {
	Producer         string  `yaml:"producer"`
	Evaluator        string  `yaml:"evaluator"`
	Optimizer        string  `yaml:"optimizer"`
	Input            string  `yaml:"input"`
	ScorePath        string  `yaml:"score_path"`
	QualityThreshold float64 `yaml:"quality_threshold"`
	MaxIterations    int     `yaml:"max_iterations"`
}

// OrchestratorWorkersConfig names the planning and reducing agents and the
// pool of declared worker agents the plan may reference. MaxRounds bounds
// re-planning; this implementation supports exactly one round and the
// capability gate rejects specs that ask for more (spec §9 scope note).
type OrchestratorWorkersConfig struct {
	Orchestrator string      `yaml:"orchestrator"`
	Input        string      `yaml:"input"`
	Workers      []string    `yaml:"workers"`
	Reduce       *StepConfig `yaml:"reduce"`
	MaxParallel  int         `yaml:"max_parallel"`
	MaxRounds    int         `yaml:"max_rounds"`
}
