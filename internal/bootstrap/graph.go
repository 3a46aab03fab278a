package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	platformerrors "trustlens-server-go/internal/platform/errors"
	"trustlens-server-go/internal/utils"
)

type stepFn func(context.Context, *appState) error

// initStep is one node of the startup graph. Steps run in slice order and may
// only depend on steps listed before them.
type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

// InitGraph lists the init steps in execution order.
func InitGraph() []initStep {
	return []initStep{
		{ID: "config:load", Title: "Load configuration",
			Kind: platformerrors.KindConfig, Execute: loadConfigStep},
		{ID: "logging:init-provider", Title: "Initialise logging provider",
			DependsOn: []string{"config:load"}, Execute: initLoggingStep},
		{ID: "observability:setup-hooks", Title: "Setup observability hooks",
			DependsOn: []string{"logging:init-provider"}, Execute: setupObservabilityStep},
		{ID: "storage:init-history", Title: "Initialise history store",
			DependsOn: []string{"logging:init-provider"}, Kind: platformerrors.KindStorage, Execute: initHistoryStep},
		{ID: "events:init-bus", Title: "Start analysis event bus",
			DependsOn: []string{"storage:init-history"}, Execute: initEventBusStep},
		{ID: "auth:init-tokens", Title: "Initialise API token verifier",
			DependsOn: []string{"logging:init-provider"}, Execute: initAuthStep},
		{ID: "analysis:init-scorers", Title: "Initialise scorers and media pipeline",
			DependsOn: []string{"logging:init-provider"}, Kind: platformerrors.KindAnalysis, Execute: initScorersStep},
	}
}

// validateGraph rejects duplicate ids, missing executors and dependencies that
// do not point at an earlier step, before anything runs.
func validateGraph(steps []initStep) error {
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		switch {
		case step.ID == "":
			return platformerrors.New(platformerrors.KindBootstrap, "init graph", "step without id")
		case seen[step.ID]:
			return platformerrors.New(platformerrors.KindBootstrap, step.ID, "duplicate step id")
		case step.Execute == nil:
			return platformerrors.New(platformerrors.KindBootstrap, step.ID, "missing execute function")
		}
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return platformerrors.New(platformerrors.KindBootstrap, step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep))
			}
		}
		seen[step.ID] = true
	}
	return nil
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "execute init steps", "nil bootstrap state")
	}
	if err := validateGraph(steps); err != nil {
		return err
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return platformerrors.Wrap(platformerrors.KindBootstrap, step.ID, "startup cancelled", err)
		}
		err := step.Execute(ctx, state)
		if err == nil {
			continue
		}
		var typed *platformerrors.Error
		if errors.As(err, &typed) {
			return err
		}
		kind := step.Kind
		if kind == "" {
			kind = platformerrors.KindBootstrap
		}
		return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
	}
	return nil
}

func logBootstrapGraph(steps []initStep, logger *utils.Logger) {
	logger.InfoTag("Bootstrap", "init graph (%d steps)", len(steps))
	for i, step := range steps {
		after := "-"
		if len(step.DependsOn) > 0 {
			after = strings.Join(step.DependsOn, ", ")
		}
		logger.InfoTag("Bootstrap", "  %d. %s: %s (after %s)", i+1, step.ID, step.Title, after)
	}
}
