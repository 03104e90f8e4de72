package notify

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"formbase/pkg/model"
)

// Evaluator matches responses against rule conditions.
type Evaluator interface {
	Evaluate(rule *Rule, eventType string, resp *model.Response) (bool, error)
}

// celEvaluator implements Evaluator using Google CEL. Compiled
// programs are cached per condition string.
type celEvaluator struct {
	env        *cel.Env
	prgCache   map[string]cel.Program
	cacheMutex sync.RWMutex
}

func NewEvaluator() (Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("response", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("event", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, err
	}

	return &celEvaluator{
		env:      env,
		prgCache: make(map[string]cel.Program),
	}, nil
}

func (e *celEvaluator) Evaluate(rule *Rule, eventType string, resp *model.Response) (bool, error) {
	if !rule.MatchesEvent(eventType) {
		return false, nil
	}

	if rule.FormID != "" && resp != nil && rule.FormID != resp.FormID {
		return false, nil
	}

	if rule.Condition == "" {
		return true, nil
	}

	prg, err := e.getProgram(rule.Condition)
	if err != nil {
		return false, fmt.Errorf("failed to get CEL program: %w", err)
	}

	input := map[string]interface{}{
		"event": map[string]interface{}{
			"type": eventType,
		},
		"response": nil,
	}

	if resp != nil {
		respMap := make(map[string]interface{})
		// Flatten answer fields; reserved keys overwrite on collision.
		for k, v := range resp.Data {
			respMap[k] = v
		}
		respMap["id"] = resp.ID
		respMap["formId"] = resp.FormID
		respMap["submittedAt"] = resp.SubmittedAt

		input["response"] = respMap
	}

	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("CEL evaluation error: %w", err)
	}

	match, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL condition must return boolean, got %T", out.Value())
	}

	return match, nil
}

func (e *celEvaluator) getProgram(condition string) (cel.Program, error) {
	e.cacheMutex.RLock()
	prg, ok := e.prgCache[condition]
	e.cacheMutex.RUnlock()
	if ok {
		return prg, nil
	}

	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()

	if prg, ok := e.prgCache[condition]; ok {
		return prg, nil
	}

	ast, issues := e.env.Compile(condition)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}

	e.prgCache[condition] = prg
	return prg, nil
}
