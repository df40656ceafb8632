package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gridkernel/sheetcore/engine"
	"github.com/gridkernel/sheetcore/grid"
	"github.com/gridkernel/sheetcore/script"
)

// kernelExecutor adapts script.KernelExecutor (which speaks plain
// strings, to stay decoupled from the engine package) to
// engine.ScriptExecutor, and forwards completed results into the
// controller that owns the suspended transaction.
type kernelExecutor struct {
	inner *script.KernelExecutor
}

func (k *kernelExecutor) Run(ctx context.Context, language, source string) (engine.ScriptToken, error) {
	token, err := k.inner.Run(ctx, language, source)
	return engine.ScriptToken(token), err
}

// connectKernel reads a Jupyter connection file (as produced by
// `jupyter kernel --kernel=...`) and wires a kernelExecutor whose
// results are delivered back into gc via CalculationComplete.
func connectKernel(ctx context.Context, connectionFile string, gc *engine.GridController, log *zap.Logger) (*kernelExecutor, error) {
	data, err := os.ReadFile(connectionFile)
	if err != nil {
		return nil, fmt.Errorf("gridctl: reading connection file: %w", err)
	}
	var cfg script.ConnectionInfo
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("gridctl: parsing connection file: %w", err)
	}

	onResult := func(token string, success bool, outText, errText string) {
		result := engine.ScriptResult{Success: success, Stdout: outText, ErrorMessage: errText}
		if success {
			result.OutputValue = &grid.CellValue{Type: grid.CellTypeString, Value: outText}
		}
		if _, err := gc.CalculationComplete(result); err != nil {
			log.Error("gridctl: delivering calculation result", zap.Error(err))
		}
	}

	inner, err := script.NewKernelExecutor(ctx, cfg, onResult, log)
	if err != nil {
		return nil, err
	}
	return &kernelExecutor{inner: inner}, nil
}
