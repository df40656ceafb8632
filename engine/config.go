package engine

import "github.com/BurntSushi/toml"

// Config holds the engine's tunable constants — [AMBIENT], grounded on
// the pack's `y3owk1n-neru` toml.DecodeFile config loader.
type Config struct {
	// MaxOperationSizeColRow bounds how many rows/columns a single
	// SetCellValues batch may cover during DeleteColumn/DeleteRow —
	// spec §4.6 "batched into chunks of at most MAX_OPERATION_SIZE_COL_ROW."
	MaxOperationSizeColRow int `toml:"max_operation_size_col_row"`

	// RendererQuadrantHeight is CELL_SHEET_HEIGHT, the dirty-hash
	// granularity in rows — spec §4.6 step 9.
	RendererQuadrantHeight int `toml:"renderer_quadrant_height"`

	// ScriptSuspensionTimeoutMS bounds how long a transaction may sit
	// with waiting_for_async set before the host is expected to call
	// code_cell_sheet_error to cancel it — spec §5 "Cancellation."
	ScriptSuspensionTimeoutMS int `toml:"script_suspension_timeout_ms"`
}

// DefaultConfig mirrors the constants spec.md cites inline (§4.6,
// §4.6 step 9).
func DefaultConfig() Config {
	return Config{
		MaxOperationSizeColRow:    10000,
		RendererQuadrantHeight:    cellSheetHeight,
		ScriptSuspensionTimeoutMS: 30000,
	}
}

// LoadConfig reads a Config from a TOML file, falling back to
// DefaultConfig for any field the file does not set.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}
