// Package config loads the settings shared by the tensor bridge, its host
// module and tensorctl.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/wasm-tensor/bridge"
	"github.com/wippyai/wasm-tensor/errors"
	"github.com/wippyai/wasm-tensor/host"
	"github.com/wippyai/wasm-tensor/resource"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// notbuiltin rejects the heap's builtin type names.
	_ = v.RegisterValidation("notbuiltin", func(fl validator.FieldLevel) bool {
		return !resource.IsBuiltinName(fl.Field().String())
	})
	return v
}

// Config holds bridge and host module settings.
type Config struct {
	TypeName   string `json:"type_name" validate:"required,notbuiltin" jsonschema:"description=Host type name tensors are registered under,default=tensor"`
	ModuleName string `json:"module_name" validate:"required" jsonschema:"description=Import module name of the host functions,default=wasm:tensor/ops@0.1.0"`
	MaxObjects int    `json:"max_objects" validate:"gte=0" jsonschema:"description=Maximum live heap objects; 0 means unbounded,minimum=0"`
	Log        Log    `json:"log"`
}

// Log configures the zap logger built by NewLogger.
type Log struct {
	Level       string `json:"level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Development bool   `json:"development" jsonschema:"description=Human readable console output"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TypeName:   bridge.DefaultTypeName,
		ModuleName: host.DefaultModuleName,
		Log:        Log{Level: "info"},
	}
}

// Load reads a JSON file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "decode "+path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "config validation failed")
	}
	return nil
}

// Schema returns the JSON Schema of Config.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}

// NewLogger builds a zap logger for the configured level and mode.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log level")
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
