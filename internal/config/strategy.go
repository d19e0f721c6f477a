package config

import (
	"strings"

	"scout/internal/logging"
)

// MCP invocation strategies.
const (
	StrategyFast     = "fast"
	StrategyDeep     = "deep"
	StrategyDisabled = "disabled"
)

// NormalizeStrategy maps a raw strategy string to one of the three canonical
// values. Legacy spellings are accepted with a deprecation warning; unknown
// values coerce to fast.
func NormalizeStrategy(raw string, logger logging.Logger) string {
	logger = logging.OrNop(logger)
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", StrategyFast:
		return StrategyFast
	case StrategyDeep:
		return StrategyDeep
	case StrategyDisabled:
		return StrategyDisabled
	case "optimized":
		logger.Warn("mcp strategy %q is deprecated, use %q", raw, StrategyFast)
		return StrategyFast
	case "comprehensive":
		logger.Warn("mcp strategy %q is deprecated, use %q", raw, StrategyDeep)
		return StrategyDeep
	default:
		logger.Warn("unknown mcp strategy %q, using %q", raw, StrategyFast)
		return StrategyFast
	}
}

// ResolveStrategy picks the effective MCP strategy for a task. An explicit
// task option wins over the configured value, which wins over the default.
func ResolveStrategy(taskOption string, cfg *Config, logger logging.Logger) string {
	if strings.TrimSpace(taskOption) != "" {
		return NormalizeStrategy(taskOption, logger)
	}
	if cfg != nil && strings.TrimSpace(cfg.MCPStrategy) != "" {
		return NormalizeStrategy(cfg.MCPStrategy, logger)
	}
	return StrategyFast
}

// StrategyFromMaxIterations maps the legacy numeric knob onto a strategy:
// 0 disables MCP, 1 is the single cached run, -1 runs per sub-query.
func StrategyFromMaxIterations(n int, logger logging.Logger) string {
	logger = logging.OrNop(logger)
	switch n {
	case 0:
		return StrategyDisabled
	case 1:
		return StrategyFast
	case -1:
		return StrategyDeep
	default:
		logger.Warn("mcp_max_iterations=%d has no strategy mapping, using %q", n, StrategyFast)
		return StrategyFast
	}
}
