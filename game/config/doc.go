// Package config provides scenario management for the warehouse robot server.
//
// The config package handles:
//   - Loading scenarios from JSON, HCL and plain puzzle text files
//   - Scenario validation before any session can use it
//   - Default scenario selection and caching
//
// Scenario Formats:
//
// A scenario is identified by its file name without extension. When a
// request names "small", the manager tries small.json, small.hcl and
// small.txt in that order.
//
//   - .json: the ScenarioConfig fields as written by SaveConfig
//   - .hcl: the same fields as HCL attributes plus a messages block
//   - .txt: a raw puzzle (map rows, blank line, moves), read by package puzzle
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	scenario, err := manager.LoadConfig("wide_small")
//	configs, err := manager.ListConfigs()
//
// When no small scenario exists the first loadable file becomes the default,
// and an empty directory falls back to the built-in scenario.
package config
