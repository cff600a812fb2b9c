// Package config loads and watches the agent configuration file.
//
// Top-level types:
//   - Config{Agent, Log, Assets, Thresholds}: full tree parsed from YAML
//   - AgentConfig: server_endpoint, inspect_interval, ship_interval,
//     buffer_size, sources[], server_auth
//   - Source: id, asset, type (file|prometheus|opcua), endpoint or path,
//     points{key: selector}, hydraulic design point, auth, opcua options
//   - AuthConfig: mode (apikey|bearer|basic|none), header, key_env,
//     token_env, password_env; secrets resolve from environment variables
//
// Assets falls back to the built-in plant catalog when empty. Thresholds
// starts from health.DefaultConfig so a file only lists what it overrides.
//
// Load(path) reads the YAML file, applies defaults (1m inspect, 15s ship,
// 1000 buffer), then validates required fields and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It re-adds the watch after an event
// to survive the rename-then-create pattern of atomic-save editors.
package config
