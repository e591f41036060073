package config

// builtinSchema supplies the shape of a configuration file and every
// default. A file only needs to name the values it changes.
const builtinSchema = `
#Config: {
	// Known compose project names
	projects: [...string] | *["juno", "helios"]

	// Case-insensitive substrings matched during verification
	patterns: [...string] | *["juno", "helios"]

	compose: {
		binary:  string | *"docker"
		base:    string | *"docker-compose.yml"
		runtime: string | *"docker-compose.runtime.yml"
	}

	setup: {
		power_mode: =~"^[0-9]+$" | *"0"
		user:       string | *""
		state_file: string | *".setup_complete.toml"
	}

	launch: {
		dir:      string | *"."
		services: [...string] | *["stt-stream", "llm", "tts"]
		hook:     string | *"setup-echo.sh"
	}

	telemetry: {
		log_level:      "trace" | "debug" | *"info" | "warn" | "error"
		log_format:     *"console" | "json"
		metrics_file:   string | *""
		trace_exporter: *"none" | "stdout" | "otlp"
		trace_endpoint: string | *""
	}
}
`
