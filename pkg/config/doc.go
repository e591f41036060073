// Package config loads the junoctl configuration.
//
// A configuration file is written in CUE and only needs the values it
// changes; a built-in schema supplies the shape and every default:
//
//	projects: ["juno", "helios", "lab"]
//	compose: runtime: "docker-compose.jetson.yml"
//	telemetry: {
//		log_format:   "json"
//		metrics_file: "/var/lib/node_exporter/junoctl.prom"
//	}
//
// The unified value is decoded into Config and checked with validator
// struct tags. CUE errors carry file positions and are reported together
// in a LoadError.
package config
