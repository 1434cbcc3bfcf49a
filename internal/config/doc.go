// Package config loads veilscan configuration from local and global YAML
// files with precedence rules, and compiles rule files into rule sets. It
// is internal; CLI code maps flags and files into engine configuration.
package config
