// Package config defines packaging settings used by the binaries and
// provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the target platform, the framework install
// prefix, working directories and the lists of artifacts to package.
package config
