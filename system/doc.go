// Package system defines the descriptors a system declares its resource
// requirements through: partition dependencies, global/simple/isotope
// requests, and entity creator/deleter/iterator requests. The topology
// package consumes these to build the dependency and exclusion graph; the
// executor consumes them to build the accessor objects handed to the
// system's run function.
package system
