package main

import "time"

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
}

// UpFlags holds flags for the up (bootstrap + handoff) command.
type UpFlags struct {
	Display       int
	Geometry      string
	VNCPort       int
	BridgePort    int
	AssetsDir     string
	WorkerCommand string
	WorkerDir     string
}

// RunFlags holds flags for the resident run command.
type RunFlags struct {
	UpFlags
	Listen string
}

// ProbeFlags holds flags for the one-shot probe command.
type ProbeFlags struct {
	Attempts int
	Delay    time.Duration
	Timeout  time.Duration
}

// ReapFlags holds flags for the manual reap command.
type ReapFlags struct {
	Display int
}
