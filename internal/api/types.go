package api

import "time"

// HealthInfo is the unauthenticated liveness response.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// LoginResult carries the bearer token minted for a password login and its
// lifetime in seconds.
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}

// AuthStatus reports whether the configured credential is currently valid.
type AuthStatus struct {
	Authenticated bool `json:"authenticated"`
}

// CPUStats describes processor usage at one instant.
type CPUStats struct {
	Percent float64 `json:"percent"`
	Cores   int     `json:"cores"`
	Model   string  `json:"model,omitempty"`
}

// MemStats describes a memory pool (RAM or swap) in bytes.
type MemStats struct {
	Total     uint64  `json:"total"`
	Used      uint64  `json:"used"`
	Available uint64  `json:"available"`
	Percent   float64 `json:"percent"`
}

// DiskStats describes usage of the root filesystem in bytes.
type DiskStats struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// NetStats carries interface-aggregate counters and derived speeds.
// Speeds are bytes per second computed by the agent between samples.
type NetStats struct {
	RxBytes uint64  `json:"rxBytes"`
	TxBytes uint64  `json:"txBytes"`
	RxSpeed float64 `json:"rxSpeed"`
	TxSpeed float64 `json:"txSpeed"`
}

// LoadStats holds the 1, 5 and 15 minute load averages.
type LoadStats struct {
	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`
}

// StatsSnapshot is one full reading of an agent's system state. Snapshots
// are immutable values; the live stream and the history endpoint both
// produce them.
type StatsSnapshot struct {
	Hostname        string    `json:"hostname"`
	Platform        string    `json:"platform"`
	PlatformVersion string    `json:"platformVersion,omitempty"`
	KernelVersion   string    `json:"kernelVersion,omitempty"`
	Uptime          uint64    `json:"uptime"`
	BootTime        uint64    `json:"bootTime"`
	CPU             CPUStats  `json:"cpu"`
	Memory          MemStats  `json:"memory"`
	Swap            MemStats  `json:"swap"`
	Disk            DiskStats `json:"disk"`
	Network         NetStats  `json:"network"`
	Load            LoadStats `json:"load"`
	Processes       int       `json:"processes"`
	Threads         int       `json:"threads"`
	Timestamp       time.Time `json:"timestamp"`
}

// ProcessInfo is one row of the agent's process table.
type ProcessInfo struct {
	PID        int     `json:"pid"`
	User       string  `json:"user"`
	Name       string  `json:"name"`
	Command    string  `json:"command"`
	CPUPercent float64 `json:"cpuPercent"`
	MemPercent float64 `json:"memPercent"`
	RSSBytes   uint64  `json:"rssBytes"`
}

// FileInfo describes one directory entry.
type FileInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	IsDir   bool      `json:"isDir"`
	Size    int64     `json:"size"`
	Mode    string    `json:"mode"`
	ModTime time.Time `json:"modTime"`
}

// DirListing is the contents of one directory.
type DirListing struct {
	Path    string     `json:"path"`
	Entries []FileInfo `json:"entries"`
}

// FileContent is a text file read through the agent.
type FileContent struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// UploadResult acknowledges a multipart upload.
type UploadResult struct {
	Filename string `json:"filename"`
}

// SearchMatch is one hit of a filename or content search. Lines is populated
// only for content searches.
type SearchMatch struct {
	Path    string      `json:"path"`
	IsDir   bool        `json:"isDir"`
	Size    int64       `json:"size"`
	ModTime time.Time   `json:"modTime"`
	Lines   []MatchLine `json:"lines,omitempty"`
}

// MatchLine is one matching line of a content search.
type MatchLine struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// SearchResult wraps search hits with the total count reported by the agent.
type SearchResult struct {
	Results []SearchMatch `json:"results"`
	Count   int           `json:"count"`
}

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
	JobStopped JobStatus = "stopped"
)

// Job is a shell command managed by the agent.
type Job struct {
	ID         string     `json:"id"`
	Command    string     `json:"command"`
	Cwd        string     `json:"cwd,omitempty"`
	Status     JobStatus  `json:"status"`
	PID        int        `json:"pid,omitempty"`
	ExitCode   *int       `json:"exitCode,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// JobLogs holds the captured output streams of a job.
type JobLogs struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Unit is one systemd unit as reported by the agent.
type Unit struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LoadState   string `json:"loadState"`
	ActiveState string `json:"activeState"`
	SubState    string `json:"subState"`
}

// UnitAction names a systemd verb the agent will apply to a unit.
type UnitAction string

const (
	UnitStart   UnitAction = "start"
	UnitStop    UnitAction = "stop"
	UnitRestart UnitAction = "restart"
	UnitReload  UnitAction = "reload"
	UnitEnable  UnitAction = "enable"
	UnitDisable UnitAction = "disable"
)

// UnitActionResult acknowledges a unit action.
type UnitActionResult struct {
	Unit   string `json:"unit"`
	Action string `json:"action"`
	Result string `json:"result"`
}
