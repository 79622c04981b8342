package constants

import (
	"time"
)

// Remote cluster defaults
const (
	// DefaultRemoteHost - login node of the cluster running the profiler
	DefaultRemoteHost = "130.60.24.133"

	// DefaultRemotePort - SSH port on the login node
	DefaultRemotePort = 22

	// DefaultKeyFile - private key looked up under ~/.ssh when no key path is configured
	DefaultKeyFile = "id_rsa"
)

// Remote protocol
const (
	// ExistsSentinel - exact trimmed stdout of the existence check for a present directory
	ExistsSentinel = "exists"

	// ResultsSubdir - subdirectory of the remote output directory holding artifacts
	ResultsSubdir = "results"

	// ArtifactSuffix - suffix of result files harvested by a results download
	ArtifactSuffix = ".docx"

	// SampleSeparator - separator between a sample name and the rest of a read filename
	SampleSeparator = "_"

	// SampleListSeparator - separator between sample names in the submission argument
	SampleListSeparator = " "
)

// Local state
const (
	// ResultsDirName - directory under the user's home holding results and the error log
	ResultsDirName = "tbgui-results"

	// ErrorLogName - append-only error log inside ResultsDirName
	ErrorLogName = "error.log"

	// DebugLogName - rotating JSON log written by --debug-log inside the log directory
	DebugLogName = "tbgui.log"

	// DefaultTemplateFilename - suggested local name for the downloaded default template
	DefaultTemplateFilename = "default_template.docx"
)

// Transfer
const (
	// TransferChunkSize - read/write buffer for streamed file copies (4 KiB)
	TransferChunkSize = 4096

	// DiskSpaceSafetyMargin - multiplier applied to the bytes a results download needs
	DiskSpaceSafetyMargin = 1.15
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size for event channels
	EventBusMaxBuffer = 4096
)

// Timeouts
const (
	// SSHDialTimeout - timeout for TCP connect plus SSH handshake
	SSHDialTimeout = 30 * time.Second

	// CommandTimeout - default timeout for a single remote command
	CommandTimeout = 2 * time.Minute

	// TransferTimeout - timeout for a full results or template transfer
	TransferTimeout = 30 * time.Minute
)

// UI Updates
const (
	// ProgressRefreshRate - refresh rate of terminal progress bars
	ProgressRefreshRate = 300 * time.Millisecond
)
