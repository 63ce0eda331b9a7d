// Package memory keeps the server inside its container memory budget.
//
// [ConfigureFromEnv] derives GOMEMLIMIT from MEMORY_LIMIT (container limit
// in bytes, usually passed through the Kubernetes Downward API) and
// MEMORY_RATIO (share given to the Go heap, default 0.85). An explicit
// GOMEMLIMIT always wins.
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//
// A [Monitor] samples heap usage against that limit. When usage reaches the
// critical watermark it pauses scan workers through [Monitor.WaitIfPaused]
// and runs its OnCritical hook; workers resume once usage falls below the
// high watermark. Usage and pause state are exported as
// dicom_viewer_memory_usage_ratio and dicom_viewer_memory_paused.
package memory
