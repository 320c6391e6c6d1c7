package runtime

import "strconv"

// Metric paths emitted by the collector. They use the logger's slash form and
// become dotted names once formatted.
const (
	MAlloc         = "/runtime/memory/alloc"
	MTotalAlloc    = "/runtime/memory/total_alloc"
	MSys           = "/runtime/memory/sys"
	MHeapAlloc     = "/runtime/memory/heap_alloc"
	MHeapInuse     = "/runtime/memory/heap_inuse"
	MHeapObjects   = "/runtime/memory/heap_objects"
	MStackInuse    = "/runtime/memory/stack_inuse"
	MNumGC         = "/runtime/gc/count"
	MPauseTotalNs  = "/runtime/gc/pause_total_ns"
	MGCCPUFraction = "/runtime/gc/cpu_fraction"
	MGoroutines    = "/runtime/goroutines"
	MPollCount     = "/runtime/poll"

	TotalMemory = "/host/memory/total"
	FreeMemory  = "/host/memory/free"
)

// TagCPU names the tag carrying the 1-based CPU index.
const TagCPU = "cpu"

// CPUUtilization returns the path for the n-th CPU (1-based). The index is
// part of the name because tags only survive when allow-listed.
func CPUUtilization(n int) string {
	return "/host/cpu/" + strconv.Itoa(n) + "/utilization"
}
