// Package xperf parses the heap activity dump printed by `xperf -i`.
//
// The input is the text rendering of an ETW heap trace. Producing it is a
// manual step on a Windows host:
//
//	# kernel logger, needed for module and process resolution
//	xperf -on base
//
//	# heap session, either for all processes or for a newly started one
//	xperf -start heapsession -heap -pids 0 -stackwalk HeapAlloc+HeapRealloc+HeapCreate+HeapDestroy+HeapFree
//	xperf -start heapsession -heap -PidNewProcess notepad.exe -stackwalk HeapAlloc+HeapRealloc+HeapCreate+HeapDestroy+HeapFree
//
//	# stop both sessions and merge
//	xperf -stop -stop heapsession -d trace.etl
//
//	# the text this package reads
//	xperf -i trace.etl [-symbols]
//
// Without -PidNewProcess the target executable must have heap tracing
// enabled through the TracingFlags value under its Image File Execution
// Options registry key.
//
// The dump starts with a header that declares the column layout of each row
// kind, terminated by an EndHeader line. The parser refuses any header that
// does not declare the six layouts it reads by position (HeapCreate,
// HeapDestroy, HeapAlloc, HeapFree, HeapRealloc and Stack). Body rows are
// dispatched on their first column. Stack rows that follow each other form
// one call stack, and a frame numbered 1 begins the next one. Events and
// completed stacks are then paired by position. A dump that ends before
// EndHeader has no body and parses to no events.
package xperf
