package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
)

var (
	traceInitial int
	traceNoMap   bool
)

func init() {
	cmd := newTraceCmd()
	cmd.Flags().IntVar(&traceInitial, "initial", 0, "Bytes requested for the first region")
	cmd.Flags().BoolVar(&traceNoMap, "no-map", false, "Skip the block map")
	rootCmd.AddCommand(cmd)
}

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <file|->",
		Short: "Replay an allocation trace",
		Long: `The trace command replays a script of allocations and releases against
a fresh heap, then prints the block chain and allocator statistics.

One operation per line, '#' starts a comment:
  alloc <name> <size>   allocate size bytes and remember the payload as name
  free <name>           release the payload remembered as name
  verify                check the heap invariants

Every payload is filled with a marker byte on allocation and checked on
release, so a block overwritten by a neighbor fails the replay.

Example:
  heapctl trace workload.txt
  heapctl trace - --arena 1048576 < workload.txt
  heapctl trace workload.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(args)
		},
	}
	return cmd
}

type traceOp struct {
	line int
	kind string
	name string
	size int
}

type liveAlloc struct {
	p       heap.Ptr
	payload []byte
	fill    byte
}

type blockRow struct {
	Addr     string `json:"addr"`
	Capacity int    `json:"capacity"`
	Free     bool   `json:"free"`
	Name     string `json:"name,omitempty"`
}

type traceReport struct {
	Ops     int               `json:"ops"`
	Live    int               `json:"live"`
	Stats   heap.Stats        `json:"stats"`
	Usage   heap.Usage        `json:"usage"`
	Regions []heap.RegionInfo `json:"regions"`
	Blocks  []blockRow        `json:"blocks"`
}

func runTrace(args []string) error {
	path := args[0]

	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open trace: %w", err)
		}
		defer f.Close()
		in = f
	}

	ops, err := parseTrace(in)
	if err != nil {
		return err
	}
	printVerbose("Parsed %d operations from %s\n", len(ops), path)

	h, err := newHeap(traceInitial)
	if err != nil {
		return err
	}
	live, err := replayTrace(h, ops)
	if err != nil {
		return err
	}

	report, err := buildReport(h, len(ops), live)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(report)
	}

	if !traceNoMap {
		blocks, err := h.Blocks()
		if err != nil {
			return err
		}
		printInfo("%s\n", renderBlockMap(blocks, namesByPtr(live), noColor))
	}
	printSummary(report)
	return nil
}

// parseTrace reads a trace script. Errors carry the 1-based line number.
func parseTrace(r io.Reader) ([]traceOp, error) {
	var ops []traceOp
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		op := traceOp{line: line, kind: strings.ToLower(fields[0])}
		switch op.kind {
		case "alloc":
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: usage: alloc <name> <size>", line)
			}
			size, err := strconv.Atoi(fields[2])
			if err != nil || size < 0 {
				return nil, fmt.Errorf("line %d: invalid size %q", line, fields[2])
			}
			op.name, op.size = fields[1], size
		case "free":
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: usage: free <name>", line)
			}
			op.name = fields[1]
		case "verify":
			if len(fields) != 1 {
				return nil, fmt.Errorf("line %d: verify takes no arguments", line)
			}
		default:
			return nil, fmt.Errorf("line %d: unknown operation %q", line, fields[0])
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	return ops, nil
}

// replayTrace applies ops in order and returns the allocations still live.
func replayTrace(h *heap.Heap, ops []traceOp) (map[string]liveAlloc, error) {
	live := make(map[string]liveAlloc)
	for _, op := range ops {
		switch op.kind {
		case "alloc":
			if _, ok := live[op.name]; ok {
				return nil, fmt.Errorf("line %d: %q is already allocated", op.line, op.name)
			}
			p, payload, err := h.Alloc(op.size)
			if err != nil {
				return nil, fmt.Errorf("line %d: alloc %s %d: %w", op.line, op.name, op.size, err)
			}
			fill := byte(op.line%255) + 1
			for i := range payload {
				payload[i] = fill
			}
			live[op.name] = liveAlloc{p: p, payload: payload, fill: fill}
			printVerbose("alloc %s %d -> %#x\n", op.name, op.size, uintptr(p))

		case "free":
			a, ok := live[op.name]
			if !ok {
				return nil, fmt.Errorf("line %d: %q is not allocated", op.line, op.name)
			}
			for i, c := range a.payload {
				if c != a.fill {
					return nil, fmt.Errorf("line %d: payload of %q overwritten at byte %d", op.line, op.name, i)
				}
			}
			if err := h.Free(a.p); err != nil {
				return nil, fmt.Errorf("line %d: free %s: %w", op.line, op.name, err)
			}
			delete(live, op.name)
			printVerbose("free %s (%#x)\n", op.name, uintptr(a.p))

		case "verify":
			if err := h.Verify(); err != nil {
				return nil, fmt.Errorf("line %d: %w", op.line, err)
			}
			printVerbose("verify ok\n")
		}
	}
	return live, nil
}

func namesByPtr(live map[string]liveAlloc) map[heap.Ptr]string {
	names := make(map[heap.Ptr]string, len(live))
	for name, a := range live {
		names[a.p] = name
	}
	return names
}

func buildReport(h *heap.Heap, ops int, live map[string]liveAlloc) (traceReport, error) {
	usage, err := h.Usage()
	if err != nil {
		return traceReport{}, err
	}
	blocks, err := h.Blocks()
	if err != nil {
		return traceReport{}, err
	}
	names := namesByPtr(live)

	rows := make([]blockRow, 0, len(blocks))
	for _, b := range blocks {
		rows = append(rows, blockRow{
			Addr:     fmt.Sprintf("%#x", b.Addr),
			Capacity: b.Capacity,
			Free:     b.Free,
			Name:     names[b.Payload],
		})
	}
	return traceReport{
		Ops:     ops,
		Live:    len(live),
		Stats:   h.Stats(),
		Usage:   usage,
		Regions: h.Regions(),
		Blocks:  rows,
	}, nil
}

func printSummary(r traceReport) {
	printInfo("Operations: %s (%s live)\n", formatNumber(int64(r.Ops)), formatNumber(int64(r.Live)))
	printInfo("Regions: %d (%d disjoint), %s mapped\n",
		r.Stats.Regions, r.Stats.DisjointRegions, formatBytes(r.Stats.BytesMapped))
	printInfo("Blocks: %s used, %s free\n",
		formatNumber(int64(r.Usage.UsedBlocks)), formatNumber(int64(r.Usage.FreeBlocks)))
	printInfo("Bytes: %s used, %s free, %s in headers\n",
		formatNumber(r.Usage.UsedBytes), formatNumber(r.Usage.FreeBytes), formatNumber(r.Usage.HeaderBytes))
	printInfo("Largest free block: %s bytes\n", formatNumber(int64(r.Usage.LargestFree)))
	printVerbose("Splits: %d, merges: %d, failed allocs: %d\n", r.Stats.Splits, r.Stats.Merges, r.Stats.FailedAllocs)
}
