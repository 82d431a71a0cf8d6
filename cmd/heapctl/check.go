package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
)

var checkFresh bool

func init() {
	cmd := newCheckCmd()
	cmd.Flags().BoolVar(&checkFresh, "fresh", false, "Run every check on its own heap")
	rootCmd.AddCommand(cmd)
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the allocator correctness checks",
		Long: `The check command runs five allocation scenarios in order and stops at
the first failure:

  first   two small allocations (123 and 21 bytes, the latter rounded to 24)
  second  releasing the second of two blocks
  third   releasing the first two of three blocks
  fourth  a 16000 byte allocation that forces growth
  fifth   9000 then 16000 bytes

By default all checks share one heap, so later checks run on top of the
blocks earlier ones left behind. The heap is verified after every check.

Example:
  heapctl check
  heapctl check --fresh --arena 1048576
  heapctl check --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}
	return cmd
}

type checkResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"`
}

type scenario struct {
	name string
	run  func(h *heap.Heap) (bool, error)
}

var scenarios = []scenario{
	{name: "first", run: checkTwoSmall},
	{name: "second", run: checkReleaseSecond},
	{name: "third", run: checkReleaseFirstTwo},
	{name: "fourth", run: checkLargeGrows},
	{name: "fifth", run: checkTwoLarge},
}

func runCheck() error {
	var h *heap.Heap
	results := make([]checkResult, 0, len(scenarios))
	failed := ""

	for _, sc := range scenarios {
		if h == nil || checkFresh {
			var err error
			if h, err = newHeap(0); err != nil {
				return err
			}
		}

		ok, err := sc.run(h)
		if ok && err == nil {
			err = h.Verify()
		}
		res := checkResult{Name: sc.name, Passed: ok && err == nil}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)

		if !jsonOut {
			if res.Passed {
				printInfo("%s test is passed\n", sc.name)
			} else {
				printInfo("%s test is failed\n", sc.name)
				if err != nil {
					printVerbose("  %v\n", err)
				}
			}
		}
		if !res.Passed {
			failed = sc.name
			break
		}
	}

	if jsonOut {
		if err := printJSON(results); err != nil {
			return err
		}
	} else if h != nil {
		s := h.Stats()
		printVerbose("Regions: %d (%s mapped), grows: %d, splits: %d, merges: %d\n",
			s.Regions, formatBytes(s.BytesMapped), s.GrowCalls, s.Splits, s.Merges)
	}

	if failed != "" {
		return fmt.Errorf("%s test failed", failed)
	}
	return nil
}

func allocAll(h *heap.Heap, sizes ...int) ([]heap.Ptr, error) {
	ps := make([]heap.Ptr, 0, len(sizes))
	for _, n := range sizes {
		p, _, err := h.Alloc(n)
		if err != nil {
			return nil, fmt.Errorf("alloc %d: %w", n, err)
		}
		ps = append(ps, p)
	}
	return ps, nil
}

func blocksOf(h *heap.Heap, ps []heap.Ptr) ([]heap.BlockInfo, error) {
	out := make([]heap.BlockInfo, 0, len(ps))
	for _, p := range ps {
		b, err := h.Block(p)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func checkTwoSmall(h *heap.Heap) (bool, error) {
	ps, err := allocAll(h, 123, 21)
	if err != nil {
		return false, err
	}
	b, err := blocksOf(h, ps)
	if err != nil {
		return false, err
	}
	return b[0].Capacity == 123 && b[1].Capacity == heap.MinPayload &&
		!b[0].Free && !b[1].Free, nil
}

func checkReleaseSecond(h *heap.Heap) (bool, error) {
	ps, err := allocAll(h, 123, 21)
	if err != nil {
		return false, err
	}
	if err := h.Free(ps[1]); err != nil {
		return false, err
	}
	b, err := blocksOf(h, ps)
	if err != nil {
		return false, err
	}
	return b[1].Free && !b[0].Free, nil
}

func checkReleaseFirstTwo(h *heap.Heap) (bool, error) {
	ps, err := allocAll(h, 123, 21, 221)
	if err != nil {
		return false, err
	}
	for _, p := range ps[:2] {
		if err := h.Free(p); err != nil {
			return false, err
		}
	}
	b, err := blocksOf(h, ps)
	if err != nil {
		return false, err
	}
	return b[0].Free && b[1].Free && !b[2].Free, nil
}

func checkLargeGrows(h *heap.Heap) (bool, error) {
	ps, err := allocAll(h, 16000)
	if err != nil {
		return false, err
	}
	b, err := blocksOf(h, ps)
	if err != nil {
		return false, err
	}
	return !b[0].Free && b[0].Capacity == 16000, nil
}

func checkTwoLarge(h *heap.Heap) (bool, error) {
	ps, err := allocAll(h, 9000, 16000)
	if err != nil {
		return false, err
	}
	b, err := blocksOf(h, ps)
	if err != nil {
		return false, err
	}
	return !b[0].Free && !b[1].Free &&
		b[0].Capacity == 9000 && b[1].Capacity == 16000, nil
}
