package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/vmkit/vm"
	"github.com/joshuapare/vmkit/vm/alloc"
	"github.com/joshuapare/vmkit/vm/memory"
	"github.com/joshuapare/vmkit/vm/status"
)

var replayMapped bool

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(&replayMapped, "mapped", false, "Back chunks with anonymous mappings")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Run an allocation script and print the resulting layout",
		Long: `The replay command runs the steps of an allocation script against a
fresh runtime, then prints every chunk's block layout and the allocator
statistics.

Script format:
  config:
    seed_capacity: 32768
  steps:
    - {op: alloc, name: a, size: 100}
    - {op: write, name: a, offset: 0, text: "hello"}
    - {op: realloc, name: a, size: 200}
    - {op: free, name: a}
    - {op: defrag}
    - {op: verify}

Example:
  vmctl replay fragment.yaml
  vmctl replay fragment.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
	return cmd
}

// Script is an allocation script.
type Script struct {
	Config ScriptConfig `yaml:"config"`
	Steps  []Step       `yaml:"steps"`
}

// ScriptConfig maps onto alloc.Config. Zero fields take their defaults.
type ScriptConfig struct {
	SeedCapacity uint32 `yaml:"seed_capacity"`
	MinChunk     uint32 `yaml:"min_chunk"`
	MaxChunk     uint32 `yaml:"max_chunk"`
	Mapped       bool   `yaml:"mapped"`
}

// Step is one script operation. Name refers to a block created by an
// earlier alloc step.
type Step struct {
	Op     string `yaml:"op"`
	Name   string `yaml:"name"`
	Size   uint32 `yaml:"size"`
	Offset int    `yaml:"offset"`
	Text   string `yaml:"text"`
}

// StepResult records what one step did.
type StepResult struct {
	Index  int      `json:"index"`
	Op     string   `json:"op"`
	Name   string   `json:"name,omitempty"`
	Addr   string   `json:"addr,omitempty"`
	Size   uint32   `json:"size,omitempty"`
	Status []string `json:"status,omitempty"`
}

// ChunkReport is one chunk's final state.
type ChunkReport struct {
	memory.Stats
	Blocks []memory.Block `json:"blocks"`
}

// Report is the outcome of a replay.
type Report struct {
	Steps  []StepResult  `json:"steps"`
	Chunks []ChunkReport `json:"chunks"`
	Stats  alloc.Stats   `json:"stats"`
}

func loadScript(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &s, nil
}

func runReplay(args []string) error {
	path := args[0]
	printVerbose("Loading script: %s\n", path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	script, err := loadScript(f)
	if err != nil {
		return err
	}
	if replayMapped {
		script.Config.Mapped = true
	}

	report, err := replay(script)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

// replay runs script against a fresh runtime. Runtime status codes are
// recorded per step; malformed steps and failed verification are errors.
func replay(script *Script) (*Report, error) {
	rt, err := vm.New(vm.Options{Alloc: alloc.Config{
		SeedCapacity: script.Config.SeedCapacity,
		MinChunk:     script.Config.MinChunk,
		MaxChunk:     script.Config.MaxChunk,
		Mapped:       script.Config.Mapped,
	}})
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	a := rt.Allocator()
	blocks := make(map[string]*memory.Memory)
	lookup := func(i int, s Step) (*memory.Memory, error) {
		m, ok := blocks[s.Name]
		if !ok {
			return nil, fmt.Errorf("step %d (%s): unknown block %q", i, s.Op, s.Name)
		}
		return m, nil
	}

	report := &Report{}
	for i, s := range script.Steps {
		status.Clear()
		res := StepResult{Index: i, Op: s.Op, Name: s.Name}

		switch s.Op {
		case "alloc":
			if s.Name == "" {
				return nil, fmt.Errorf("step %d (alloc): name is required", i)
			}
			if m := a.Alloc(s.Size); m != nil {
				blocks[s.Name] = m
			} else {
				delete(blocks, s.Name)
			}
		case "realloc":
			m, err := lookup(i, s)
			if err != nil {
				return nil, err
			}
			blocks[s.Name] = a.Realloc(m, s.Size)
		case "free":
			m, err := lookup(i, s)
			if err != nil {
				return nil, err
			}
			a.Free(m)
		case "write":
			m, err := lookup(i, s)
			if err != nil {
				return nil, err
			}
			m.PutChars(s.Offset, s.Text)
		case "defrag":
			a.Defragment()
		case "verify":
			if err := a.Verify(); err != nil {
				return nil, fmt.Errorf("step %d (verify): %w", i, err)
			}
		default:
			return nil, fmt.Errorf("step %d: unknown op %q", i, s.Op)
		}

		if m := blocks[s.Name]; m != nil && s.Name != "" {
			res.Addr = memory.FormatAddr(m.Address())
			res.Size = m.Size()
		}
		for _, e := range status.Entries() {
			res.Status = append(res.Status, e.Code.String())
		}
		report.Steps = append(report.Steps, res)
	}

	for _, c := range a.Chunks() {
		report.Chunks = append(report.Chunks, ChunkReport{Stats: c.Stats(), Blocks: c.Layout()})
	}
	report.Stats = a.Stats()
	return report, nil
}

func printReport(r *Report) {
	printInfo("Steps:\n")
	for _, s := range r.Steps {
		line := fmt.Sprintf("  %3d  %-7s", s.Index, s.Op)
		if s.Name != "" {
			line += " " + s.Name
		}
		if s.Addr != "" {
			line += fmt.Sprintf(" @ %s (%d bytes)", s.Addr, s.Size)
		}
		for _, code := range s.Status {
			line += " [" + code + "]"
		}
		printInfo("%s\n", line)
	}

	for _, c := range r.Chunks {
		printInfo("\nChunk %s: capacity %d, free %d in %d block(s), dispersion %d\n",
			memory.FormatAddr(c.Base), c.Capacity, c.FreeBytes, c.FreeBlocks, c.Dispersion)
		for _, b := range c.Blocks {
			state := "reserved"
			if b.Free {
				state = "free"
			}
			printInfo("  %-10s %8d  %s\n", memory.FormatAddr(b.Addr), b.Size, state)
		}
	}

	s := r.Stats
	printInfo("\nAllocator:\n")
	printInfo("  Chunks:           %d (largest %d)\n", s.Chunks, s.MaxChunkCapacity)
	printInfo("  Allocated:        %d bytes\n", s.AllocatedTotal)
	printInfo("  Alloc calls:      %d (%d failed)\n", s.AllocCalls, s.FailedAllocs)
	printInfo("  Realloc calls:    %d (%d relocated)\n", s.ReallocCalls, s.Relocations)
	printInfo("  Free calls:       %d (%d deferred)\n", s.FreeCalls, s.DeferredFrees)
	printInfo("  Defragmentations: %d\n", s.Defragmentations)
	printInfo("  Chunks discarded: %d\n", s.DiscardedChunks)
}
