// Package oracle drives the external translator pipeline: a chain of
// long-lived Apertium subprocesses connected by null-byte-flush framed pipes.
//
// Grounded on original_source/tools/pipelines.py's partialTranslator and
// weightedPartialTranslator (exact chain shape, exact null-flush protocol),
// restyled on theRebelliousNerd-codenerd/internal/mcp.StdioTransport's
// stdin/stdout pipe setup and structured subprocess-lifecycle logging.
package oracle

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/apertium-contrib/twlearn"
	"github.com/apertium-contrib/twlearn/twlog"
)

// Error codes used by oracle.
const (
	// SpawnError indicates a pipeline stage failed to start.
	SpawnError = twerr.OracleErrors + iota

	// PipeBrokenError indicates a pipeline stage exited or closed its output without a sentinel.
	PipeBrokenError
)

// decorationRe strips the Apertium decoration characters from translator output.
var decorationRe = regexp.MustCompile(`[@#~*]`)

// nulFlushTail is appended to every chunk sent into the pipeline, matching the
// original's '[][\n]' sentinel text (stripped back out of the response).
const nulFlushTail = "[][\n]"

// Programs names every external binary the pipeline invokes. Their existence
// and command-line contract is part of spec.md §6's external interface, not
// reimplemented here.
type Programs struct {
	Analyzer    string // lt-proc -b (bidix lookup), default "lt-proc"
	Transfer    string // apertium-transfer, default "apertium-transfer"
	Interchunk  string // apertium-interchunk, default "apertium-interchunk"
	Postchunk   string // apertium-postchunk, default "apertium-postchunk"
	Generator   string // lt-proc -g, default "lt-proc"
}

// DefaultPrograms returns the conventional Apertium binary names.
func DefaultPrograms() Programs {
	return Programs{
		Analyzer:   "lt-proc",
		Transfer:   "apertium-transfer",
		Interchunk: "apertium-interchunk",
		Postchunk:  "apertium-postchunk",
		Generator:  "lt-proc",
	}
}

// Paths names the transfer-rules (tixfname) and compiled-binary (binfname)
// path prefixes, shared by every stage of the pipeline for a language pair.
type Paths struct {
	TixBase string // e.g. ".../apertium-en-es/apertium-en-es.en-es"
	BinBase string // e.g. ".../apertium-en-es/en-es"
}

// Oracle is the translator black box contract from spec.md §4.F (the
// language model is the separate scorer.Scorer).
type Oracle interface {
	// TranslateDefault translates chunk with no rule-weight overrides.
	TranslateDefault(ctx context.Context, chunk string) (string, error)

	// TranslateWithWeights translates chunk consulting weightsPath when choosing among ambiguous rules.
	TranslateWithWeights(ctx context.Context, chunk string, weightsPath string) (string, error)
}

// stage is one subprocess of a null-flush chain.
type stage struct {
	name string
	cmd  *exec.Cmd
}

// chain is a sequence of subprocesses wired stdout->stdin, with the first
// stage's stdin and the last stage's stdout exposed for null-flush framing.
type chain struct {
	log    *twlog.Logger
	stages []*stage
	first  io.WriteCloser
	last   io.ReadCloser
}

func startChain(ctx context.Context, log *twlog.Logger, specs [][]string) (*chain, error) {
	c := &chain{log: log}
	var prevOut io.ReadCloser

	for i, spec := range specs {
		cmd := exec.CommandContext(ctx, spec[0], spec[1:]...)
		cmd.Stderr = os.Stderr

		var stdin io.WriteCloser
		var err error
		if prevOut == nil {
			stdin, err = cmd.StdinPipe()
			if err != nil {
				return nil, twerr.FormatError(SpawnError, "stage %d (%s): stdin pipe: %s", i, spec[0], err)
			}
		} else {
			cmd.Stdin = prevOut
		}

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, twerr.FormatError(SpawnError, "stage %d (%s): stdout pipe: %s", i, spec[0], err)
		}

		if err := cmd.Start(); err != nil {
			return nil, twerr.FormatError(SpawnError, "stage %d (%s): start: %s", i, spec[0], err)
		}
		log.Debug("started pipeline stage", "stage", spec[0], "args", spec[1:])

		c.stages = append(c.stages, &stage{name: spec[0], cmd: cmd})
		if stdin != nil {
			c.first = stdin
		}
		prevOut = stdout
	}

	c.last = prevOut
	return c, nil
}

// roundtrip writes payload terminated by a NUL sentinel to the first stage
// and reads the last stage's raw output up to its own NUL sentinel. Calls
// must not be interleaved: roundtrip blocks until the full round trip completes.
func (c *chain) roundtrip(payload []byte) (string, error) {
	if _, err := c.first.Write(payload); err != nil {
		return "", twerr.FormatError(PipeBrokenError, "write to pipeline: %s", err)
	}
	if _, err := c.first.Write([]byte{0}); err != nil {
		return "", twerr.FormatError(PipeBrokenError, "write sentinel: %s", err)
	}

	out, err := readUntilNul(c.last)
	if err != nil {
		return "", twerr.FormatError(PipeBrokenError, "read from pipeline: %s", err)
	}

	return out, nil
}

// send trims chunk, appends the null-flush tail, and returns the chain's
// fully post-processed output (decoration characters stripped, tail removed).
func (c *chain) send(chunk string) (string, error) {
	out, err := c.roundtrip([]byte(strings.TrimSpace(chunk) + nulFlushTail))
	if err != nil {
		return "", err
	}
	return postprocess(out), nil
}

// sendRaw is like send but returns the chain's output unprocessed, for use
// when the chain is only an intermediate stage of a larger pipeline.
func (c *chain) sendRaw(chunk string) (string, error) {
	return c.roundtrip([]byte(strings.TrimSpace(chunk) + nulFlushTail))
}

func readUntilNul(r io.Reader) (string, error) {
	var buf bytes.Buffer
	one := make([]byte, 1)
	for {
		n, err := r.Read(one)
		if n > 0 {
			if one[0] == 0 {
				return buf.String(), nil
			}
			buf.WriteByte(one[0])
		}
		if err != nil {
			if err == io.EOF {
				return "", fmt.Errorf("pipeline closed without sentinel")
			}
			return "", err
		}
	}
}

func postprocess(s string) string {
	s = strings.ReplaceAll(s, nulFlushTail, "")
	return decorationRe.ReplaceAllString(s, "")
}

func (c *chain) close() {
	if c.first != nil {
		c.first.Close()
	}
	for _, s := range c.stages {
		_ = s.cmd.Wait()
	}
}

// PipelineOracle is the default Oracle implementation, wiring the Apertium
// pipeline exactly as original_source/tools/pipelines.py's partialTranslator
// and weightedPartialTranslator do.
type PipelineOracle struct {
	log      *twlog.Logger
	programs Programs
	paths    Paths

	defaultChain *chain // lt-proc | apertium-transfer | apertium-interchunk | apertium-postchunk | lt-proc

	// weighted chain is split: bilStage runs continuously, interchunk onward
	// runs continuously, and apertium-transfer is spawned fresh per call so
	// it can be pointed at a new weights file (see translate.py's reasoning).
	bilStage      *chain
	tailStage     *chain
}

// NewPipelineOracle starts the persistent pipeline stages for paths using programs.
// ctx governs the lifetime of every spawned subprocess; cancelling it tears down the pipeline.
func NewPipelineOracle(ctx context.Context, log *twlog.Logger, programs Programs, paths Paths) (*PipelineOracle, error) {
	o := &PipelineOracle{log: log, programs: programs, paths: paths}

	defaultChain, err := startChain(ctx, log, [][]string{
		{programs.Analyzer, "-b", "-z", paths.BinBase + ".autobil.bin"},
		{programs.Transfer, "-b", "-z", paths.TixBase + ".t1x", paths.BinBase + ".t1x.bin"},
		{programs.Interchunk, "-z", paths.TixBase + ".t2x", paths.BinBase + ".t2x.bin"},
		{programs.Postchunk, "-z", paths.TixBase + ".t2x", paths.BinBase + ".t2x.bin"},
		{programs.Generator, "-g", "-z", paths.BinBase + ".autogen.bin"},
	})
	if err != nil {
		return nil, err
	}
	o.defaultChain = defaultChain

	bil, err := startChain(ctx, log, [][]string{
		{programs.Analyzer, "-b", "-z", paths.BinBase + ".autobil.bin"},
	})
	if err != nil {
		return nil, err
	}
	o.bilStage = bil

	tail, err := startChain(ctx, log, [][]string{
		{programs.Interchunk, "-z", paths.TixBase + ".t2x", paths.BinBase + ".t2x.bin"},
		{programs.Postchunk, "-z", paths.TixBase + ".t2x", paths.BinBase + ".t2x.bin"},
		{programs.Generator, "-g", "-z", paths.BinBase + ".autogen.bin"},
	})
	if err != nil {
		return nil, err
	}
	o.tailStage = tail

	return o, nil
}

// TranslateDefault runs chunk through the full persistent pipeline with no weight overrides.
func (o *PipelineOracle) TranslateDefault(ctx context.Context, chunk string) (string, error) {
	out, err := o.defaultChain.send(chunk)
	o.log.Debug("translated (default)", "input", chunk, "output", out)
	return out, err
}

// TranslateWithWeights runs the bidix stage, spawns a short-lived weighted
// apertium-transfer naming weightsPath, and feeds its output into the tail of
// the pipeline. Spawning transfer per call lets each site try a different
// weights file without restarting the rest of the chain.
func (o *PipelineOracle) TranslateWithWeights(ctx context.Context, chunk string, weightsPath string) (string, error) {
	bilOut, err := o.bilStage.sendRaw(chunk)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, o.programs.Transfer, "-bw", weightsPath, o.paths.TixBase+".t1x", o.paths.BinBase+".t1x.bin")
	cmd.Stdin = strings.NewReader(bilOut)
	cmd.Stderr = os.Stderr
	transferOut, err := cmd.Output()
	if err != nil {
		return "", twerr.FormatError(SpawnError, "weighted apertium-transfer: %s", err)
	}

	raw, err := o.tailStage.roundtrip(transferOut)
	if err != nil {
		return "", err
	}
	out := postprocess(raw)
	o.log.Debug("translated (weighted)", "input", chunk, "weights", weightsPath, "output", out)
	return out, nil
}

// Close tears down every pipeline stage. Safe to call once the driver's context is cancelled.
func (o *PipelineOracle) Close() {
	o.defaultChain.close()
	o.bilStage.close()
	o.tailStage.close()
}
