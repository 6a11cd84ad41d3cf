// Package batch runs extract and import over many files, one pool task per
// file, tallying every file's outcome without letting one failure stop the
// rest.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/joshuapare/vnkit/internal/mmfile"
	"github.com/joshuapare/vnkit/internal/pool"
	"github.com/joshuapare/vnkit/internal/writer"
	"github.com/joshuapare/vnkit/pkg/counter"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/types"
)

// ScriptExt is appended to an asset's name for its extracted messages.
const ScriptExt = ".json"

const sniffLen = 64

// Runner holds what every task shares. Counter receives one outcome per file.
type Runner struct {
	Registry *engine.Registry
	Config   engine.Config
	Counter  *counter.Counter
	Log      *slog.Logger
}

// Item is one input file and its path relative to the argument it came from.
type Item struct {
	Path string
	Rel  string
}

// Result reports one file.
type Result struct {
	Input   string        `json:"input"`
	Output  string        `json:"output,omitempty"`
	Engine  engine.Tag    `json:"engine,omitempty"`
	Outcome types.Outcome `json:"-"`
	Status  string        `json:"status"`
	Err     error         `json:"-"`
	Error   string        `json:"error,omitempty"`
}

func (r *Runner) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.New(slog.DiscardHandler)
}

func (r *Runner) counter() *counter.Counter {
	if r.Counter == nil {
		r.Counter = counter.New()
	}
	return r.Counter
}

// Expand turns file and directory arguments into items. Directories are
// walked recursively and contribute only files whose extension some codec
// claims, or every file when an engine is forced by tag.
func (r *Runner) Expand(args []string) ([]Item, error) {
	var items []Item
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		if !info.IsDir() {
			items = append(items, Item{Path: arg, Rel: filepath.Base(arg)})
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !r.claims(path) {
				return nil
			}
			rel, err := filepath.Rel(arg, path)
			if err != nil {
				return err
			}
			items = append(items, Item{Path: path, Rel: rel})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("batch: walk %s: %w", arg, err)
		}
	}
	return items, nil
}

func (r *Runner) claims(path string) bool {
	if r.Config.Engine != "" {
		return true
	}
	_, err := r.Registry.ByExtension(path)
	return err == nil
}

// resolve picks the codec for f: forced tag, then extension, then content.
func (r *Runner) resolve(f *mmfile.File) (engine.Codec, error) {
	c, err := r.Registry.Resolve(r.Config.Engine, f.Path())
	if err == nil || r.Config.Engine != "" {
		return c, err
	}
	head := f.Bytes()
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if c, ok := r.Registry.Sniff(head); ok {
		return c, nil
	}
	return nil, err
}

// run submits one task per item and collects results sorted by input.
func (r *Runner) run(ctx context.Context, n int, task func(ctx context.Context, i int) Result) ([]Result, error) {
	var mu sync.Mutex
	results := make([]Result, 0, n)
	p := pool.New(ctx, r.Config.Workers, pool.WithLogger(r.log()), pool.WithErrorHandler(func(err error) {
		r.log().Warn("task not run", "error", err)
	}))
	var submitErr error
	for i := 0; i < n; i++ {
		err := p.Submit(ctx, func(ctx context.Context) error {
			res := task(ctx, i)
			res.Status = res.Outcome.String()
			if res.Err != nil {
				res.Error = res.Err.Error()
			}
			r.counter().Inc(res.Outcome)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
		if err != nil {
			submitErr = err
			break
		}
	}
	if err := p.Close(); err != nil && submitErr == nil {
		submitErr = err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Input < results[j].Input })
	if errors.Is(submitErr, pool.ErrClosed) && ctx.Err() != nil {
		submitErr = ctx.Err()
	}
	return results, submitErr
}

// Extract decodes every item and writes its script as JSON under outDir,
// mirroring the item's relative path. An empty outDir writes next to each
// input. The returned error is set only when the batch was interrupted.
func (r *Runner) Extract(ctx context.Context, items []Item, outDir string) ([]Result, error) {
	r.counter()
	return r.run(ctx, len(items), func(ctx context.Context, i int) Result {
		it := items[i]
		out := it.Path + ScriptExt
		if outDir != "" {
			out = filepath.Join(outDir, it.Rel+ScriptExt)
		}
		return r.ExtractFile(ctx, it.Path, out)
	})
}

// ExtractFile decodes one asset into a JSON script at out.
func (r *Runner) ExtractFile(ctx context.Context, path, out string) Result {
	res := Result{Input: path}
	script, outcome, tag, err := r.decode(ctx, path)
	res.Engine = tag
	if err != nil {
		return r.fail(res, err)
	}
	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return r.fail(res, err)
	}
	fw := &writer.FileWriter{Path: out}
	if err := fw.WriteOutput(append(data, '\n')); err != nil {
		return r.fail(res, err)
	}
	res.Output = out
	res.Outcome = outcome
	r.log().Info("extracted", "input", path, "output", out, "messages", len(script.Messages), "outcome", outcome)
	return res
}

func (r *Runner) decode(ctx context.Context, path string) (*engine.Script, types.Outcome, engine.Tag, error) {
	f, err := mmfile.Open(path)
	if err != nil {
		return nil, types.OutcomeError, "", err
	}
	defer f.Close()
	c, err := r.resolve(f)
	if err != nil {
		return nil, types.OutcomeError, "", err
	}
	script, outcome, err := c.Decode(ctx, engine.Input{Name: path, Data: f.Reader()}, r.Config)
	if err != nil {
		return nil, outcome, c.Tag(), err
	}
	if script.Engine == "" {
		script.Engine = c.Tag()
	}
	return script, outcome, c.Tag(), nil
}

func (r *Runner) fail(res Result, err error) Result {
	res.Err = err
	res.Outcome = types.Classify(err, false)
	if res.Outcome == types.OutcomeIgnored {
		r.log().Info("ignored", "input", res.Input, "reason", err)
	} else {
		r.log().Error("failed", "input", res.Input, "error", err)
	}
	return res
}

// ImportJob pairs an asset with its edited script and a destination.
type ImportJob struct {
	Input  string
	Script string
	Output string
}

// Pair builds import jobs for items whose scripts sit under scriptDir with
// the layout Extract produces, writing into outDir with the same relative
// paths.
func Pair(items []Item, scriptDir, outDir string) []ImportJob {
	jobs := make([]ImportJob, 0, len(items))
	for _, it := range items {
		jobs = append(jobs, ImportJob{
			Input:  it.Path,
			Script: filepath.Join(scriptDir, it.Rel+ScriptExt),
			Output: filepath.Join(outDir, it.Rel),
		})
	}
	return jobs
}

// Import re-encodes every job.
func (r *Runner) Import(ctx context.Context, jobs []ImportJob) ([]Result, error) {
	r.counter()
	return r.run(ctx, len(jobs), func(ctx context.Context, i int) Result {
		return r.ImportFile(ctx, jobs[i])
	})
}

// ImportFile re-encodes one asset with the texts of job.Script. The output
// replaces job.Output only when encoding succeeds.
func (r *Runner) ImportFile(ctx context.Context, job ImportJob) Result {
	res := Result{Input: job.Input}
	script, err := ReadScript(job.Script)
	if err != nil {
		return r.fail(res, err)
	}
	f, err := mmfile.Open(job.Input)
	if err != nil {
		return r.fail(res, err)
	}
	defer f.Close()
	c, err := r.resolve(f)
	if err != nil {
		return r.fail(res, err)
	}
	res.Engine = c.Tag()
	if script.Engine != "" && !strings.EqualFold(string(script.Engine), string(c.Tag())) {
		return r.fail(res, types.FormatErr("import", "script is for engine %q, asset is %q", script.Engine, c.Tag()))
	}

	out, err := writer.Create(job.Output, 0)
	if err != nil {
		return r.fail(res, err)
	}
	outcome, err := c.Encode(ctx, engine.Input{Name: job.Input, Data: f.Reader()}, script, out, r.Config)
	if err != nil {
		out.Abort()
		return r.fail(res, err)
	}
	if err := out.Commit(); err != nil {
		return r.fail(res, err)
	}
	res.Output = job.Output
	res.Outcome = outcome
	r.log().Info("imported", "input", job.Input, "output", job.Output, "outcome", outcome)
	return res
}

// ReadScript loads a JSON script written by Extract.
func ReadScript(path string) (*engine.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s engine.Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, types.FormatErr("read script", "%s: %v", path, err)
	}
	return &s, nil
}

// Info summarizes one asset.
type Info struct {
	Path     string     `json:"path"`
	Size     int        `json:"size"`
	Engine   engine.Tag `json:"engine"`
	Name     string     `json:"name,omitempty"`
	Messages int        `json:"messages"`
	Status   string     `json:"status"`
}

// Inspect decodes path and reports what it holds.
func (r *Runner) Inspect(ctx context.Context, path string) (*Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	script, outcome, tag, err := r.decode(ctx, path)
	info := &Info{Path: path, Size: int(st.Size()), Engine: tag}
	if err != nil {
		if errors.Is(err, types.ErrIgnored) {
			info.Status = types.OutcomeIgnored.String()
			return info, nil
		}
		return nil, err
	}
	info.Name = script.Name
	info.Messages = len(script.Messages)
	info.Status = outcome.String()
	return info, nil
}
