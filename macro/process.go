package macro

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	tt "github.com/macrolang/macroc/internal/types"
)

// Result is the outcome of processing one file.
type Result struct {
	Path   string
	Output []byte
	Issues []tt.Issue
}

// Processor runs one engine operation over one file.
type Processor func(engine *Engine, path string) (Result, error)

// ExpandProcessor expands a macro file.
func ExpandProcessor(engine *Engine, path string) (Result, error) {
	output, issues, err := engine.ExpandFile(path)
	return Result{Path: path, Output: output, Issues: issues}, err
}

// DeriveProcessor applies derive directives in a Go file.
func DeriveProcessor(engine *Engine, path string) (Result, error) {
	output, issues, err := engine.DeriveFile(path)
	return Result{Path: path, Output: output, Issues: issues}, err
}

// WrapProcessor applies wrap directives in a Go file.
func WrapProcessor(engine *Engine, path string) (Result, error) {
	output, issues, err := engine.WrapFile(path)
	return Result{Path: path, Output: output, Issues: issues}, err
}

// CheckProcessor reports problems without generating output.
func CheckProcessor(engine *Engine, path string) (Result, error) {
	issues, err := engine.CheckFile(path)
	return Result{Path: path, Issues: issues}, err
}

// ProcessFiles processes every given path, walking directories for files
// with one of the wanted extensions.
func ProcessFiles(ctx context.Context, logger *zap.Logger, engine *Engine, paths []string, exts []string, proc Processor) ([]Result, error) {
	var all []Result
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path, exts, proc)
		if err != nil {
			if logger != nil {
				logger.Error("error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		all = append(all, results...)
	}
	return all, nil
}

// ProcessPath processes one file, or every matching file under one
// directory. Directory files are processed in parallel; the per-file
// isolation of failures is preserved because source problems travel in
// each Result rather than as errors.
func ProcessPath(ctx context.Context, logger *zap.Logger, engine *Engine, path string, exts []string, proc Processor) ([]Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		result, err := proc(engine, path)
		if err != nil {
			return nil, err
		}
		return []Result{result}, nil
	}

	files, err := collectFiles(engine, path, exts)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription(path),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	results := make([]Result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := proc(engine, file)
			if err != nil {
				if logger != nil {
					logger.Error("error processing file", zap.String("file", file), zap.Error(err))
				}
				return err
			}
			results[i] = result
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// collectFiles walks root for files with a wanted extension, skipping
// ignored paths and this tool's own generated files.
func collectFiles(engine *Engine, root string, exts []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && engine.ignored(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !hasExtension(path, exts) || engine.ignored(path) || engine.generated(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, err)
	}
	return files, nil
}

func hasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, want := range exts {
		if ext == want {
			return true
		}
	}
	return false
}

// MacroExtensions are the files the expand operation consumes.
var MacroExtensions = []string{".gom"}

// GoExtensions are the files the derive and wrap operations consume.
var GoExtensions = []string{".go"}

// CheckExtensions are the files the check operation consumes.
var CheckExtensions = []string{".gom", ".go"}
