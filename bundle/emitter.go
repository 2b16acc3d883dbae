// Package bundle turns resolved build targets into files on disk using esbuild.
package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/vcnkl/libpack/cache/hashing"
	"github.com/vcnkl/libpack/logger"
	"github.com/vcnkl/libpack/models"
)

type Emitter struct {
	projectRoot string
	log         logger.Logger
}

func NewEmitter(projectRoot string, log logger.Logger) *Emitter {
	return &Emitter{
		projectRoot: projectRoot,
		log:         log,
	}
}

// Options translates a target into esbuild build options. Nothing is written
// to disk by esbuild itself; Emit writes the output files.
func (e *Emitter) Options(lib *models.Library, target models.BuildTarget) (api.BuildOptions, error) {
	opts := api.BuildOptions{
		EntryPoints:       []string{lib.EntryPath(e.projectRoot)},
		Outfile:           lib.OutputPath(e.projectRoot, target.FileName),
		AbsWorkingDir:     lib.Root(e.projectRoot),
		Bundle:            true,
		Write:             false,
		LogLevel:          api.LogLevelSilent,
		Platform:          platform(lib.Options.Platform),
		MinifyWhitespace:  lib.Options.Minify,
		MinifyIdentifiers: lib.Options.Minify,
		MinifySyntax:      lib.Options.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         cond(lib.Options.Sourcemap, api.SourceMapLinked, api.SourceMapNone),
	}

	switch target.Wrapping {
	case models.WrapESM:
		opts.Format = api.FormatESModule
		opts.External = target.Externals
	case models.WrapCJS:
		opts.Format = api.FormatCommonJS
		opts.External = target.Externals
	case models.WrapUMD:
		opts.Format = api.FormatCommonJS
		opts.External = target.Externals
		opts.Banner = map[string]string{"js": umdBanner(target.GlobalName, target.Externals, target.Globals)}
		opts.Footer = map[string]string{"js": umdFooter()}
		plugin := &GlobalsPlugin{Globals: target.Globals}
		opts.Plugins = []api.Plugin{plugin.New()}
	case models.WrapIIFE:
		opts.Format = api.FormatIIFE
		opts.GlobalName = target.GlobalName
		opts.Footer = map[string]string{"js": iifeFooter(target.GlobalName)}
		plugin := &GlobalsPlugin{Globals: target.Globals, Shim: true}
		opts.Plugins = []api.Plugin{plugin.New()}
	default:
		return api.BuildOptions{}, fmt.Errorf("target %s: unsupported wrapping %q", target.ID(), target.Wrapping)
	}

	return opts, nil
}

// Emit bundles one target and writes its files. Each file is written to a
// temporary path and renamed into place.
func (e *Emitter) Emit(ctx context.Context, lib *models.Library, target models.BuildTarget) (models.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return models.Artifact{}, err
	}

	opts, err := e.Options(lib, target)
	if err != nil {
		return models.Artifact{}, err
	}

	result := api.Build(opts)

	for _, msg := range result.Warnings {
		e.log.Warn(formatMessage(msg), logger.String("target", target.ID()))
	}
	if len(result.Errors) > 0 {
		return models.Artifact{}, newBuildError(target.ID(), result.Errors)
	}

	if err = ctx.Err(); err != nil {
		return models.Artifact{}, err
	}

	outputs := result.OutputFiles
	sort.Slice(outputs, func(i, j int) bool {
		return outputs[i].Path < outputs[j].Path
	})

	artifact := models.Artifact{TargetID: target.ID()}
	var contents []byte
	for _, out := range outputs {
		if err = writeFile(out.Path, out.Contents); err != nil {
			return models.Artifact{}, err
		}

		rel, err := filepath.Rel(e.projectRoot, out.Path)
		if err != nil {
			rel = out.Path
		}
		artifact.Files = append(artifact.Files, filepath.ToSlash(rel))
		artifact.Size += int64(len(out.Contents))
		contents = append(contents, out.Contents...)
	}
	artifact.Hash = "sha256:" + hashing.HashBytes(contents)

	e.log.Debug("emitted target",
		logger.String("target", target.ID()),
		logger.Strs("files", artifact.Files),
		logger.Int64("size", artifact.Size),
	)

	return artifact, nil
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}

	return nil
}

func platform(name string) api.Platform {
	switch name {
	case "node":
		return api.PlatformNode
	case "neutral":
		return api.PlatformNeutral
	}
	return api.PlatformBrowser
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}

type BuildError struct {
	TargetID string
	Messages []string
}

func newBuildError(targetID string, messages []api.Message) *BuildError {
	err := &BuildError{TargetID: targetID}
	for _, msg := range messages {
		err.Messages = append(err.Messages, formatMessage(msg))
	}
	return err
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("bundling %s failed: %s", e.TargetID, strings.Join(e.Messages, "; "))
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
}
