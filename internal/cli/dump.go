package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/abcdump/internal/abc"
	"github.com/temirov/abcdump/internal/archive"
	"github.com/temirov/abcdump/internal/output"
	"github.com/temirov/abcdump/internal/services/stream"
	"github.com/temirov/abcdump/internal/services/watch"
	"github.com/temirov/abcdump/internal/utils"
)

// dumpArchive opens path and renders it to stdout, copying the rendered text when settings.copy is set.
func (app *application) dumpArchive(ctx context.Context, path string, settings dumpSettings) error {
	opened, err := app.openArchive(path)
	if err != nil {
		return err
	}
	defer func() { _ = opened.Close() }()

	colorEnabled, err := output.ColorEnabled(settings.color, app.stdout)
	if err != nil {
		return err
	}
	renderer, err := output.NewStreamRenderer(app.stdout, app.stderr, settings.rendererOptions(colorEnabled))
	if err != nil {
		return err
	}
	renderers := teeRenderer{renderer}

	var copied bytes.Buffer
	if settings.copy {
		copyRenderer, copyErr := output.NewStreamRenderer(&copied, io.Discard, settings.rendererOptions(false))
		if copyErr != nil {
			return copyErr
		}
		renderers = append(renderers, copyRenderer)
	}

	if err := app.renderArchive(ctx, opened, path, settings, renderers); err != nil {
		return err
	}
	if settings.copy {
		if err := app.copier.Copy(copied.String()); err != nil {
			return fmt.Errorf(copyFailedFormat, err)
		}
		app.logger.Debug("dump copied to clipboard", zap.Int("bytes", copied.Len()))
	}
	return nil
}

// renderRaw renders path as uncolored raw text.
func (app *application) renderRaw(ctx context.Context, path string, settings dumpSettings) (string, error) {
	opened, err := app.openArchive(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = opened.Close() }()

	var rendered bytes.Buffer
	renderer := output.NewRawStreamRenderer(&rendered, app.stderr, output.RawOptions{
		IndentWidth:    settings.indent,
		IncludeSummary: settings.summary,
		Palette:        output.NewPalette(false),
	})
	if err := app.renderArchive(ctx, opened, path, settings, renderer); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func (app *application) openArchive(path string) (abc.Archive, error) {
	opened, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	fields := []zap.Field{
		zap.String("path", path),
		zap.String("metadata", opened.MetaData().Serialize()),
		zap.Int("timeSamplings", opened.NumTimeSamplings()),
	}
	if info, statErr := os.Stat(path); statErr == nil {
		fields = append(fields, zap.String("size", utils.FormatByteSize(info.Size())))
	}
	app.logger.Debug("archive opened", fields...)
	return opened, nil
}

// renderArchive streams the archive into renderer and flushes it. Output produced before a
// failure is flushed as well.
func (app *application) renderArchive(ctx context.Context, opened abc.Archive, path string, settings dumpSettings, renderer output.StreamRenderer) error {
	producer := func(streamCtx context.Context, ch chan<- stream.Event) error {
		options := stream.StreamOptions{
			Archive:      opened,
			Path:         path,
			IncludeTimes: settings.times,
			Logger:       app.logger,
		}
		return stream.StreamArchive(streamCtx, options, ch)
	}

	streamErr := dispatchStream(ctx, producer, renderer.Handle)
	flushErr := renderer.Flush()
	if streamErr != nil {
		return streamErr
	}
	return flushErr
}

// watchArchive dumps path once and again after every change until interrupted.
func (app *application) watchArchive(ctx context.Context, path string, settings dumpSettings) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := watch.New(watch.Options{Path: path, Debounce: settings.debounce, Logger: app.logger})
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dumpOnce := func(runCtx context.Context) error {
		return app.dumpArchive(runCtx, path, settings)
	}
	if err := dumpOnce(ctx); err != nil {
		app.logger.Error("dump failed", zap.String("path", path), zap.Error(err))
	}
	app.logger.Info("watching archive", zap.String("path", path))
	return watcher.Run(ctx, dumpOnce)
}

// teeRenderer forwards every event to each renderer in order.
type teeRenderer []output.StreamRenderer

func (renderers teeRenderer) Handle(event stream.Event) error {
	for _, renderer := range renderers {
		if err := renderer.Handle(event); err != nil {
			return err
		}
	}
	return nil
}

func (renderers teeRenderer) Flush() error {
	var flushErrors []error
	for _, renderer := range renderers {
		if err := renderer.Flush(); err != nil {
			flushErrors = append(flushErrors, err)
		}
	}
	return errors.Join(flushErrors...)
}

func dispatchStream(
	ctx context.Context,
	produce func(context.Context, chan<- stream.Event) error,
	consume func(stream.Event) error,
) error {
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan stream.Event)

	group.Go(func() error {
		defer close(events)
		return produce(streamCtx, events)
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := consume(event); err != nil {
					return err
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
