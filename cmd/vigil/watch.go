package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/vigil"
	"github.com/zoobzio/vigil/books"
	"github.com/zoobzio/vigil/file"
	vigilprom "github.com/zoobzio/vigil/prometheus"
)

// retryDelay is the first pause between parse attempts. Editors that
// truncate before writing leave the file empty for a moment.
const retryDelay = 25 * time.Millisecond

// viewer prints progress notifications and the library as it changes.
type viewer struct {
	out         io.Writer
	monitor     *vigil.Monitor[*books.Library]
	autoPromote bool
	now         func() time.Time

	// shown is the last library printed, so that an unpromoted change is
	// only printed once.
	shown *books.Library
}

func (v *viewer) onProgress(_ context.Context, p vigil.Progress) {
	now := v.now()
	fmt.Fprintln(v.out, renderStatus(now, p))
	if p.Failed() || !p.Changes {
		return
	}

	src, _ := v.monitor.Source()
	if v.autoPromote {
		v.monitor.PromoteSourceAsCurrent()
		v.show(src, now)
		return
	}
	if !src.Equal(v.shown) {
		v.show(src, now)
		fmt.Fprintln(v.out, renderChangeHint())
	}
}

func (v *viewer) show(lib *books.Library, now time.Time) {
	fmt.Fprint(v.out, renderLibrary(lib, now))
	v.shown = lib.Clone()
}

func runWatch(ctx context.Context, cmd WatchCmd, out io.Writer) error {
	codec, err := codecFor(cmd.Format)
	if err != nil {
		return err
	}
	fileParser, err := books.NewFileParser(cmd.File, codec)
	if err != nil {
		return err
	}
	var parser vigil.Parser[*books.Library] = fileParser
	if cmd.Retries > 1 {
		parser = vigil.WithParseBackoff(parser, cmd.Retries, retryDelay, nil)
	}
	if cmd.ParseTimeout > 0 {
		parser = vigil.WithParseTimeout(parser, cmd.ParseTimeout, nil)
	}

	monitor, err := vigil.New[*books.Library](parser, books.NewValidator(), cmd.Interval)
	if err != nil {
		return err
	}
	defer monitor.Close()

	var srv *http.Server
	if cmd.MetricsAddr != "" {
		provider, reg := vigilprom.NewProvider(nil)
		monitor.Metrics(provider)

		mux := http.NewServeMux()
		mux.Handle("/metrics", vigilprom.Handler(reg))
		srv = &http.Server{Addr: cmd.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	v := &viewer{out: out, monitor: monitor, autoPromote: cmd.AutoPromote, now: time.Now}
	monitor.OnProgress(v.onProgress)

	// Load and accept the file once before polling starts.
	if monitor.MonitorSourceData(ctx) {
		monitor.PromoteSourceAsCurrent()
		cur, _ := monitor.Current()
		v.show(cur, v.now())
	}

	slog.Info("watching books file", "file", cmd.File, "interval", cmd.Interval, "auto_promote", cmd.AutoPromote)

	g, gctx := errgroup.WithContext(ctx)

	if err := monitor.Start(gctx); err != nil {
		return err
	}
	g.Go(func() error {
		<-monitor.Done()
		return nil
	})

	if !cmd.NoWatch {
		nudges, err := file.NewWatcher(cmd.File).Watch(gctx)
		if err != nil {
			slog.Warn("file system events unavailable, polling only", "error", err)
		} else {
			g.Go(func() error {
				for range nudges {
					monitor.MonitorSourceData(gctx)
				}
				return nil
			})
		}
	}

	if srv != nil {
		g.Go(func() error {
			slog.Info("serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
