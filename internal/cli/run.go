package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/parallelssh/pssh/internal/config"
	"github.com/parallelssh/pssh/internal/dispatch"
	"github.com/parallelssh/pssh/internal/module"
	"github.com/parallelssh/pssh/internal/progressview"
	"github.com/parallelssh/pssh/internal/save"
)

// buildDispatcher turns a resolved Config into a Dispatcher, loading
// the module registry if modulesRequired is set (command-mode never
// needs one; module-mode always does).
func buildDispatcher(cfg *config.Config, modulesRequired bool, log zerolog.Logger) *dispatch.Dispatcher {
	b := dispatch.NewBuilder().
		TcpConnectionsPool(cfg.Threads).
		AgentConnectionsPool(cfg.AgentParallelism).
		TimeoutSocket(dispatch.DefaultTimeoutSocket).
		TimeoutSSH(cfg.Timeout()).
		User(cfg.User)

	if modulesRequired {
		reg, err := module.NewRegistry(cfg.ResolvedModulesPath())
		if loadErrs, ok := err.(module.LoadErrors); ok {
			log.Warn().Err(loadErrs).Msg("some module descriptors failed to load")
		} else if err != nil {
			fatalf("load module registry at %s: %v", cfg.ResolvedModulesPath(), err)
		}
		b = b.ModuleTree(reg)
	}

	dc, err := b.Build()
	if err != nil {
		fatalf("build dispatch config: %v", err)
	}
	return dispatch.New(dc)
}

// drain consumes a Dispatcher's result channel, optionally drawing a
// progress bar and/or persisting each Response via save.Writer as it
// arrives, and always returns every Response collected (for a final
// --output write). total is the number of requests dispatched, used
// only to size the progress bar.
func drain(ctx context.Context, ch <-chan dispatch.Response, cfg *config.Config, label string, log zerolog.Logger, total int) []dispatch.Response {
	var writer *save.Writer
	if cfg.Output.SaveToFile {
		dir := save.DirForDate(time.Now())
		w, err := save.NewWriter(dir, label, log)
		if err != nil {
			fatalf("open incremental save writer: %v", err)
		}
		writer = w
	}

	var bar *progressview.Bar
	if cfg.Output.ShowProgress {
		bar = progressview.New(os.Stderr)
	}

	all := make([]dispatch.Response, 0, total)
	done := 0
	for r := range ch {
		all = append(all, r)
		done++
		if writer != nil {
			if err := writer.Write(r); err != nil {
				log.Error().Err(err).Str("host", r.Hostname).Msg("incremental write failed")
			}
		}
		if bar != nil {
			bar.Draw(done, total)
		}
	}
	if bar != nil {
		bar.Done()
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			log.Error().Err(err).Msg("closing incremental save writer")
		}
	}

	if cfg.Output.Filename != "" {
		if err := save.Final(cfg.Output.Filename, all, cfg.Output.PrettyFormat); err != nil {
			log.Error().Err(err).Msg("writing final output file")
		}
	}

	return all
}
