package main

import (
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danprince/noopener/internal/builder"
	"github.com/danprince/noopener/internal/errors"
	"github.com/danprince/noopener/internal/livereload"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

func serve(b *builder.Builder, addr string, logger log.Logger) {
	var (
		mu       sync.RWMutex
		buildErr error
	)

	lr := livereload.New(logger)
	server := http.FileServer(http.Dir(b.OutDir))
	mux := http.NewServeMux()

	b.LiveReload = true

	mux.Handle("/ws", lr)

	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		err := buildErr
		mu.RUnlock()

		if err != nil {
			w.Header().Add("Content-type", "text/html")
			w.WriteHeader(500)
			w.Write([]byte(errors.FmtErrorHtml(err)))
			w.Write([]byte(fmt.Sprintf("<script>%s</script>", livereload.Script)))
		} else {
			server.ServeHTTP(w, r)
		}
	}))

	watcher := watch(b.PagesDir, []string{b.OutDir}, logger)

	go func() {
		for {
			start := time.Now()
			err := b.Build()

			mu.Lock()
			buildErr = err
			mu.Unlock()

			if err != nil {
				fmt.Fprintln(os.Stderr, errors.FmtError(err))
			} else {
				level.Info(logger).Log("msg", "built site", "pages", b.Pages(), "duration", time.Since(start))
			}

			lr.Notify()
			<-watcher
			b.Reset()
		}
	}()

	level.Info(logger).Log("msg", "serving site", "addr", addr)

	svr := http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: time.Second * 5,
	}

	if err := svr.ListenAndServe(); err != nil {
		level.Error(logger).Log("msg", "server stopped", "err", err)
		os.Exit(1)
	}
}
