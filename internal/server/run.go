package server

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/shigetaa/node-js5http/internal/reqlog"
)

// Run serves handler on port until ctx is done or writing request
// diagnostics fails. Diagnostics recorded into rec are written while the
// server runs and flushed after the last connection has been handled.
func Run(ctx context.Context, port int, handler Handler, rec *reqlog.Logger) error {
	srv, err := Serve(port, handler)
	if err != nil {
		return err
	}
	log.Printf("server start http://localhost:%d/", srv.Port())

	logCtx, stopLog := context.WithCancel(context.Background())
	defer stopLog()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rec.Run(logCtx)
	})
	g.Go(func() error {
		<-gctx.Done()
		err := srv.Close()
		stopLog()
		return err
	})
	return g.Wait()
}
