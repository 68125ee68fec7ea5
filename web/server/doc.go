// Package server runs the bridge's status API with graceful shutdown.
//
// Run blocks until its context ends; signal handling belongs to the
// caller, which usually runs the server next to the poller:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := server.New(app, server.WithHost(cfg.HTTPAddr))
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(func() error { return srv.Run(ctx) })
//	g.Go(func() error { return p.Run(ctx) })
//	return g.Wait()
package server
