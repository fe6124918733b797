package system

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/julianstephens/emomap/internal/cli"
	"github.com/julianstephens/emomap/internal/constants"
	"github.com/julianstephens/emomap/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Listen address. Defaults to EMOMAP_SERVE_ADDR or 127.0.0.1:8080."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return err
	}
	defer ctx.Store.Close()

	addr := c.Addr
	if addr == "" && ctx.Config != nil {
		addr = ctx.Config.Server.Addr
	}
	if addr == "" {
		addr = constants.DefaultServeAddr
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving the emotion map at http://%s (Ctrl+C to stop)\n", addr)
	return server.New(ctx.Store, ctx.Debug).Run(runCtx, addr)
}
