package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/docchat/docchat/internal/httpapi"
	"github.com/docchat/docchat/internal/httpapi/handlers"
)

func newServeCmd() *cobra.Command {
	var host string
	var port int
	var reload bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reload {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			a, err := buildApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			if host == "" {
				host = a.cfg.Server.Host
			}
			if port == 0 {
				port = a.cfg.Server.Port
			}

			h := handlers.NewHandler(a.chatSvc, a.filesSvc, a.log)
			r := httpapi.NewRouter(h, a.log)

			addr := fmt.Sprintf("%s:%d", host, port)
			a.log.WithField("addr", addr).Info("server listening")
			return r.Run(addr)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "bind address (defaults to config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (defaults to config)")
	cmd.Flags().BoolVar(&reload, "reload", false, "run in development mode with verbose routing output")
	return cmd
}
